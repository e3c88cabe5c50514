// Copyright 2026 The Nvimbridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/neovim/go-client/nvim"
)

// EditMode selects how Edit applies its lines to the buffer.
type EditMode string

const (
	// EditInsert inserts the lines before StartLine, pushing existing
	// lines down.
	EditInsert EditMode = "insert"
	// EditReplace overwrites len(lines) lines starting at StartLine.
	EditReplace EditMode = "replace"
	// EditReplaceAll replaces the entire buffer contents.
	EditReplaceAll EditMode = "replaceAll"
)

// EditRequest describes one buffer mutation. Lines is newline-joined
// text; StartLine is 1-based and ignored for EditReplaceAll.
type EditRequest struct {
	Mode      EditMode
	StartLine int
	Lines     string
}

var (
	markNamePattern     = regexp.MustCompile(`^[a-z]$`)
	registerNamePattern = regexp.MustCompile(`^[a-z"]$`)
)

// Edit applies a line-level mutation to the current buffer. The
// caller's 1-based StartLine is translated to the remote API's
// zero-based offsets; out-of-range offsets are clamped by the remote
// side rather than rejected.
func (b *Bridge) Edit(ctx context.Context, request EditRequest) (string, error) {
	switch request.Mode {
	case EditInsert, EditReplace, EditReplaceAll:
	default:
		return "", validationError("unknown edit mode %q", request.Mode)
	}
	if request.Mode != EditReplaceAll && request.StartLine < 1 {
		return "", validationError("startLine must be >= 1, got %d", request.StartLine)
	}

	lines := strings.Split(request.Lines, "\n")
	replacement := make([][]byte, len(lines))
	for i, line := range lines {
		replacement[i] = []byte(line)
	}

	op := fmt.Sprintf("edit %s", request.Mode)
	err := b.withConn(ctx, op, func(conn Conn) error {
		buffer, bufErr := conn.CurrentBuffer()
		if bufErr != nil {
			return bufErr
		}
		start := request.StartLine - 1
		switch request.Mode {
		case EditInsert:
			// An untouched buffer is a single empty line; inserting
			// into one replaces it outright so the result holds
			// exactly the inserted lines, no trailing blank.
			if empty, checkErr := bufferIsEmpty(conn, buffer); checkErr == nil && empty {
				return conn.SetBufferLines(buffer, 0, -1, false, replacement)
			}
			return conn.SetBufferLines(buffer, start, start, false, replacement)
		case EditReplace:
			return conn.SetBufferLines(buffer, start, start+len(replacement), false, replacement)
		default:
			return conn.SetBufferLines(buffer, 0, -1, false, replacement)
		}
	})
	if err != nil {
		return "", err
	}

	switch request.Mode {
	case EditReplaceAll:
		return fmt.Sprintf("buffer replaced with %d lines", len(lines)), nil
	case EditInsert:
		return fmt.Sprintf("inserted %d lines at line %d", len(lines), request.StartLine), nil
	default:
		return fmt.Sprintf("replaced %d lines from line %d", len(lines), request.StartLine), nil
	}
}

// bufferIsEmpty reports whether the buffer holds nothing but the
// single empty line every buffer starts with.
func bufferIsEmpty(conn Conn, buffer nvim.Buffer) (bool, error) {
	count, err := conn.BufferLineCount(buffer)
	if err != nil || count != 1 {
		return false, err
	}
	lines, err := conn.BufferLines(buffer, 0, 1, false)
	if err != nil {
		return false, err
	}
	return len(lines) == 1 && len(lines[0]) == 0, nil
}

// SetMark places a lowercase mark at a (1-based line, 0-based column)
// position in the current buffer.
func (b *Bridge) SetMark(ctx context.Context, name string, line, col int) (string, error) {
	if !markNamePattern.MatchString(name) {
		return "", validationError("invalid mark name %q: must be a single lowercase letter", name)
	}
	if line < 1 {
		return "", validationError("mark line must be >= 1, got %d", line)
	}
	if col < 0 {
		return "", validationError("mark column must be >= 0, got %d", col)
	}
	err := b.withConn(ctx, "mark "+name, func(conn Conn) error {
		// setpos takes a 1-based byte column.
		return conn.Call("setpos", nil, "'"+name, []int{0, line, col + 1, 0})
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("mark %s set to line %d, column %d", name, line, col), nil
}

// SetRegister stores content in a named register ([a-z] or the
// unnamed register `"`).
func (b *Bridge) SetRegister(ctx context.Context, name, content string) (string, error) {
	if !registerNamePattern.MatchString(name) {
		return "", validationError("invalid register name %q: must match [a-z\"]", name)
	}
	err := b.withConn(ctx, "setreg "+name, func(conn Conn) error {
		return conn.Call("setreg", nil, name, content)
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("register %s set (%d bytes)", name, len(content)), nil
}

// Register reads back the content of a named register. An empty
// register yields empty content, not an error.
func (b *Bridge) Register(ctx context.Context, name string) (string, error) {
	if !registerNamePattern.MatchString(name) {
		return "", validationError("invalid register name %q: must match [a-z\"]", name)
	}
	var content string
	err := b.withConn(ctx, "getreg "+name, func(conn Conn) error {
		return conn.Call("getreg", &content, name)
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

// VisualSelect enters character-wise visual mode over the given
// range. Lines are 1-based, columns 0-based, matching cursor
// positions elsewhere in the bridge.
func (b *Bridge) VisualSelect(ctx context.Context, startLine, startCol, endLine, endCol int) (string, error) {
	if startLine < 1 || endLine < 1 {
		return "", validationError("selection lines must be >= 1")
	}
	if startCol < 0 || endCol < 0 {
		return "", validationError("selection columns must be >= 0")
	}
	if endLine < startLine || (endLine == startLine && endCol < startCol) {
		return "", validationError("selection end precedes start")
	}
	err := b.withConn(ctx, "visual select", func(conn Conn) error {
		window, winErr := conn.CurrentWindow()
		if winErr != nil {
			return winErr
		}
		if posErr := conn.SetWindowCursor(window, [2]int{startLine, startCol}); posErr != nil {
			return posErr
		}
		if _, inputErr := conn.Input("v"); inputErr != nil {
			return inputErr
		}
		// Moving the cursor while visual mode is active extends the
		// selection to the new position.
		return conn.SetWindowCursor(window, [2]int{endLine, endCol})
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("selected %d:%d through %d:%d", startLine, startCol, endLine, endCol), nil
}
