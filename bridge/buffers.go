// Copyright 2026 The Nvimbridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/neovim/go-client/nvim"
)

// BufferSnapshot is the current buffer's contents keyed by 1-based
// line number, produced fresh on every read.
type BufferSnapshot struct {
	Name  string
	Lines map[int]string
}

// BufferInfo describes one buffer known to the session.
type BufferInfo struct {
	ID       int
	Name     string
	Listed   bool
	Loaded   bool
	Modified bool
	FileType string
	// Windows holds the IDs of windows currently displaying the buffer.
	Windows []int
}

// BufferContents reads the current buffer line by line. Line numbers
// are 1-based; an empty buffer yields a single empty line 1, matching
// the remote model where a buffer always has at least one line.
func (b *Bridge) BufferContents(ctx context.Context) (*BufferSnapshot, error) {
	snapshot := &BufferSnapshot{Lines: make(map[int]string)}
	err := b.withConn(ctx, "buffer contents", func(conn Conn) error {
		buffer, bufErr := conn.CurrentBuffer()
		if bufErr != nil {
			return bufErr
		}
		snapshot.Name, _ = conn.BufferName(buffer)
		lines, linesErr := conn.BufferLines(buffer, 0, -1, false)
		if linesErr != nil {
			return linesErr
		}
		for i, line := range lines {
			snapshot.Lines[i+1] = string(line)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// ListBuffers enumerates all buffers with their flags, detected
// filetype, and the windows displaying them. A failure while probing
// one buffer degrades that buffer's ancillary fields and keeps the
// results already collected; it does not abort the listing.
func (b *Bridge) ListBuffers(ctx context.Context) ([]BufferInfo, error) {
	var infos []BufferInfo
	err := b.withConn(ctx, "list buffers", func(conn Conn) error {
		buffers, bufErr := conn.Buffers()
		if bufErr != nil {
			return bufErr
		}

		// One window scan shared across all buffers. Best-effort: a
		// failed scan leaves every Windows field empty.
		windowsByBuffer := make(map[nvim.Buffer][]int)
		if windows, winErr := conn.Windows(); winErr == nil {
			for _, window := range windows {
				if buffer, wbErr := conn.WindowBuffer(window); wbErr == nil {
					windowsByBuffer[buffer] = append(windowsByBuffer[buffer], int(window))
				}
			}
		} else {
			b.logger().Warn("window scan failed", "error", winErr)
		}

		for _, buffer := range buffers {
			info := BufferInfo{ID: int(buffer), Windows: windowsByBuffer[buffer]}
			info.Name, _ = conn.BufferName(buffer)
			info.Loaded, _ = conn.IsBufferLoaded(buffer)
			if optErr := conn.BufferOption(buffer, "buflisted", &info.Listed); optErr != nil {
				b.logger().Warn("buffer probe failed", "buffer", info.ID, "error", optErr)
			}
			_ = conn.BufferOption(buffer, "modified", &info.Modified)
			_ = conn.BufferOption(buffer, "filetype", &info.FileType)
			infos = append(infos, info)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return infos, nil
}

// SwitchBuffer makes the target buffer current. Target is a
// remote-assigned id, an exact display name, or a file name suffix
// (so "main.go" finds "/home/user/project/main.go").
func (b *Bridge) SwitchBuffer(ctx context.Context, target string) (string, error) {
	if strings.TrimSpace(target) == "" {
		return "", validationError("buffer target must not be empty")
	}
	var name string
	err := b.withConn(ctx, "buffer "+target, func(conn Conn) error {
		buffer, resolveErr := resolveBuffer(conn, target)
		if resolveErr != nil {
			return resolveErr
		}
		if setErr := conn.SetCurrentBuffer(buffer); setErr != nil {
			return setErr
		}
		name, _ = conn.BufferName(buffer)
		return nil
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("switched to buffer %s", name), nil
}

// DeleteBuffer unloads and removes a buffer from the buffer list.
// With force, unsaved changes are discarded.
func (b *Bridge) DeleteBuffer(ctx context.Context, target string, force bool) (string, error) {
	if strings.TrimSpace(target) == "" {
		return "", validationError("buffer target must not be empty")
	}
	err := b.withConn(ctx, "bdelete "+target, func(conn Conn) error {
		buffer, resolveErr := resolveBuffer(conn, target)
		if resolveErr != nil {
			return resolveErr
		}
		command := fmt.Sprintf("bdelete %d", int(buffer))
		if force {
			command = fmt.Sprintf("bdelete! %d", int(buffer))
		}
		_, execErr := execCommand(conn, command)
		return execErr
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("buffer %s deleted", target), nil
}

// resolveBuffer finds a buffer by id, exact name, or name suffix. A
// name probe failure on one buffer skips that buffer rather than
// aborting the scan.
func resolveBuffer(conn Conn, target string) (nvim.Buffer, error) {
	if id, err := strconv.Atoi(target); err == nil {
		return nvim.Buffer(id), nil
	}

	buffers, err := conn.Buffers()
	if err != nil {
		return 0, err
	}

	var suffixMatch nvim.Buffer
	var haveSuffix bool
	for _, buffer := range buffers {
		name, nameErr := conn.BufferName(buffer)
		if nameErr != nil {
			continue
		}
		if name == target {
			return buffer, nil
		}
		if !haveSuffix && strings.HasSuffix(name, target) {
			suffixMatch = buffer
			haveSuffix = true
		}
	}
	if haveSuffix {
		return suffixMatch, nil
	}
	return 0, &CommandError{Command: "buffer " + target, Message: "no buffer matches " + strconv.Quote(target)}
}
