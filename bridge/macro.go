// Copyright 2026 The Nvimbridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"fmt"
	"strings"
)

// Macro drives register recording and playback. Actions:
//
//   - "record": start recording into a lowercase-letter register.
//   - "stop": stop recording. A no-op when not recording, matching
//     the remote primitive's own behavior.
//   - "play": replay a register count times (count < 1 means once).
//     Valid whether or not a recording is in progress.
func (b *Bridge) Macro(ctx context.Context, action, register string, count int) (string, error) {
	switch action {
	case "record":
		if !markNamePattern.MatchString(register) {
			return "", validationError("macro register %q: must be a single lowercase letter", register)
		}
		return b.macroKeys(ctx, "q"+register, fmt.Sprintf("recording into register %s", register))
	case "stop":
		return b.macroKeys(ctx, "q", "recording stopped")
	case "play":
		if !markNamePattern.MatchString(register) {
			return "", validationError("macro register %q: must be a single lowercase letter", register)
		}
		if count < 1 {
			count = 1
		}
		keys := fmt.Sprintf("%d@%s", count, register)
		return b.macroKeys(ctx, keys, fmt.Sprintf("played register %s %d time(s)", register, count))
	default:
		return "", validationError("unknown macro action %q", action)
	}
}

func (b *Bridge) macroKeys(ctx context.Context, keys, confirmation string) (string, error) {
	err := b.withConn(ctx, "macro "+keys, func(conn Conn) error {
		_, inputErr := conn.Input(keys)
		return inputErr
	})
	if err != nil {
		return "", err
	}
	return confirmation, nil
}

// tabCommands maps Tab actions to ex commands. "new" and "list" are
// handled separately: new takes an optional file, list captures output.
var tabCommands = map[string]string{
	"close": "tabclose",
	"next":  "tabnext",
	"prev":  "tabprevious",
	"first": "tabfirst",
	"last":  "tablast",
}

// Tab performs tab-page management: new, close, next, prev, first,
// last, or list. For "new", file optionally names a file to open in
// the new tab.
func (b *Bridge) Tab(ctx context.Context, action, file string) (string, error) {
	switch action {
	case "new":
		command := "tabnew"
		err := b.withConn(ctx, command, func(conn Conn) error {
			if file != "" {
				var escaped string
				if callErr := conn.Call("fnameescape", &escaped, file); callErr != nil {
					return callErr
				}
				command += " " + escaped
			}
			_, execErr := execCommand(conn, command)
			return execErr
		})
		if err != nil {
			return "", err
		}
		return "tab opened", nil
	case "list":
		var output string
		err := b.withConn(ctx, "tabs", func(conn Conn) error {
			var execErr error
			output, execErr = execCommand(conn, "tabs")
			return execErr
		})
		if err != nil {
			return "", err
		}
		return output, nil
	default:
		command, ok := tabCommands[action]
		if !ok {
			return "", validationError("unknown tab action %q", action)
		}
		err := b.withConn(ctx, command, func(conn Conn) error {
			_, execErr := execCommand(conn, command)
			return execErr
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("tab action %q done", action), nil
	}
}

// Fold manages folds in the current buffer. "create" folds a 1-based
// line range; open/close act on the fold under the cursor; openAll
// and closeAll act buffer-wide; toggle flips the fold under the
// cursor.
func (b *Bridge) Fold(ctx context.Context, action string, start, end int) (string, error) {
	var command string
	switch action {
	case "create":
		if start < 1 || end < start {
			return "", validationError("fold range %d-%d: need 1 <= start <= end", start, end)
		}
		command = fmt.Sprintf("%d,%dfold", start, end)
	case "open":
		command = "foldopen"
	case "close":
		command = "foldclose"
	case "openAll":
		command = "%foldopen!"
	case "closeAll":
		command = "%foldclose!"
	case "toggle":
		return b.macroKeys(ctx, "za", "fold toggled")
	default:
		return "", validationError("unknown fold action %q", action)
	}

	err := b.withConn(ctx, command, func(conn Conn) error {
		_, execErr := execCommand(conn, command)
		return execErr
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("fold action %q done", action), nil
}

// Jump navigates the jump list: "back" (<C-o>), "forward" (<C-i>),
// or "list" to render the jump list.
func (b *Bridge) Jump(ctx context.Context, action string) (string, error) {
	switch action {
	case "back":
		return b.macroKeys(ctx, "<C-o>", "jumped back")
	case "forward":
		return b.macroKeys(ctx, "<C-i>", "jumped forward")
	case "list":
		var output string
		err := b.withConn(ctx, "jumps", func(conn Conn) error {
			var execErr error
			output, execErr = execCommand(conn, "jumps")
			return execErr
		})
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(output) == "" {
			return "jump list is empty", nil
		}
		return output, nil
	default:
		return "", validationError("unknown jump action %q", action)
	}
}
