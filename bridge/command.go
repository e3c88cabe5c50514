// Copyright 2026 The Nvimbridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// ShellDisabledMessage is returned by Command for "!"-prefixed input
// when shell passthrough is not enabled. It is an informational
// success result, not an error: the caller asked a question and the
// answer is "not permitted".
const ShellDisabledMessage = "Shell commands are disabled. Enable them with --allow-shell (or ALLOW_SHELL_COMMANDS=true) to run \"!\" commands."

var optionNamePattern = regexp.MustCompile(`^[a-z]+$`)

// Command executes an ex command, or a shell command when the input
// is prefixed with "!". Shell passthrough is gated by
// Config.AllowShell; when disabled the shell text is never forwarded
// to the remote process. Returns the command's captured output, or a
// short confirmation when the command produced none.
func (b *Bridge) Command(ctx context.Context, command string) (string, error) {
	command = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(command), ":"))
	if command == "" {
		return "", validationError("command must not be empty")
	}

	if strings.HasPrefix(command, "!") {
		if !b.Config.AllowShell {
			b.logger().Info("shell command blocked", "command", command)
			return ShellDisabledMessage, nil
		}
		return b.shellCommand(ctx, strings.TrimSpace(command[1:]))
	}

	var output string
	err := b.withConn(ctx, command, func(conn Conn) error {
		var execErr error
		output, execErr = execCommand(conn, command)
		return execErr
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(output) == "" {
		return fmt.Sprintf("command executed: %s", command), nil
	}
	return output, nil
}

// shellCommand runs shell text through Neovim's system() function.
// Routing through system() rather than ":!" keeps the text out of
// ex-command parsing, so "%" and "#" are not expanded to file names
// and no ex-level escaping is needed. Output keeps embedded control
// characters as-is; only the trailing newline is trimmed.
func (b *Bridge) shellCommand(ctx context.Context, shellText string) (string, error) {
	if shellText == "" {
		return "", validationError("shell command must not be empty")
	}

	var output string
	err := b.withConn(ctx, "!"+shellText, func(conn Conn) error {
		if callErr := conn.Call("system", &output, shellText); callErr != nil {
			return callErr
		}
		var exitCode int
		if evalErr := conn.Eval("v:shell_error", &exitCode); evalErr == nil && exitCode != 0 {
			return &CommandError{
				Command: "!" + shellText,
				Message: fmt.Sprintf("exit status %d: %s", exitCode, strings.TrimRight(output, "\n")),
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return strings.TrimRight(output, "\n"), nil
}

// SendKeys queues raw keystrokes into the session. Termcode notation
// like <Esc> and <C-w> is replaced by the remote side.
func (b *Bridge) SendKeys(ctx context.Context, keys string) (string, error) {
	if keys == "" {
		return "", validationError("keys must not be empty")
	}
	err := b.withConn(ctx, "sendkeys", func(conn Conn) error {
		_, inputErr := conn.Input(keys)
		return inputErr
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("sent keys: %q", keys), nil
}

// windowCommands maps Window actions to the ex command that performs
// them. The enumeration is closed; anything else is a validation
// failure.
var windowCommands = map[string]string{
	"split":  "split",
	"vsplit": "vsplit",
	"only":   "only",
	"close":  "close",
	"next":   "wincmd w",
	"prev":   "wincmd W",
	"left":   "wincmd h",
	"right":  "wincmd l",
	"up":     "wincmd k",
	"down":   "wincmd j",
}

// Window performs a window management action: split, vsplit, only,
// close, next, prev, or a directional focus move (left/right/up/down).
func (b *Bridge) Window(ctx context.Context, action string) (string, error) {
	command, ok := windowCommands[action]
	if !ok {
		return "", validationError("unknown window action %q", action)
	}
	err := b.withConn(ctx, command, func(conn Conn) error {
		_, execErr := execCommand(conn, command)
		return execErr
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("window action %q done", action), nil
}

// Option reads the value of an editor option by name.
func (b *Bridge) Option(ctx context.Context, name string) (string, error) {
	if !optionNamePattern.MatchString(name) {
		return "", validationError("invalid option name %q: must match [a-z]+", name)
	}
	var value any
	err := b.withConn(ctx, "option "+name, func(conn Conn) error {
		return conn.Eval("&"+name, &value)
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s=%v", name, value), nil
}

// SetOption sets an editor option. An empty value turns a boolean
// option on (":set name"); otherwise the value is escaped and
// assigned (":set name=value").
func (b *Bridge) SetOption(ctx context.Context, name, value string) (string, error) {
	if !optionNamePattern.MatchString(name) {
		return "", validationError("invalid option name %q: must match [a-z]+", name)
	}
	command := "set " + name
	if value != "" {
		command += "=" + escapeOptionValue(value)
	}
	err := b.withConn(ctx, command, func(conn Conn) error {
		_, execErr := execCommand(conn, command)
		return execErr
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("option set: %s", command), nil
}

// OpenFile opens a file in the current window. The path is escaped by
// the remote fnameescape() so spaces and ex specials in the name
// cannot alter the command.
func (b *Bridge) OpenFile(ctx context.Context, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", validationError("file path must not be empty")
	}
	err := b.withConn(ctx, "edit "+path, func(conn Conn) error {
		var escaped string
		if callErr := conn.Call("fnameescape", &escaped, path); callErr != nil {
			return callErr
		}
		_, execErr := execCommand(conn, "edit "+escaped)
		return execErr
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("opened %s", path), nil
}

// SaveBuffer writes the current buffer to disk.
func (b *Bridge) SaveBuffer(ctx context.Context) (string, error) {
	var name string
	err := b.withConn(ctx, "write", func(conn Conn) error {
		if _, execErr := execCommand(conn, "write"); execErr != nil {
			return execErr
		}
		buffer, bufErr := conn.CurrentBuffer()
		if bufErr != nil {
			return nil // saved; name is cosmetic
		}
		name, _ = conn.BufferName(buffer)
		return nil
	})
	if err != nil {
		return "", err
	}
	if name == "" {
		return "buffer saved", nil
	}
	return fmt.Sprintf("saved %s", name), nil
}
