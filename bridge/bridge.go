// Copyright 2026 The Nvimbridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"log/slog"
	"strings"
)

// DefaultSocketPath is the conventional Neovim listen address used
// when no socket path is configured (nvim --listen /tmp/nvim).
const DefaultSocketPath = "/tmp/nvim"

// Config holds the bridge's runtime configuration. It is read once
// per connection attempt, so callers may swap the value between
// operations.
type Config struct {
	// SocketPath is the Unix socket (or host:port) where the Neovim
	// session listens. Empty or whitespace-only paths fail connect().
	SocketPath string

	// AllowShell gates "!" shell passthrough in the Command
	// operation. When false, shell commands return an informational
	// result and are never forwarded to the remote process.
	AllowShell bool
}

// Bridge translates tool invocations into primitive Neovim RPC calls.
// One instance is constructed at the composition root and passed to
// every operation handler. It holds no mutable shared state: each
// operation dials the configured socket fresh and closes it on return.
type Bridge struct {
	// Config is consulted at the start of every operation.
	Config Config

	// Logger receives structured log output. If nil, slog.Default()
	// is used. Per-operation events are logged at Debug level;
	// degraded snapshot fields at Warn.
	Logger *slog.Logger

	// dial opens a connection to the remote session. Overridden in
	// tests with a scripted fake.
	dial func(path string) (Conn, error)
}

// New creates a bridge with the given configuration.
func New(config Config) *Bridge {
	return &Bridge{Config: config, dial: dialNvim}
}

// logger returns the configured logger or the default.
func (b *Bridge) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

// connect establishes a fresh session handle. An empty or whitespace
// socket path is a configuration defect and fails with a
// ConnectionError carrying no underlying cause, distinguishing it
// from a transport failure. connect does not retry; callers dial once
// per logical operation and surface failure immediately.
func (b *Bridge) connect() (Conn, error) {
	path := b.Config.SocketPath
	if strings.TrimSpace(path) == "" {
		return nil, &ConnectionError{Endpoint: path}
	}
	conn, err := b.dial(path)
	if err != nil {
		return nil, connectionError(path, err)
	}
	return conn, nil
}

// withConn runs fn against a fresh connection and normalizes whatever
// it returns: the three recognized error kinds pass through, anything
// else is wrapped as a CommandError identified by op. This is the
// outer boundary of every bridge operation — no raw error escapes it.
func (b *Bridge) withConn(ctx context.Context, op string, fn func(Conn) error) error {
	if err := ctx.Err(); err != nil {
		return commandError(op, err)
	}
	conn, err := b.connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	b.logger().Debug("bridge operation", "op", op, "socket", b.Config.SocketPath)
	return classify(op, fn(conn))
}

// execCommand runs one ex command and surfaces Neovim's out-of-band
// error channel: v:errmsg is cleared before execution and re-read
// after, because many command failures set it without failing the RPC
// call itself.
func execCommand(conn Conn, command string) (string, error) {
	if err := conn.Command("let v:errmsg = ''"); err != nil {
		return "", commandError(command, err)
	}
	output, err := conn.Exec(command, true)
	if err != nil {
		return "", commandError(command, err)
	}
	var errmsg string
	if err := conn.Eval("v:errmsg", &errmsg); err == nil && errmsg != "" {
		return "", &CommandError{Command: command, Message: errmsg}
	}
	return output, nil
}
