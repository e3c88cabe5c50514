// Copyright 2026 The Nvimbridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"github.com/neovim/go-client/nvim"
)

// Conn is the set of primitive remote calls the bridge issues against
// a Neovim session. *nvim.Nvim satisfies it; tests substitute a
// scripted fake. The method set mirrors the msgpack-RPC API surface
// the bridge actually uses, nothing more.
type Conn interface {
	// Command executes an ex command with no output capture.
	Command(cmd string) error
	// Eval evaluates a VimL expression into result.
	Eval(expr string, result any) error
	// Call invokes a VimL function with args, decoding into result.
	Call(fname string, result any, args ...any) error
	// Exec executes multi-line ex commands, optionally capturing output.
	Exec(src string, output bool) (string, error)
	// ExecLua executes a Lua chunk, decoding its return value.
	ExecLua(code string, result any, args ...any) error
	// Input queues raw keystrokes (termcodes like <Esc> are replaced).
	Input(keys string) (int, error)

	Buffers() ([]nvim.Buffer, error)
	BufferName(buffer nvim.Buffer) (string, error)
	BufferLines(buffer nvim.Buffer, start, end int, strict bool) ([][]byte, error)
	SetBufferLines(buffer nvim.Buffer, start, end int, strict bool, replacement [][]byte) error
	BufferLineCount(buffer nvim.Buffer) (int, error)
	BufferOption(buffer nvim.Buffer, name string, result any) error
	IsBufferLoaded(buffer nvim.Buffer) (bool, error)
	CurrentBuffer() (nvim.Buffer, error)
	SetCurrentBuffer(buffer nvim.Buffer) error

	Windows() ([]nvim.Window, error)
	CurrentWindow() (nvim.Window, error)
	WindowCursor(window nvim.Window) ([2]int, error)
	SetWindowCursor(window nvim.Window, pos [2]int) error
	WindowBuffer(window nvim.Window) (nvim.Buffer, error)

	CurrentTabpage() (nvim.Tabpage, error)
	TabpageNumber(tabpage nvim.Tabpage) (int, error)

	Mode() (*nvim.Mode, error)
	Close() error
}

// dialNvim is the production dialer. nvim.Dial accepts a Unix socket
// path or a host:port pair and manages the msgpack stream internally.
func dialNvim(path string) (Conn, error) {
	conn, err := nvim.Dial(path)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
