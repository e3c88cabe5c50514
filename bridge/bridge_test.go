// Copyright 2026 The Nvimbridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/neovim/go-client/nvim"
)

// fakeConn is an in-memory stand-in for a Neovim session. Buffer
// line mutation follows the remote API's zero-based, end-exclusive,
// negative-index semantics so that edit round-trips behave like the
// real thing; everything else is scripted per test.
type fakeConn struct {
	lines     [][]byte
	cursor    [2]int
	mode      string
	registers map[string]string
	positions map[string][]int // getpos expr -> [bufnum, lnum, col, off]

	evalResults map[string]any
	luaResults  map[string]any
	execOutputs map[string]string
	execErrs    map[string]error
	callErrs    map[string]error

	errmsg       string // returned for Eval("v:errmsg") after commands
	shellError   int
	systemOutput string

	cwd         string
	bufferName  string
	searchFirst int
	searchTotal int

	commands []string
	execed   []string
	input    []string
	system   []string
	closed   bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		lines:       [][]byte{[]byte("")},
		cursor:      [2]int{1, 0},
		mode:        "n",
		registers:   make(map[string]string),
		positions:   make(map[string][]int),
		evalResults: make(map[string]any),
		luaResults:  make(map[string]any),
		execOutputs: make(map[string]string),
		execErrs:    make(map[string]error),
		callErrs:    make(map[string]error),
		cwd:         "/home/user/project",
	}
}

// newTestBridge wires a bridge to a single fake connection.
func newTestBridge(t *testing.T) (*Bridge, *fakeConn) {
	t.Helper()
	fake := newFakeConn()
	bridge := New(Config{SocketPath: "/tmp/nvim-test"})
	bridge.Logger = slog.New(slog.DiscardHandler)
	bridge.dial = func(path string) (Conn, error) { return fake, nil }
	return bridge, fake
}

// assign copies a scripted value into a result pointer, converting
// compatible kinds the way the msgpack decoder would.
func assign(result, value any) error {
	if result == nil {
		return nil
	}
	target := reflect.ValueOf(result).Elem()
	source := reflect.ValueOf(value)
	if !source.IsValid() {
		return nil
	}
	if source.Type().AssignableTo(target.Type()) {
		target.Set(source)
		return nil
	}
	if source.Type().ConvertibleTo(target.Type()) {
		target.Set(source.Convert(target.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T into %T", value, result)
}

func (f *fakeConn) Command(cmd string) error {
	f.commands = append(f.commands, cmd)
	return nil
}

func (f *fakeConn) Eval(expr string, result any) error {
	switch expr {
	case "v:errmsg":
		return assign(result, f.errmsg)
	case "v:shell_error":
		return assign(result, f.shellError)
	}
	if value, ok := f.evalResults[expr]; ok {
		if err, isErr := value.(error); isErr {
			return err
		}
		return assign(result, value)
	}
	return fmt.Errorf("no scripted eval for %q", expr)
}

func (f *fakeConn) Call(fname string, result any, args ...any) error {
	if err, ok := f.callErrs[fname]; ok {
		return err
	}
	switch fname {
	case "setreg":
		f.registers[args[0].(string)] = args[1].(string)
		return nil
	case "getreg":
		return assign(result, f.registers[args[0].(string)])
	case "setpos":
		pos := args[1].([]int)
		f.positions[args[0].(string)] = pos
		return nil
	case "getpos":
		pos, ok := f.positions[args[0].(string)]
		if !ok {
			pos = []int{0, 0, 0, 0}
		}
		return assign(result, pos)
	case "getcwd":
		return assign(result, f.cwd)
	case "system":
		f.system = append(f.system, args[0].(string))
		return assign(result, f.systemOutput)
	case "fnameescape":
		escaped := strings.ReplaceAll(args[0].(string), " ", `\ `)
		return assign(result, escaped)
	case "search":
		return assign(result, f.searchFirst)
	case "searchcount":
		reflect.ValueOf(result).Elem().FieldByName("Total").SetInt(int64(f.searchTotal))
		return nil
	}
	return fmt.Errorf("no scripted call for %q", fname)
}

func (f *fakeConn) Exec(src string, output bool) (string, error) {
	f.execed = append(f.execed, src)
	if err, ok := f.execErrs[src]; ok {
		return "", err
	}
	return f.execOutputs[src], nil
}

func (f *fakeConn) ExecLua(code string, result any, args ...any) error {
	value, ok := f.luaResults[code]
	if !ok {
		return errors.New("no scripted lua chunk")
	}
	return assign(result, value)
}

func (f *fakeConn) Input(keys string) (int, error) {
	f.input = append(f.input, keys)
	return len(keys), nil
}

func (f *fakeConn) Buffers() ([]nvim.Buffer, error)     { return []nvim.Buffer{1}, nil }
func (f *fakeConn) CurrentBuffer() (nvim.Buffer, error) { return 1, nil }
func (f *fakeConn) SetCurrentBuffer(nvim.Buffer) error  { return nil }

func (f *fakeConn) BufferName(nvim.Buffer) (string, error) { return f.bufferName, nil }

func (f *fakeConn) BufferLineCount(nvim.Buffer) (int, error) { return len(f.lines), nil }

func (f *fakeConn) normalizeIndex(index int) int {
	if index < 0 {
		index = len(f.lines) + 1 + index
	}
	if index < 0 {
		return 0
	}
	if index > len(f.lines) {
		return len(f.lines)
	}
	return index
}

func (f *fakeConn) BufferLines(buffer nvim.Buffer, start, end int, strict bool) ([][]byte, error) {
	start = f.normalizeIndex(start)
	end = f.normalizeIndex(end)
	if end < start {
		end = start
	}
	out := make([][]byte, end-start)
	copy(out, f.lines[start:end])
	return out, nil
}

func (f *fakeConn) SetBufferLines(buffer nvim.Buffer, start, end int, strict bool, replacement [][]byte) error {
	start = f.normalizeIndex(start)
	end = f.normalizeIndex(end)
	if end < start {
		end = start
	}
	updated := make([][]byte, 0, len(f.lines)-(end-start)+len(replacement))
	updated = append(updated, f.lines[:start]...)
	updated = append(updated, replacement...)
	updated = append(updated, f.lines[end:]...)
	if len(updated) == 0 {
		updated = [][]byte{[]byte("")}
	}
	f.lines = updated
	return nil
}

func (f *fakeConn) BufferOption(buffer nvim.Buffer, name string, result any) error {
	switch name {
	case "buflisted":
		return assign(result, true)
	case "modified":
		return assign(result, false)
	case "filetype":
		return assign(result, "go")
	}
	return fmt.Errorf("no scripted option %q", name)
}

func (f *fakeConn) IsBufferLoaded(nvim.Buffer) (bool, error) { return true, nil }

func (f *fakeConn) Windows() ([]nvim.Window, error)                 { return []nvim.Window{1000}, nil }
func (f *fakeConn) CurrentWindow() (nvim.Window, error)             { return 1000, nil }
func (f *fakeConn) WindowCursor(nvim.Window) ([2]int, error)        { return f.cursor, nil }
func (f *fakeConn) WindowBuffer(nvim.Window) (nvim.Buffer, error)   { return 1, nil }
func (f *fakeConn) SetWindowCursor(w nvim.Window, pos [2]int) error { f.cursor = pos; return nil }

func (f *fakeConn) CurrentTabpage() (nvim.Tabpage, error)  { return 1, nil }
func (f *fakeConn) TabpageNumber(nvim.Tabpage) (int, error) { return 1, nil }

func (f *fakeConn) Mode() (*nvim.Mode, error) { return &nvim.Mode{Mode: f.mode}, nil }
func (f *fakeConn) Close() error              { f.closed = true; return nil }

func TestConnectEmptySocketPath(t *testing.T) {
	for _, path := range []string{"", "   ", "\t"} {
		t.Run(fmt.Sprintf("path %q", path), func(t *testing.T) {
			bridge := New(Config{SocketPath: path})
			bridge.Logger = slog.New(slog.DiscardHandler)
			dialed := false
			bridge.dial = func(string) (Conn, error) {
				dialed = true
				return newFakeConn(), nil
			}

			_, err := bridge.Command(context.Background(), "echo 1")
			var connErr *ConnectionError
			if !errors.As(err, &connErr) {
				t.Fatalf("expected ConnectionError, got %v", err)
			}
			if connErr.Err != nil {
				t.Errorf("configuration defect should carry no transport cause, got %v", connErr.Err)
			}
			if dialed {
				t.Error("dial attempted despite empty socket path")
			}
		})
	}
}

func TestConnectTransportFailure(t *testing.T) {
	bridge := New(Config{SocketPath: "/tmp/nowhere"})
	bridge.Logger = slog.New(slog.DiscardHandler)
	cause := errors.New("connection refused")
	bridge.dial = func(string) (Conn, error) { return nil, cause }

	_, err := bridge.Command(context.Background(), "echo 1")
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
	if connErr.Endpoint != "/tmp/nowhere" {
		t.Errorf("endpoint = %q, want /tmp/nowhere", connErr.Endpoint)
	}
	if !errors.Is(err, cause) {
		t.Error("underlying cause not preserved in chain")
	}
}

func TestConnectionClosedAfterOperation(t *testing.T) {
	bridge, fake := newTestBridge(t)
	if _, err := bridge.SendKeys(context.Background(), "jj"); err != nil {
		t.Fatalf("SendKeys failed: %v", err)
	}
	if !fake.closed {
		t.Error("connection not closed after operation")
	}
}

func TestClassifyPreservesKnownKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"connection", &ConnectionError{Endpoint: "/tmp/nvim"}},
		{"command", &CommandError{Command: "write", Message: "E32"}},
		{"validation", &ValidationError{Message: "bad mark"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := classify("op", test.err); got != test.err {
				t.Errorf("classify rewrapped a recognized kind: %v", got)
			}
		})
	}
}

func TestClassifyWrapsUnknownErrors(t *testing.T) {
	raw := errors.New("msgpack decode failure")
	got := classify("status", raw)
	var cmdErr *CommandError
	if !errors.As(got, &cmdErr) {
		t.Fatalf("expected CommandError, got %T", got)
	}
	if cmdErr.Command != "status" {
		t.Errorf("command context = %q, want status", cmdErr.Command)
	}
	if !errors.Is(got, raw) {
		t.Error("original error not preserved in chain")
	}
}
