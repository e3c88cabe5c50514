// Copyright 2026 The Nvimbridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"testing"
)

func TestStatusSurvivesAncillaryFailures(t *testing.T) {
	// The fake scripts nothing for winlayout, lua probes, or plugin
	// globals, so every ancillary probe fails. The snapshot must
	// still come back whole.
	bridge, fake := newTestBridge(t)
	fake.cursor = [2]int{12, 4}
	fake.mode = "n"
	fake.bufferName = "/home/user/project/main.go"

	status, err := bridge.Status(context.Background())
	if err != nil {
		t.Fatalf("Status must not fail when ancillary probes fail: %v", err)
	}
	if status.CursorLine != 12 || status.CursorCol != 4 {
		t.Errorf("cursor = (%d, %d), want (12, 4)", status.CursorLine, status.CursorCol)
	}
	if status.FileName != "/home/user/project/main.go" {
		t.Errorf("file name = %q", status.FileName)
	}
	if status.WindowLayout != Unavailable {
		t.Errorf("window layout = %q, want %q", status.WindowLayout, Unavailable)
	}
	if status.LSPClients != Unavailable {
		t.Errorf("lsp clients = %q, want %q", status.LSPClients, Unavailable)
	}
	if status.Plugins != "none detected" {
		t.Errorf("plugins = %q", status.Plugins)
	}
	if status.WorkingDirectory != "/home/user/project" {
		t.Errorf("cwd = %q", status.WorkingDirectory)
	}
}

func TestStatusIncludesOnlySetMarksAndRegisters(t *testing.T) {
	bridge, fake := newTestBridge(t)
	fake.positions["'a"] = []int{0, 10, 3, 0}
	fake.positions["'b"] = []int{0, 0, 0, 0} // unset
	fake.registers["q"] = "dd"
	fake.registers["r"] = "" // empty

	status, err := bridge.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if len(status.Marks) != 1 {
		t.Errorf("marks = %v, want only mark a", status.Marks)
	}
	if got := status.Marks["a"]; got.Line != 10 || got.Col != 2 {
		t.Errorf("mark a = %+v, want line 10 col 2", got)
	}
	if len(status.Registers) != 1 || status.Registers["q"] != "dd" {
		t.Errorf("registers = %v, want only q", status.Registers)
	}
}

func TestStatusLSPClients(t *testing.T) {
	bridge, fake := newTestBridge(t)
	fake.luaResults[lspClientNames] = "gopls, lua_ls"

	status, err := bridge.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.LSPClients != "gopls, lua_ls" {
		t.Errorf("lsp clients = %q", status.LSPClients)
	}
}

func TestStatusVisualSelection(t *testing.T) {
	bridge, fake := newTestBridge(t)
	fake.mode = "v"
	fake.lines = [][]byte{[]byte("hello world")}
	fake.positions["v"] = []int{0, 1, 7, 0}
	fake.positions["."] = []int{0, 1, 11, 0}

	status, err := bridge.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.VisualSelection != "world" {
		t.Errorf("visual selection = %q, want world", status.VisualSelection)
	}
}

func TestStatusNoSelectionOutsideVisualMode(t *testing.T) {
	bridge, fake := newTestBridge(t)
	fake.mode = "n"

	status, err := bridge.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.VisualSelection != "" {
		t.Errorf("visual selection = %q, want empty in normal mode", status.VisualSelection)
	}
}

func TestSelectionSingleLine(t *testing.T) {
	bridge, fake := newTestBridge(t)
	fake.mode = "v"
	fake.lines = [][]byte{[]byte("hello world")}
	fake.positions["v"] = []int{0, 1, 1, 0}
	fake.positions["."] = []int{0, 1, 5, 0}

	selection, err := bridge.Selection(context.Background())
	if err != nil {
		t.Fatalf("Selection failed: %v", err)
	}
	if !selection.Active {
		t.Fatal("selection should be active")
	}
	if selection.Text != "hello" {
		t.Errorf("text = %q, want hello", selection.Text)
	}
}

func TestSelectionMultiLine(t *testing.T) {
	bridge, fake := newTestBridge(t)
	fake.mode = "v"
	fake.lines = [][]byte{[]byte("first line"), []byte("middle"), []byte("last line")}
	fake.positions["v"] = []int{0, 1, 7, 0}
	fake.positions["."] = []int{0, 3, 4, 0}

	selection, err := bridge.Selection(context.Background())
	if err != nil {
		t.Fatalf("Selection failed: %v", err)
	}
	if selection.Text != "line\nmiddle\nlast" {
		t.Errorf("text = %q, want first line truncated from start column and last truncated to end column", selection.Text)
	}
}

func TestSelectionReversedEndpointsNormalized(t *testing.T) {
	// Selecting upward: the cursor sits before the anchor.
	bridge, fake := newTestBridge(t)
	fake.mode = "v"
	fake.lines = [][]byte{[]byte("alpha"), []byte("beta")}
	fake.positions["v"] = []int{0, 2, 4, 0}
	fake.positions["."] = []int{0, 1, 1, 0}

	selection, err := bridge.Selection(context.Background())
	if err != nil {
		t.Fatalf("Selection failed: %v", err)
	}
	if selection.Text != "alpha\nbeta" {
		t.Errorf("text = %q, want alpha\\nbeta", selection.Text)
	}
	if selection.StartLine != 1 || selection.EndLine != 2 {
		t.Errorf("range = %d..%d, want 1..2", selection.StartLine, selection.EndLine)
	}
}

func TestSelectionFromMarksAfterLeavingVisual(t *testing.T) {
	bridge, fake := newTestBridge(t)
	fake.mode = "n"
	fake.lines = [][]byte{[]byte("hello world")}
	fake.positions["'<"] = []int{0, 1, 7, 0}
	fake.positions["'>"] = []int{0, 1, 11, 0}

	selection, err := bridge.Selection(context.Background())
	if err != nil {
		t.Fatalf("Selection failed: %v", err)
	}
	if !selection.Active || selection.Text != "world" {
		t.Errorf("selection = %+v, want active with text world", selection)
	}
}

func TestSelectionNone(t *testing.T) {
	bridge, fake := newTestBridge(t)
	fake.mode = "n"

	selection, err := bridge.Selection(context.Background())
	if err != nil {
		t.Fatalf("no selection must be a success result: %v", err)
	}
	if selection.Active {
		t.Errorf("selection = %+v, want inactive", selection)
	}
}

func TestSelectionColumnClamped(t *testing.T) {
	// End-of-line selections report a column one past the last byte.
	bridge, fake := newTestBridge(t)
	fake.mode = "v"
	fake.lines = [][]byte{[]byte("short")}
	fake.positions["v"] = []int{0, 1, 1, 0}
	fake.positions["."] = []int{0, 1, 99, 0}

	selection, err := bridge.Selection(context.Background())
	if err != nil {
		t.Fatalf("Selection failed: %v", err)
	}
	if selection.Text != "short" {
		t.Errorf("text = %q, want whole line", selection.Text)
	}
}

func TestHealthAllProbesFail(t *testing.T) {
	bridge, fake := newTestBridge(t)
	fake.callErrs["getcwd"] = errors.New("probe failed")
	fake.evalResults["&filetype"] = errors.New("probe failed")

	health, err := bridge.Health(context.Background())
	if err != nil {
		t.Fatalf("Health must not fail when every probe fails: %v", err)
	}
	for field, value := range map[string]string{
		"working directory": health.WorkingDirectory,
		"filetype":          health.FileType,
		"lsp":               health.LSPClients,
		"diagnostics":       health.Diagnostics,
		"git":               health.Git,
	} {
		if value != Unavailable {
			t.Errorf("%s = %q, want %q", field, value, Unavailable)
		}
	}
}

func TestHealthGitSummary(t *testing.T) {
	bridge, fake := newTestBridge(t)
	fake.evalResults["&filetype"] = "go"
	fake.luaResults[lspClientNames] = "gopls"
	fake.luaResults["return #vim.diagnostic.get(0)"] = 2
	fake.systemOutput = "## main...origin/main\n M bridge/status.go\n?? notes.txt\n"

	health, err := bridge.Health(context.Background())
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Git != "main...origin/main, 2 changed file(s)" {
		t.Errorf("git = %q", health.Git)
	}
	if health.Diagnostics != "2 in current buffer" {
		t.Errorf("diagnostics = %q", health.Diagnostics)
	}
	if len(fake.system) != 1 {
		t.Fatalf("system calls = %v", fake.system)
	}
	if fake.system[0] != "git -C /home/user/project status --porcelain --branch 2>/dev/null" {
		t.Errorf("git probe = %q", fake.system[0])
	}
}

func TestHealthGitQuotesWorkingDirectory(t *testing.T) {
	bridge, fake := newTestBridge(t)
	fake.cwd = "/home/user/my project"
	fake.evalResults["&filetype"] = "go"
	fake.systemOutput = "## main\n"

	health, err := bridge.Health(context.Background())
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Git != "main, clean" {
		t.Errorf("git = %q", health.Git)
	}
	if fake.system[0] != "git -C '/home/user/my project' status --porcelain --branch 2>/dev/null" {
		t.Errorf("git probe = %q, want the quoted directory", fake.system[0])
	}
}
