// Copyright 2026 The Nvimbridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"fmt"
	"strings"
)

// Unavailable marks a snapshot sub-field whose probe failed. The
// snapshot itself still succeeds; only the field degrades.
const Unavailable = "unavailable"

// MarkPosition is a mark's location: 1-based line, 0-based column.
type MarkPosition struct {
	Line int
	Col  int
}

// Status is a composite snapshot of the session, built fresh per
// call and never persisted. Every sub-field is best-effort: a failed
// probe leaves its zero value or the Unavailable marker, and the
// snapshot as a whole still succeeds.
type Status struct {
	CursorLine       int
	CursorCol        int
	Mode             string
	FileName         string
	WindowLayout     string
	CurrentTab       int
	Marks            map[string]MarkPosition
	Registers        map[string]string
	WorkingDirectory string
	LSPClients       string
	Plugins          string
	// VisualSelection is populated only when Mode indicates an
	// active visual or select mode.
	VisualSelection string
}

// lspClientNames concatenates the names of attached LSP clients.
// get_active_clients was renamed to get_clients in newer releases;
// the fallback keeps the probe working on both.
const lspClientNames = `
local get = vim.lsp.get_clients or vim.lsp.get_active_clients
local names = {}
for _, client in pairs(get()) do
  names[#names + 1] = client.name
end
return table.concat(names, ", ")
`

// pluginProbes maps a display name to the global variable a loaded
// plugin conventionally sets. Detection is string sniffing by nature
// and always degrades gracefully.
var pluginProbes = map[string]string{
	"fugitive":   "g:loaded_fugitive",
	"nvim-tree":  "g:loaded_nvim_tree",
	"telescope":  "g:loaded_telescope",
	"treesitter": "g:loaded_nvim_treesitter",
}

// Status assembles the full session snapshot. Only connection
// failures abort it; every sub-field tolerates its own probe failing.
func (b *Bridge) Status(ctx context.Context) (*Status, error) {
	status := &Status{
		Marks:     make(map[string]MarkPosition),
		Registers: make(map[string]string),
	}
	err := b.withConn(ctx, "status", func(conn Conn) error {
		b.collectCursor(conn, status)
		b.collectMode(conn, status)
		b.collectLayout(conn, status)
		b.collectMarks(conn, status)
		b.collectRegisters(conn, status)
		b.collectEnvironment(conn, status)

		if isSelectionMode(status.Mode) {
			if selection, selErr := readSelection(conn, status.Mode); selErr == nil && selection.Active {
				status.VisualSelection = selection.Text
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

func (b *Bridge) collectCursor(conn Conn, status *Status) {
	window, err := conn.CurrentWindow()
	if err != nil {
		b.logger().Warn("cursor probe failed", "error", err)
		return
	}
	if pos, posErr := conn.WindowCursor(window); posErr == nil {
		status.CursorLine = pos[0]
		status.CursorCol = pos[1]
	}
	if buffer, bufErr := conn.CurrentBuffer(); bufErr == nil {
		status.FileName, _ = conn.BufferName(buffer)
	}
}

func (b *Bridge) collectMode(conn Conn, status *Status) {
	mode, err := conn.Mode()
	if err != nil {
		status.Mode = Unavailable
		return
	}
	status.Mode = mode.Mode
}

func (b *Bridge) collectLayout(conn Conn, status *Status) {
	if err := conn.Eval("string(winlayout())", &status.WindowLayout); err != nil {
		status.WindowLayout = Unavailable
	}
	tabpage, err := conn.CurrentTabpage()
	if err != nil {
		return
	}
	status.CurrentTab, _ = conn.TabpageNumber(tabpage)
}

// collectMarks reads the lowercase marks. Only marks that are
// actually set (line > 0) appear; absence is not an error, and a
// failed read of one mark does not stop the scan.
func (b *Bridge) collectMarks(conn Conn, status *Status) {
	for name := 'a'; name <= 'z'; name++ {
		var pos []int
		if err := conn.Call("getpos", &pos, "'"+string(name)); err != nil || len(pos) < 3 {
			continue
		}
		if pos[1] > 0 {
			status.Marks[string(name)] = MarkPosition{Line: pos[1], Col: pos[2] - 1}
		}
	}
}

// collectRegisters reads the lowercase registers plus the unnamed
// register, keeping only non-empty ones.
func (b *Bridge) collectRegisters(conn Conn, status *Status) {
	names := []string{`"`}
	for name := 'a'; name <= 'z'; name++ {
		names = append(names, string(name))
	}
	for _, name := range names {
		var content string
		if err := conn.Call("getreg", &content, name); err != nil {
			continue
		}
		if content != "" {
			status.Registers[name] = content
		}
	}
}

func (b *Bridge) collectEnvironment(conn Conn, status *Status) {
	if err := conn.Call("getcwd", &status.WorkingDirectory); err != nil {
		status.WorkingDirectory = Unavailable
	}

	if err := conn.ExecLua(lspClientNames, &status.LSPClients); err != nil {
		status.LSPClients = Unavailable
	} else if status.LSPClients == "" {
		status.LSPClients = "none"
	}

	var loaded []string
	for name, variable := range pluginProbes {
		var exists int
		if err := conn.Eval(fmt.Sprintf("exists('%s')", variable), &exists); err == nil && exists == 1 {
			loaded = append(loaded, name)
		}
	}
	if len(loaded) == 0 {
		status.Plugins = "none detected"
	} else {
		status.Plugins = strings.Join(loaded, ", ")
	}
}

// Selection is the session's visual selection. When Active is false
// no selection exists and the other fields are zero — an explicit
// "no selection" result, not an error. Lines are 1-based, columns
// 0-based.
type Selection struct {
	Active    bool
	Text      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Selection extracts the current visual selection: the live one when
// a visual mode is active, otherwise the range left behind in the
// '< and '> marks. With neither, it reports no selection.
func (b *Bridge) Selection(ctx context.Context) (*Selection, error) {
	var selection *Selection
	err := b.withConn(ctx, "selection", func(conn Conn) error {
		mode, modeErr := conn.Mode()
		if modeErr != nil {
			return modeErr
		}
		var selErr error
		selection, selErr = readSelection(conn, mode.Mode)
		return selErr
	})
	if err != nil {
		return nil, err
	}
	return selection, nil
}

// isSelectionMode reports whether a mode string indicates an active
// visual or select mode. "\x16" and "\x13" are blockwise visual and
// select (CTRL-V, CTRL-S in mode() notation).
func isSelectionMode(mode string) bool {
	if mode == "" {
		return false
	}
	switch mode[0] {
	case 'v', 'V', 0x16, 's', 'S', 0x13:
		return true
	}
	return false
}

// readSelection resolves selection endpoints and slices the selected
// text out of the buffer. In an active visual mode the endpoints are
// the anchor ("v") and the cursor ("."); otherwise the '< and '>
// marks, when set. getpos columns are 1-based bytes.
func readSelection(conn Conn, mode string) (*Selection, error) {
	startExpr, endExpr := "'<", "'>"
	if isSelectionMode(mode) {
		startExpr, endExpr = "v", "."
	}

	var start, end []int
	if err := conn.Call("getpos", &start, startExpr); err != nil {
		return nil, err
	}
	if err := conn.Call("getpos", &end, endExpr); err != nil {
		return nil, err
	}
	if len(start) < 3 || len(end) < 3 || start[1] == 0 || end[1] == 0 {
		return &Selection{}, nil
	}

	startLine, startCol := start[1], start[2]
	endLine, endCol := end[1], end[2]
	if startLine > endLine || (startLine == endLine && startCol > endCol) {
		startLine, endLine = endLine, startLine
		startCol, endCol = endCol, startCol
	}

	buffer, err := conn.CurrentBuffer()
	if err != nil {
		return nil, err
	}
	lines, err := conn.BufferLines(buffer, startLine-1, endLine, false)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return &Selection{}, nil
	}

	text := sliceSelection(lines, startCol, endCol)
	return &Selection{
		Active:    true,
		Text:      text,
		StartLine: startLine,
		StartCol:  startCol - 1,
		EndLine:   endLine,
		EndCol:    endCol - 1,
	}, nil
}

// sliceSelection cuts the selected text from the fetched line range.
// For a single line the slice is the column range; across lines the
// first line is truncated from its start column, the last to its end
// column, and interior lines are taken whole. Columns are clamped to
// line length, since end-of-line selections report a column one past
// the last byte.
func sliceSelection(lines [][]byte, startCol, endCol int) string {
	clampLow := func(col, length int) int {
		if col < 1 {
			return 0
		}
		if col > length {
			return length
		}
		return col - 1
	}
	clampHigh := func(col, length int) int {
		if col > length {
			return length
		}
		if col < 0 {
			return 0
		}
		return col
	}

	if len(lines) == 1 {
		line := string(lines[0])
		return line[clampLow(startCol, len(line)):clampHigh(endCol, len(line))]
	}

	parts := make([]string, 0, len(lines))
	first := string(lines[0])
	parts = append(parts, first[clampLow(startCol, len(first)):])
	for _, line := range lines[1 : len(lines)-1] {
		parts = append(parts, string(line))
	}
	last := string(lines[len(lines)-1])
	parts = append(parts, last[:clampHigh(endCol, len(last))])
	return strings.Join(parts, "\n")
}

// Health is a best-effort summary of the session's project context.
// Every field degrades independently to Unavailable.
type Health struct {
	WorkingDirectory string
	FileType         string
	LSPClients       string
	Diagnostics      string
	Git              string
}

// Health probes project-level context: working directory, current
// filetype, LSP clients, diagnostic count, and git status. All
// probes are capability checks against a live session and degrade
// gracefully; only a connection failure aborts the call.
func (b *Bridge) Health(ctx context.Context) (*Health, error) {
	health := &Health{}
	err := b.withConn(ctx, "health", func(conn Conn) error {
		if cwdErr := conn.Call("getcwd", &health.WorkingDirectory); cwdErr != nil {
			health.WorkingDirectory = Unavailable
		}

		var filetype any
		if ftErr := conn.Eval("&filetype", &filetype); ftErr != nil {
			health.FileType = Unavailable
		} else {
			health.FileType = fmt.Sprintf("%v", filetype)
			if health.FileType == "" {
				health.FileType = "none"
			}
		}

		if lspErr := conn.ExecLua(lspClientNames, &health.LSPClients); lspErr != nil {
			health.LSPClients = Unavailable
		} else if health.LSPClients == "" {
			health.LSPClients = "none"
		}

		var diagnosticCount int
		if diagErr := conn.ExecLua("return #vim.diagnostic.get(0)", &diagnosticCount); diagErr != nil {
			health.Diagnostics = Unavailable
		} else {
			health.Diagnostics = fmt.Sprintf("%d in current buffer", diagnosticCount)
		}

		health.Git = b.gitSummary(conn, health.WorkingDirectory)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return health, nil
}

// gitSummary runs a read-only git status probe through the session's
// system() call. The working directory is shell-quoted before
// interpolation; git not being installed, or the directory not being
// a repository, degrades to Unavailable.
func (b *Bridge) gitSummary(conn Conn, workingDirectory string) string {
	if workingDirectory == "" || workingDirectory == Unavailable {
		return Unavailable
	}
	quoted, err := shellQuote(workingDirectory)
	if err != nil {
		return Unavailable
	}

	var output string
	probe := "git -C " + quoted + " status --porcelain --branch 2>/dev/null"
	if callErr := conn.Call("system", &output, probe); callErr != nil {
		return Unavailable
	}
	var exitCode int
	if evalErr := conn.Eval("v:shell_error", &exitCode); evalErr != nil || exitCode != 0 {
		return Unavailable
	}

	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	if len(lines) == 0 || !strings.HasPrefix(lines[0], "## ") {
		return Unavailable
	}
	branch := strings.TrimPrefix(lines[0], "## ")
	dirty := len(lines) - 1
	if dirty == 0 {
		return fmt.Sprintf("%s, clean", branch)
	}
	return fmt.Sprintf("%s, %d changed file(s)", branch, dirty)
}
