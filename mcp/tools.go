// Copyright 2026 The Nvimbridge Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/nvimbridge/nvimbridge/bridge"
)

// Backend is the bridge surface the MCP server drives. Decoupling the
// server from the concrete bridge keeps editor semantics out of this
// package and lets tests substitute a fake.
type Backend interface {
	Command(ctx context.Context, command string) (string, error)
	SendKeys(ctx context.Context, keys string) (string, error)
	Edit(ctx context.Context, request bridge.EditRequest) (string, error)
	SetMark(ctx context.Context, name string, line, col int) (string, error)
	SetRegister(ctx context.Context, name, content string) (string, error)
	Register(ctx context.Context, name string) (string, error)
	Search(ctx context.Context, pattern string) (*bridge.SearchResult, error)
	SearchReplace(ctx context.Context, pattern, replacement string, options bridge.SearchOptions) (string, error)
	VisualSelect(ctx context.Context, startLine, startCol, endLine, endCol int) (string, error)
	Selection(ctx context.Context) (*bridge.Selection, error)
	Window(ctx context.Context, action string) (string, error)
	Macro(ctx context.Context, action, register string, count int) (string, error)
	Tab(ctx context.Context, action, file string) (string, error)
	Fold(ctx context.Context, action string, start, end int) (string, error)
	Jump(ctx context.Context, action string) (string, error)
	Option(ctx context.Context, name string) (string, error)
	SetOption(ctx context.Context, name, value string) (string, error)
	OpenFile(ctx context.Context, path string) (string, error)
	SaveBuffer(ctx context.Context) (string, error)
	SwitchBuffer(ctx context.Context, target string) (string, error)
	DeleteBuffer(ctx context.Context, target string, force bool) (string, error)
	Status(ctx context.Context) (*bridge.Status, error)
	BufferContents(ctx context.Context) (*bridge.BufferSnapshot, error)
	ListBuffers(ctx context.Context) ([]bridge.BufferInfo, error)
	Health(ctx context.Context) (*bridge.Health, error)
}

// tool is one MCP tool: its published description and the handler
// that decodes arguments and forwards to the backend.
type tool struct {
	name        string
	description string
	inputSchema json.RawMessage
	readOnly    bool
	handler     func(ctx context.Context, backend Backend, args json.RawMessage) (string, error)
}

// decode unmarshals tool arguments. Absent arguments decode the zero
// value; malformed JSON is a validation failure.
func decode[T any](args json.RawMessage) (T, error) {
	var params T
	if len(args) == 0 {
		return params, nil
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return params, &bridge.ValidationError{Message: "invalid arguments: " + err.Error()}
	}
	return params, nil
}

// emptySchema is the input schema for tools that take no arguments.
var emptySchema = json.RawMessage(`{"type":"object","properties":{}}`)

func toolTable() []tool {
	return []tool{
		{
			name:        "vim_command",
			description: "Run an ex command in the Neovim session, or a shell command when prefixed with \"!\" (requires shell passthrough to be enabled). Returns the command's output or a confirmation.",
			inputSchema: json.RawMessage(`{"type":"object","properties":{"command":{"type":"string","description":"Ex command, with or without leading colon; prefix with ! for shell"}},"required":["command"]}`),
			handler: func(ctx context.Context, backend Backend, args json.RawMessage) (string, error) {
				params, err := decode[struct {
					Command string `json:"command"`
				}](args)
				if err != nil {
					return "", err
				}
				return backend.Command(ctx, params.Command)
			},
		},
		{
			name:        "vim_status",
			description: "Read the session snapshot: cursor, mode, file, window layout, tab, set marks, non-empty registers, working directory, LSP clients, and the visual selection when one is active.",
			inputSchema: emptySchema,
			readOnly:    true,
			handler: func(ctx context.Context, backend Backend, args json.RawMessage) (string, error) {
				status, err := backend.Status(ctx)
				if err != nil {
					return "", err
				}
				return formatStatus(status), nil
			},
		},
		{
			name:        "vim_buffer",
			description: "Read the current buffer's contents with 1-based line numbers.",
			inputSchema: emptySchema,
			readOnly:    true,
			handler: func(ctx context.Context, backend Backend, args json.RawMessage) (string, error) {
				snapshot, err := backend.BufferContents(ctx)
				if err != nil {
					return "", err
				}
				return formatBuffer(snapshot), nil
			},
		},
		{
			name:        "vim_buffers",
			description: "List all buffers with id, name, listed/loaded/modified flags, filetype, and the windows displaying each.",
			inputSchema: emptySchema,
			readOnly:    true,
			handler: func(ctx context.Context, backend Backend, args json.RawMessage) (string, error) {
				infos, err := backend.ListBuffers(ctx)
				if err != nil {
					return "", err
				}
				return formatBufferList(infos), nil
			},
		},
		{
			name:        "vim_edit",
			description: "Mutate the current buffer: insert lines before startLine, replace lines starting at startLine, or replaceAll contents.",
			inputSchema: json.RawMessage(`{"type":"object","properties":{"mode":{"type":"string","enum":["insert","replace","replaceAll"]},"startLine":{"type":"integer","minimum":1},"lines":{"type":"string","description":"Newline-joined text"}},"required":["mode","lines"]}`),
			handler: func(ctx context.Context, backend Backend, args json.RawMessage) (string, error) {
				params, err := decode[struct {
					Mode      string `json:"mode"`
					StartLine int    `json:"startLine"`
					Lines     string `json:"lines"`
				}](args)
				if err != nil {
					return "", err
				}
				return backend.Edit(ctx, bridge.EditRequest{
					Mode:      bridge.EditMode(params.Mode),
					StartLine: params.StartLine,
					Lines:     params.Lines,
				})
			},
		},
		{
			name:        "vim_window",
			description: "Manage windows: split, vsplit, only, close, next, prev, or focus left/right/up/down.",
			inputSchema: json.RawMessage(`{"type":"object","properties":{"action":{"type":"string","enum":["split","vsplit","only","close","next","prev","left","right","up","down"]}},"required":["action"]}`),
			handler: func(ctx context.Context, backend Backend, args json.RawMessage) (string, error) {
				params, err := decode[struct {
					Action string `json:"action"`
				}](args)
				if err != nil {
					return "", err
				}
				return backend.Window(ctx, params.Action)
			},
		},
		{
			name:        "vim_mark",
			description: "Set a lowercase mark at a 1-based line and 0-based column in the current buffer.",
			inputSchema: json.RawMessage(`{"type":"object","properties":{"mark":{"type":"string","pattern":"^[a-z]$"},"line":{"type":"integer","minimum":1},"column":{"type":"integer","minimum":0}},"required":["mark","line","column"]}`),
			handler: func(ctx context.Context, backend Backend, args json.RawMessage) (string, error) {
				params, err := decode[struct {
					Mark   string `json:"mark"`
					Line   int    `json:"line"`
					Column int    `json:"column"`
				}](args)
				if err != nil {
					return "", err
				}
				return backend.SetMark(ctx, params.Mark, params.Line, params.Column)
			},
		},
		{
			name:        "vim_register",
			description: "Set a register ([a-z] or \") when content is given, otherwise read it back.",
			inputSchema: json.RawMessage(`{"type":"object","properties":{"register":{"type":"string","pattern":"^[a-z\"]$"},"content":{"type":"string"}},"required":["register"]}`),
			handler: func(ctx context.Context, backend Backend, args json.RawMessage) (string, error) {
				params, err := decode[struct {
					Register string  `json:"register"`
					Content  *string `json:"content"`
				}](args)
				if err != nil {
					return "", err
				}
				if params.Content != nil {
					return backend.SetRegister(ctx, params.Register, *params.Content)
				}
				return backend.Register(ctx, params.Register)
			},
		},
		{
			name:        "vim_visual",
			description: "Make a character-wise visual selection from start to end position (1-based lines, 0-based columns).",
			inputSchema: json.RawMessage(`{"type":"object","properties":{"startLine":{"type":"integer","minimum":1},"startColumn":{"type":"integer","minimum":0},"endLine":{"type":"integer","minimum":1},"endColumn":{"type":"integer","minimum":0}},"required":["startLine","startColumn","endLine","endColumn"]}`),
			handler: func(ctx context.Context, backend Backend, args json.RawMessage) (string, error) {
				params, err := decode[struct {
					StartLine   int `json:"startLine"`
					StartColumn int `json:"startColumn"`
					EndLine     int `json:"endLine"`
					EndColumn   int `json:"endColumn"`
				}](args)
				if err != nil {
					return "", err
				}
				return backend.VisualSelect(ctx, params.StartLine, params.StartColumn, params.EndLine, params.EndColumn)
			},
		},
		{
			name:        "vim_selection",
			description: "Read the current visual selection, or the last one left in the '< and '> marks. Reports \"no selection\" when neither exists.",
			inputSchema: emptySchema,
			readOnly:    true,
			handler: func(ctx context.Context, backend Backend, args json.RawMessage) (string, error) {
				selection, err := backend.Selection(ctx)
				if err != nil {
					return "", err
				}
				return formatSelection(selection), nil
			},
		},
		{
			name:        "vim_search",
			description: "Count matches of a vim regex pattern in the current buffer without moving the cursor. No matches is a normal result.",
			inputSchema: json.RawMessage(`{"type":"object","properties":{"pattern":{"type":"string","minLength":1}},"required":["pattern"]}`),
			readOnly:    true,
			handler: func(ctx context.Context, backend Backend, args json.RawMessage) (string, error) {
				params, err := decode[struct {
					Pattern string `json:"pattern"`
				}](args)
				if err != nil {
					return "", err
				}
				result, err := backend.Search(ctx, params.Pattern)
				if err != nil {
					return "", err
				}
				return result.String(), nil
			},
		},
		{
			name:        "vim_search_replace",
			description: "Buffer-wide substitute. Options: ignoreCase, wholeWord, global (all occurrences per line), confirm.",
			inputSchema: json.RawMessage(`{"type":"object","properties":{"pattern":{"type":"string","minLength":1},"replacement":{"type":"string"},"ignoreCase":{"type":"boolean"},"wholeWord":{"type":"boolean"},"global":{"type":"boolean"},"confirm":{"type":"boolean"}},"required":["pattern","replacement"]}`),
			handler: func(ctx context.Context, backend Backend, args json.RawMessage) (string, error) {
				params, err := decode[struct {
					Pattern     string `json:"pattern"`
					Replacement string `json:"replacement"`
					IgnoreCase  bool   `json:"ignoreCase"`
					WholeWord   bool   `json:"wholeWord"`
					Global      bool   `json:"global"`
					Confirm     bool   `json:"confirm"`
				}](args)
				if err != nil {
					return "", err
				}
				return backend.SearchReplace(ctx, params.Pattern, params.Replacement, bridge.SearchOptions{
					IgnoreCase: params.IgnoreCase,
					WholeWord:  params.WholeWord,
					Global:     params.Global,
					Confirm:    params.Confirm,
				})
			},
		},
		{
			name:        "vim_send_keys",
			description: "Queue raw keystrokes into the session. Termcode notation like <Esc> and <C-w> is honored.",
			inputSchema: json.RawMessage(`{"type":"object","properties":{"keys":{"type":"string","minLength":1}},"required":["keys"]}`),
			handler: func(ctx context.Context, backend Backend, args json.RawMessage) (string, error) {
				params, err := decode[struct {
					Keys string `json:"keys"`
				}](args)
				if err != nil {
					return "", err
				}
				return backend.SendKeys(ctx, params.Keys)
			},
		},
		{
			name:        "vim_file_open",
			description: "Open a file in the current window.",
			inputSchema: json.RawMessage(`{"type":"object","properties":{"path":{"type":"string","minLength":1}},"required":["path"]}`),
			handler: func(ctx context.Context, backend Backend, args json.RawMessage) (string, error) {
				params, err := decode[struct {
					Path string `json:"path"`
				}](args)
				if err != nil {
					return "", err
				}
				return backend.OpenFile(ctx, params.Path)
			},
		},
		{
			name:        "vim_file_save",
			description: "Write the current buffer to disk.",
			inputSchema: emptySchema,
			handler: func(ctx context.Context, backend Backend, args json.RawMessage) (string, error) {
				return backend.SaveBuffer(ctx)
			},
		},
		{
			name:        "vim_buffer_switch",
			description: "Switch to a buffer by id, exact name, or file name suffix.",
			inputSchema: json.RawMessage(`{"type":"object","properties":{"target":{"type":"string","minLength":1}},"required":["target"]}`),
			handler: func(ctx context.Context, backend Backend, args json.RawMessage) (string, error) {
				params, err := decode[struct {
					Target string `json:"target"`
				}](args)
				if err != nil {
					return "", err
				}
				return backend.SwitchBuffer(ctx, params.Target)
			},
		},
		{
			name:        "vim_buffer_delete",
			description: "Delete a buffer by id, exact name, or suffix. With force, unsaved changes are discarded.",
			inputSchema: json.RawMessage(`{"type":"object","properties":{"target":{"type":"string","minLength":1},"force":{"type":"boolean"}},"required":["target"]}`),
			handler: func(ctx context.Context, backend Backend, args json.RawMessage) (string, error) {
				params, err := decode[struct {
					Target string `json:"target"`
					Force  bool   `json:"force"`
				}](args)
				if err != nil {
					return "", err
				}
				return backend.DeleteBuffer(ctx, params.Target, params.Force)
			},
		},
		{
			name:        "vim_macro",
			description: "Record into a lowercase register, stop recording, or play a register count times.",
			inputSchema: json.RawMessage(`{"type":"object","properties":{"action":{"type":"string","enum":["record","stop","play"]},"register":{"type":"string","pattern":"^[a-z]$"},"count":{"type":"integer","minimum":1}},"required":["action"]}`),
			handler: func(ctx context.Context, backend Backend, args json.RawMessage) (string, error) {
				params, err := decode[struct {
					Action   string `json:"action"`
					Register string `json:"register"`
					Count    int    `json:"count"`
				}](args)
				if err != nil {
					return "", err
				}
				return backend.Macro(ctx, params.Action, params.Register, params.Count)
			},
		},
		{
			name:        "vim_tab",
			description: "Manage tab pages: new (optionally with a file), close, next, prev, first, last, or list.",
			inputSchema: json.RawMessage(`{"type":"object","properties":{"action":{"type":"string","enum":["new","close","next","prev","first","last","list"]},"file":{"type":"string"}},"required":["action"]}`),
			handler: func(ctx context.Context, backend Backend, args json.RawMessage) (string, error) {
				params, err := decode[struct {
					Action string `json:"action"`
					File   string `json:"file"`
				}](args)
				if err != nil {
					return "", err
				}
				return backend.Tab(ctx, params.Action, params.File)
			},
		},
		{
			name:        "vim_fold",
			description: "Manage folds: create over a line range, open/close/toggle the fold at the cursor, or openAll/closeAll.",
			inputSchema: json.RawMessage(`{"type":"object","properties":{"action":{"type":"string","enum":["create","open","close","openAll","closeAll","toggle"]},"start":{"type":"integer","minimum":1},"end":{"type":"integer","minimum":1}},"required":["action"]}`),
			handler: func(ctx context.Context, backend Backend, args json.RawMessage) (string, error) {
				params, err := decode[struct {
					Action string `json:"action"`
					Start  int    `json:"start"`
					End    int    `json:"end"`
				}](args)
				if err != nil {
					return "", err
				}
				return backend.Fold(ctx, params.Action, params.Start, params.End)
			},
		},
		{
			name:        "vim_jump",
			description: "Navigate the jump list: back, forward, or list.",
			inputSchema: json.RawMessage(`{"type":"object","properties":{"action":{"type":"string","enum":["back","forward","list"]}},"required":["action"]}`),
			handler: func(ctx context.Context, backend Backend, args json.RawMessage) (string, error) {
				params, err := decode[struct {
					Action string `json:"action"`
				}](args)
				if err != nil {
					return "", err
				}
				return backend.Jump(ctx, params.Action)
			},
		},
		{
			name:        "vim_option",
			description: "Read an editor option, or set it when value is given. An empty value turns a boolean option on.",
			inputSchema: json.RawMessage(`{"type":"object","properties":{"name":{"type":"string","pattern":"^[a-z]+$"},"value":{"type":"string"}},"required":["name"]}`),
			handler: func(ctx context.Context, backend Backend, args json.RawMessage) (string, error) {
				params, err := decode[struct {
					Name  string  `json:"name"`
					Value *string `json:"value"`
				}](args)
				if err != nil {
					return "", err
				}
				if params.Value != nil {
					return backend.SetOption(ctx, params.Name, *params.Value)
				}
				return backend.Option(ctx, params.Name)
			},
		},
		{
			name:        "vim_health",
			description: "Best-effort project context: working directory, filetype, LSP clients, diagnostic count, git status.",
			inputSchema: emptySchema,
			readOnly:    true,
			handler: func(ctx context.Context, backend Backend, args json.RawMessage) (string, error) {
				health, err := backend.Health(ctx)
				if err != nil {
					return "", err
				}
				return formatHealth(health), nil
			},
		},
	}
}

// classifyError maps the bridge's three error kinds to errorInfo.
// Connection failures are the only retryable category: the session
// may simply not be listening yet.
func classifyError(err error) *errorInfo {
	var valErr *bridge.ValidationError
	if errors.As(err, &valErr) {
		return &errorInfo{Category: "validation"}
	}
	var connErr *bridge.ConnectionError
	if errors.As(err, &connErr) {
		return &errorInfo{Category: "connection", Retryable: true}
	}
	var cmdErr *bridge.CommandError
	if errors.As(err, &cmdErr) {
		return &errorInfo{Category: "command"}
	}
	// The bridge contract says nothing else escapes; if something
	// does, surface it as a command failure rather than dropping it.
	return &errorInfo{Category: "command"}
}

// describe renders a tool for tools/list.
func (t *tool) describe() toolDescription {
	description := toolDescription{
		Name:        t.name,
		Description: t.description,
		InputSchema: t.inputSchema,
	}
	if t.readOnly {
		yes, no := true, false
		description.Annotations = &toolAnnotations{ReadOnlyHint: &yes, DestructiveHint: &no}
	}
	return description
}

var _ Backend = (*bridge.Bridge)(nil)
