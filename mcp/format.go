// Copyright 2026 The Nvimbridge Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nvimbridge/nvimbridge/bridge"
)

// formatStatus renders the session snapshot as readable text. Maps
// are emitted in sorted key order so output is stable.
func formatStatus(status *bridge.Status) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "cursor: line %d, column %d\n", status.CursorLine, status.CursorCol)
	fmt.Fprintf(&builder, "mode: %s\n", status.Mode)
	fmt.Fprintf(&builder, "file: %s\n", valueOr(status.FileName, "[no name]"))
	fmt.Fprintf(&builder, "tab: %d\n", status.CurrentTab)
	fmt.Fprintf(&builder, "window layout: %s\n", status.WindowLayout)
	fmt.Fprintf(&builder, "working directory: %s\n", status.WorkingDirectory)
	fmt.Fprintf(&builder, "lsp clients: %s\n", status.LSPClients)
	fmt.Fprintf(&builder, "plugins: %s\n", status.Plugins)

	if len(status.Marks) == 0 {
		builder.WriteString("marks: none set\n")
	} else {
		builder.WriteString("marks:\n")
		for _, name := range sortedKeys(status.Marks) {
			mark := status.Marks[name]
			fmt.Fprintf(&builder, "  %s: line %d, column %d\n", name, mark.Line, mark.Col)
		}
	}

	if len(status.Registers) == 0 {
		builder.WriteString("registers: all empty\n")
	} else {
		builder.WriteString("registers:\n")
		for _, name := range sortedKeys(status.Registers) {
			fmt.Fprintf(&builder, "  %s: %q\n", name, status.Registers[name])
		}
	}

	if status.VisualSelection != "" {
		fmt.Fprintf(&builder, "visual selection:\n%s\n", status.VisualSelection)
	}
	return strings.TrimRight(builder.String(), "\n")
}

// formatBuffer renders buffer contents with 1-based line numbers.
func formatBuffer(snapshot *bridge.BufferSnapshot) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "buffer: %s\n", valueOr(snapshot.Name, "[no name]"))
	for line := 1; line <= len(snapshot.Lines); line++ {
		fmt.Fprintf(&builder, "%4d: %s\n", line, snapshot.Lines[line])
	}
	return strings.TrimRight(builder.String(), "\n")
}

func formatBufferList(infos []bridge.BufferInfo) string {
	if len(infos) == 0 {
		return "no buffers"
	}
	var builder strings.Builder
	for _, info := range infos {
		flags := make([]string, 0, 3)
		if info.Listed {
			flags = append(flags, "listed")
		}
		if info.Loaded {
			flags = append(flags, "loaded")
		}
		if info.Modified {
			flags = append(flags, "modified")
		}
		fmt.Fprintf(&builder, "%d: %s [%s]", info.ID, valueOr(info.Name, "[no name]"), strings.Join(flags, ","))
		if info.FileType != "" {
			fmt.Fprintf(&builder, " filetype=%s", info.FileType)
		}
		if len(info.Windows) > 0 {
			fmt.Fprintf(&builder, " windows=%v", info.Windows)
		}
		builder.WriteString("\n")
	}
	return strings.TrimRight(builder.String(), "\n")
}

func formatSelection(selection *bridge.Selection) string {
	if !selection.Active {
		return "no selection"
	}
	return fmt.Sprintf("selection %d:%d through %d:%d\n%s",
		selection.StartLine, selection.StartCol, selection.EndLine, selection.EndCol, selection.Text)
}

func formatHealth(health *bridge.Health) string {
	return strings.Join([]string{
		"working directory: " + health.WorkingDirectory,
		"filetype: " + health.FileType,
		"lsp clients: " + health.LSPClients,
		"diagnostics: " + health.Diagnostics,
		"git: " + health.Git,
	}, "\n")
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
