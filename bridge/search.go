// Copyright 2026 The Nvimbridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"fmt"
	"strings"
)

// SearchOptions configures SearchReplace. The zero value matches
// case-sensitively, at any position in a word, replacing the first
// occurrence per line without confirmation.
type SearchOptions struct {
	// IgnoreCase toggles case-insensitive matching (\c).
	IgnoreCase bool
	// WholeWord constrains matches to word boundaries (\< \>).
	WholeWord bool
	// Global replaces all occurrences per line rather than the first.
	Global bool
	// Confirm requests per-occurrence confirmation in the session.
	Confirm bool
}

// SearchResult reports the outcome of a buffer search. Total of zero
// means no matches, which is a successful result.
type SearchResult struct {
	Pattern   string
	Total     int
	FirstLine int
}

// String renders the result as tool output.
func (r *SearchResult) String() string {
	if r.Total == 0 {
		return fmt.Sprintf("no matches for %q", r.Pattern)
	}
	return fmt.Sprintf("%d matches for %q, first at line %d", r.Total, r.Pattern, r.FirstLine)
}

// Search counts matches of a vim regex pattern in the current buffer
// without moving the cursor. A pattern that matches nothing is a
// successful "no matches" result, never an error.
func (b *Bridge) Search(ctx context.Context, pattern string) (*SearchResult, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, validationError("search pattern must not be empty")
	}

	result := &SearchResult{Pattern: pattern}
	err := b.withConn(ctx, "search "+pattern, func(conn Conn) error {
		// search() with 'n' does not move the cursor, 'w' wraps.
		if callErr := conn.Call("search", &result.FirstLine, pattern, "nw"); callErr != nil {
			return callErr
		}
		if result.FirstLine == 0 {
			return nil
		}
		// searchcount is a newer primitive; when the probe fails the
		// result degrades to "at least one match".
		var count struct {
			Total      int `msgpack:"total"`
			Incomplete int `msgpack:"incomplete"`
		}
		countArgs := map[string]any{"pattern": pattern, "recompute": 1, "maxcount": 0}
		if callErr := conn.Call("searchcount", &count, countArgs); callErr != nil {
			b.logger().Warn("searchcount unavailable", "error", callErr)
			result.Total = 1
			return nil
		}
		result.Total = count.Total
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SearchReplace composes and executes one buffer-wide substitute
// command. The pattern and replacement have their "/" delimiters
// escaped; WholeWord and IgnoreCase are expressed as pattern atoms,
// Global and Confirm as substitute flags. The "e" flag makes a
// pattern with no matches a quiet success instead of an error.
func (b *Bridge) SearchReplace(ctx context.Context, pattern, replacement string, options SearchOptions) (string, error) {
	if strings.TrimSpace(pattern) == "" {
		return "", validationError("substitute pattern must not be empty")
	}

	command := substituteCommand(pattern, replacement, options)
	err := b.withConn(ctx, command, func(conn Conn) error {
		_, execErr := execCommand(conn, command)
		return execErr
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("substitute executed: %s", command), nil
}

// substituteCommand builds the ":%s" command text for SearchReplace.
func substituteCommand(pattern, replacement string, options SearchOptions) string {
	escaped := escapeSubstitute(pattern)
	if options.WholeWord {
		escaped = `\<` + escaped + `\>`
	}
	if options.IgnoreCase {
		escaped = `\c` + escaped
	}

	flags := "e"
	if options.Global {
		flags += "g"
	}
	if options.Confirm {
		flags += "c"
	}

	return fmt.Sprintf("%%s/%s/%s/%s", escaped, escapeSubstitute(replacement), flags)
}
