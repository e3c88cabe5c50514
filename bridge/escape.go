// Copyright 2026 The Nvimbridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// escapeSubstitute escapes the "/" delimiter in text destined for a
// ":s/pattern/replacement/" command. Backslashes pass through
// untouched: both the pattern and the replacement have their own
// backslash grammar (vim regex atoms, \0..\9 back-references) that
// the caller's text is written in.
func escapeSubstitute(text string) string {
	var builder strings.Builder
	builder.Grow(len(text))
	for i := 0; i < len(text); i++ {
		if text[i] == '/' && (i == 0 || text[i-1] != '\\') {
			builder.WriteByte('\\')
		}
		builder.WriteByte(text[i])
	}
	return builder.String()
}

// shellQuote quotes a string for interpolation into POSIX shell
// command text (the git probe built by Health). Returns an error for
// strings no quoting can represent, such as embedded NUL bytes.
func shellQuote(text string) (string, error) {
	return syntax.Quote(text, syntax.LangPOSIX)
}

// escapeOptionValue escapes whitespace and backslashes in a ":set"
// option value, per the command's own backslash-escape grammar.
func escapeOptionValue(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, " ", `\ `)
	return value
}
