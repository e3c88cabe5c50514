// Copyright 2026 The Nvimbridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package mcp exposes the session bridge as MCP tools over JSON-RPC
// 2.0 on newline-delimited stdio.
//
// The server owns request parsing, schema publication, and result
// framing; all editor semantics live behind the [Backend] interface,
// implemented by *bridge.Bridge. Tool arguments arrive
// schema-validated by the client, but the bridge re-validates domain
// preconditions itself, so the handlers here only decode and forward.
//
// Tool failures carry an errorInfo extension block classifying the
// failure (validation, connection, command) so callers can decide
// whether to fix input, retry, or report.
package mcp
