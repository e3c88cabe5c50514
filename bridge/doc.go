// Copyright 2026 The Nvimbridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package bridge translates tool invocations into Neovim msgpack-RPC
// calls over a local socket.
//
// A single [Bridge] instance is constructed at the composition root
// and passed to every operation handler; there is no process-wide
// session state. Each operation dials the configured socket fresh,
// issues one or more primitive remote calls, and closes the
// connection. The remote RPC client library owns the underlying
// socket lifecycle.
//
// Every public operation returns either a success payload or one of
// three error kinds:
//
//   - [*ValidationError]: the caller's arguments fail a domain
//     precondition. No remote call was attempted.
//   - [*ConnectionError]: the configured socket could not be reached.
//     The whole operation aborts.
//   - [*CommandError]: the remote side reported failure for a
//     specific command or action, or an unclassified internal failure
//     occurred while executing one.
//
// No other error type escapes the package.
//
// Read-style operations aggregate many independent remote lookups and
// are best-effort per sub-field: a failed ancillary probe (an LSP
// client list, a single mark) degrades that field to an explicit
// "unavailable" marker instead of failing the snapshot.
package bridge
