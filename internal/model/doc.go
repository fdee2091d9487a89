// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
//
// A Message carries an explicit lifecycle State (pending, streaming,
// complete, failed) rather than independent boolean flags, so a message can
// never be both failed and streaming. The persisted JSON form keeps the
// flag-based layout (isStreaming / error booleans, millisecond timestamps)
// for compatibility with previously saved histories.
package model
