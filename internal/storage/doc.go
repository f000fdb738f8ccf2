// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides durable client storage for applianceai.
//
// It plays the part a browser's local storage plays for the web client: a
// small string key/value map that survives restarts and holds the auth
// tokens under the fixed keys KeyToken and KeyRefreshToken.
//
// # Key Types
//
//   - Store: the key/value interface every consumer depends on
//   - MemoryStore: process-local map for tests and --ephemeral runs
//   - SQLiteStore: modernc.org/sqlite file, values sealed with AES-256-GCM
//   - Sealer: the AES-256-GCM value cipher
//
// # Usage
//
//	sealer, err := storage.NewSealer(storage.KeyOptions{KeyPath: keyPath})
//	st, err := storage.OpenSQLite(dbPath, sealer)
//	defer st.Close()
//
//	_ = st.Set(ctx, storage.KeyToken, access)
//	token, ok, err := st.Get(ctx, storage.KeyToken)
//
// # Storage Location
//
// The database lives at ~/.applianceai/state.db and the sealing key at
// ~/.applianceai/storage.key unless configured otherwise.
package storage
