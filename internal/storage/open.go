// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import "io"

// Options describes how to open the client store.
type Options struct {
	Path       string
	KeyPath    string
	Passphrase string
	Ephemeral  bool
}

// Open returns the configured Store and a closer for it. Ephemeral stores
// live in memory.
func Open(opts Options) (Store, io.Closer, error) {
	if opts.Ephemeral {
		return NewMemoryStore(), nopCloser{}, nil
	}
	sealer, err := NewSealer(KeyOptions{KeyPath: opts.KeyPath, Passphrase: opts.Passphrase})
	if err != nil {
		return nil, nil, err
	}
	st, err := OpenSQLite(opts.Path, sealer)
	if err != nil {
		return nil, nil, err
	}
	return st, st, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
