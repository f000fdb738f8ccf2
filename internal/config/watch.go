// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce is the settle time before a changed file is reloaded.
const DefaultWatchDebounce = 250 * time.Millisecond

// Watch reloads the config file at path whenever it changes and passes the
// result to onChange. Editors often replace files by rename, so the parent
// directory is watched rather than the file itself. Reload errors are
// reported through onChange with a nil Config.
//
// Watch returns once the watcher is registered; events are processed until
// ctx is cancelled.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func(*Config, error)) error {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go watchLoop(ctx, w, filepath.Clean(path), debounce, onChange)
	return nil
}

func watchLoop(ctx context.Context, w *fsnotify.Watcher, path string, debounce time.Duration, onChange func(*Config, error)) {
	defer w.Close()

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
			pending = true

		case <-timer.C:
			pending = false
			cfg, err := LoadFromPath(path)
			if err != nil {
				onChange(nil, err)
				continue
			}
			onChange(cfg, nil)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			onChange(nil, fmt.Errorf("config watcher: %w", err))
		}
	}
}
