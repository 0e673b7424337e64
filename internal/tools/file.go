// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// YAML FILE CATALOG
// =============================================================================

// ErrEmptyCatalog is returned when a catalog file defines no tools.
var ErrEmptyCatalog = errors.New("catalog defines no tools")

// catalogFile is the on-disk layout.
//
//	tools:
//	  - name: search_leads
//	    group: read
//	    risk: low
//	    description: Search leads.
//	    schema:
//	      parameters:
//	        - {name: query, type: string}
type catalogFile struct {
	Tools []catalogEntry `yaml:"tools"`
}

type catalogEntry struct {
	Tool `yaml:",inline"`
	Risk string `yaml:"risk"`
}

// FileCatalog is a Catalog backed by a YAML file that can be hot-reloaded.
type FileCatalog struct {
	path   string
	logger *slog.Logger

	mu    sync.RWMutex
	tools []Tool
}

// LoadFileCatalog reads and validates the catalog at path.
func LoadFileCatalog(path string, logger *slog.Logger) (*FileCatalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fc := &FileCatalog{path: path, logger: logger}
	if err := fc.Reload(); err != nil {
		return nil, err
	}
	return fc, nil
}

// ParseCatalog decodes a YAML catalog document.
func ParseCatalog(data []byte) ([]Tool, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(f.Tools) == 0 {
		return nil, ErrEmptyCatalog
	}
	seen := make(map[string]bool, len(f.Tools))
	out := make([]Tool, 0, len(f.Tools))
	for i, e := range f.Tools {
		if e.Name == "" {
			return nil, fmt.Errorf("catalog entry %d: missing name", i)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("catalog entry %d: duplicate tool %q", i, e.Name)
		}
		seen[e.Name] = true
		t := e.Tool
		t.RiskLevel = ParseRiskLevel(e.Risk)
		out = append(out, t)
	}
	return out, nil
}

// Reload re-reads the file. On error the previous tool list is kept.
func (fc *FileCatalog) Reload() error {
	data, err := os.ReadFile(fc.path)
	if err != nil {
		return fmt.Errorf("read catalog %s: %w", fc.path, err)
	}
	list, err := ParseCatalog(data)
	if err != nil {
		return fmt.Errorf("%s: %w", fc.path, err)
	}
	fc.mu.Lock()
	fc.tools = list
	fc.mu.Unlock()
	return nil
}

// Tools returns a copy of the current tool list.
func (fc *FileCatalog) Tools() []Tool {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	out := make([]Tool, len(fc.tools))
	copy(out, fc.tools)
	return out
}

// Path returns the backing file path.
func (fc *FileCatalog) Path() string {
	return fc.path
}

// Watch reloads the catalog whenever the file changes until ctx is done.
// The parent directory is watched so editors that replace the file by
// rename are picked up. Bursts of events are collapsed by debounce.
func (fc *FileCatalog) Watch(ctx context.Context, debounce time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(fc.path)); err != nil {
		watcher.Close()
		return err
	}

	go fc.processEvents(ctx, watcher, debounce)
	return nil
}

func (fc *FileCatalog) processEvents(ctx context.Context, watcher *fsnotify.Watcher, debounce time.Duration) {
	defer watcher.Close()

	target := filepath.Clean(fc.path)
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := fc.Reload(); err != nil {
				fc.logger.Warn("CATALOG: reload failed, keeping previous catalog",
					slog.String("path", fc.path),
					slog.String("error", err.Error()),
				)
				continue
			}
			fc.logger.Info("CATALOG: reloaded",
				slog.String("path", fc.path),
				slog.Int("tools", len(fc.Tools())),
			)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			fc.logger.Warn("CATALOG: watcher error", slog.String("error", err.Error()))
		}
	}
}
