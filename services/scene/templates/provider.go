// Copyright (C) 2025 Imvino (lyneai@imvino.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package templates loads layer dimension templates from disk.
//
// A template directory contains one JSON file per layer type (tlof.json,
// fato.json, ...), each holding a dimensions object. The provider watches
// the directory and reloads changed files, so template tuning does not
// require a restart. Lookups that miss fall through to the engine's built-in
// catalog at the call site.
package templates

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/imvino/lyneAiBeta/services/scene/datatypes"
)

// =============================================================================
// Directory Provider
// =============================================================================

// DirProvider serves templates from a directory of JSON files. Safe for
// concurrent use.
type DirProvider struct {
	dir     string
	watcher *fsnotify.Watcher

	mu        sync.RWMutex
	templates map[datatypes.LayerType]datatypes.Dimensions
}

// NewDirProvider loads all templates from dir and starts watching it for
// changes. Close must be called to release the watcher.
func NewDirProvider(dir string) (*DirProvider, error) {
	p := &DirProvider{
		dir:       dir,
		templates: map[datatypes.LayerType]datatypes.Dimensions{},
	}
	if err := p.loadAll(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create template watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch template dir %s: %w", dir, err)
	}
	p.watcher = watcher
	go p.watch()

	slog.Info("Template directory loaded", "dir", dir, "templates", p.count())
	return p, nil
}

// TemplateFor returns a copy of the on-disk template for a type. The second
// return is false when no file defines the type.
func (p *DirProvider) TemplateFor(t datatypes.LayerType) (datatypes.Dimensions, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	tmpl, ok := p.templates[t]
	if !ok {
		return nil, false
	}
	return tmpl.Clone(), true
}

// Close stops the directory watcher.
func (p *DirProvider) Close() error {
	if p.watcher == nil {
		return nil
	}
	return p.watcher.Close()
}

func (p *DirProvider) count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.templates)
}

func (p *DirProvider) loadAll() error {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return fmt.Errorf("failed to read template dir %s: %w", p.dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		p.loadFile(filepath.Join(p.dir, entry.Name()))
	}
	return nil
}

// loadFile parses one template file. A broken file is logged and skipped;
// the previously loaded version (if any) stays in effect.
func (p *DirProvider) loadFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("Failed to read template file", "path", path, "error", err)
		return
	}
	var dims datatypes.Dimensions
	if err := json.Unmarshal(data, &dims); err != nil {
		slog.Warn("Failed to parse template file, keeping previous version",
			"path", path, "error", err)
		return
	}

	t := typeFromFilename(path)
	p.mu.Lock()
	p.templates[t] = dims
	p.mu.Unlock()
	slog.Debug("Loaded layer template", "type", t, "path", path)
}

func (p *DirProvider) removeFile(path string) {
	t := typeFromFilename(path)
	p.mu.Lock()
	delete(p.templates, t)
	p.mu.Unlock()
	slog.Info("Removed layer template", "type", t)
}

func (p *DirProvider) watch() {
	for {
		select {
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".json") {
				continue
			}
			switch {
			case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
				p.loadFile(event.Name)
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				p.removeFile(event.Name)
			}
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Template watcher error", "error", err)
		}
	}
}

// typeFromFilename maps "tlof.json" to TLOF. Unknown names become raw
// uppercase identifiers, matching the permissive layer-type handling
// everywhere else.
func typeFromFilename(path string) datatypes.LayerType {
	name := strings.TrimSuffix(filepath.Base(path), ".json")
	if t, ok := datatypes.KnownLayerType(name); ok {
		return t
	}
	return datatypes.LayerType(strings.ToUpper(name))
}
