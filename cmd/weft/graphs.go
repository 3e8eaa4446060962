package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/weftworks/weft/pkg/adapters/memory"
	"github.com/weftworks/weft/pkg/domain"
)

// loadDefinition reads one workflow document. YAML and JSON are both
// accepted; JSON is a YAML subset so one decoder covers both.
func loadDefinition(path string) (*domain.Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow: %w", err)
	}
	var def domain.Definition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("parse workflow %s: %w", path, err)
	}
	if def.ID == "" {
		def.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &def, nil
}

// loadGraphDir fills an in-memory graph store with every .yaml/.yml/.json
// workflow file directly inside dir.
func loadGraphDir(dir string) (*memory.GraphStore, error) {
	store := memory.NewGraphStore()
	if dir == "" {
		return store, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read graph directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".yaml", ".yml", ".json":
		default:
			continue
		}
		def, err := loadDefinition(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if err := store.Save(context.Background(), def); err != nil {
			return nil, fmt.Errorf("store workflow %s: %w", def.ID, err)
		}
	}
	return store, nil
}
