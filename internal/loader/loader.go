// Package loader reads fixture maps off disk for the simulated oracle.
// A fixture is any file internal/codec can parse; a directory of fixtures
// becomes a problem catalog keyed by filename.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"librarium/internal/codec"
	"librarium/internal/domain"
)

// Load reads and validates a single fixture map.
func Load(path string) (*domain.SolutionMap, error) {
	return codec.LoadMap(path)
}

// LoadCatalog builds a problem catalog from path. A single file yields one
// problem named after the file; a directory yields one problem per fixture
// file in it, non-recursively. Problem names are the file basenames without
// extension.
func LoadCatalog(path string) (map[string]*domain.SolutionMap, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat fixture path: %w", err)
	}

	catalog := make(map[string]*domain.SolutionMap)
	if !info.IsDir() {
		m, err := Load(path)
		if err != nil {
			return nil, err
		}
		catalog[problemName(path)] = m
		return catalog, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !isFixture(entry.Name()) {
			continue
		}
		full := filepath.Join(path, entry.Name())
		m, err := Load(full)
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", entry.Name(), err)
		}
		name := problemName(full)
		if _, dup := catalog[name]; dup {
			return nil, fmt.Errorf("duplicate problem name %q in %s", name, path)
		}
		catalog[name] = m
	}
	if len(catalog) == 0 {
		return nil, fmt.Errorf("no fixtures found in %s", path)
	}
	return catalog, nil
}

func isFixture(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func problemName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
