// Package codec reads and writes solution maps in the supported on-disk
// formats. JSON is the submission format; YAML is the friendlier one for
// hand-written fixtures.
package codec

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"librarium/internal/domain"
)

// Importer interface for reading solution maps from various formats
type Importer interface {
	Parse(r io.Reader) (*domain.SolutionMap, error)
	Format() string
}

// Exporter interface for writing solution maps to various formats
type Exporter interface {
	Export(m *domain.SolutionMap, w io.Writer) error
	Format() string
}

// ForPath picks a codec from the file extension. ".json" and ".yaml"/".yml"
// are supported.
func ForPath(path string) (interface {
	Importer
	Exporter
}, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return NewJSONCodec(), nil
	case ".yaml", ".yml":
		return NewYAMLCodec(), nil
	default:
		return nil, fmt.Errorf("no codec for %q", path)
	}
}

// LoadMap reads and validates a solution map from a file.
func LoadMap(path string) (*domain.SolutionMap, error) {
	c, err := ForPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open map: %w", err)
	}
	defer f.Close()

	m, err := c.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("map %s: %w", path, err)
	}
	return m, nil
}

// SaveMap writes a solution map to a file, format chosen by extension.
func SaveMap(path string, m *domain.SolutionMap) error {
	c, err := ForPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create map file: %w", err)
	}
	defer f.Close()

	return c.Export(m, f)
}
