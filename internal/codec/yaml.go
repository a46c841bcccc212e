package codec

import (
	"fmt"
	"io"

	"librarium/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// Parse imports a solution map from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*domain.SolutionMap, error) {
	var m domain.SolutionMap
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &m, nil
}

// Export exports a solution map to YAML
func (c *YAMLCodec) Export(m *domain.SolutionMap, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(m); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
