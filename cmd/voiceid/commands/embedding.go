package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// readEmbedding loads an embedding vector from a JSON or YAML file. The file
// holds either a bare array of numbers or a map with an "embedding" key, so
// exports from extraction pipelines can be used directly.
func readEmbedding(path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	unmarshal := json.Unmarshal
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		unmarshal = yaml.Unmarshal
	}

	var vec []float32
	if err := unmarshal(data, &vec); err == nil {
		return vec, nil
	}

	var wrapped struct {
		Embedding []float32 `json:"embedding" yaml:"embedding"`
	}
	if err := unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse embedding file %s: %w", path, err)
	}
	if wrapped.Embedding == nil {
		return nil, fmt.Errorf("embedding file %s: no embedding found", path)
	}
	return wrapped.Embedding, nil
}
