package network

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	corenetwork "github.com/kilianp07/ridepool/core/network"
)

// File is the on-disk description of a road network. Exactly one of Matrix
// or Edges must be set.
type File struct {
	Matrix [][]float64 `yaml:"matrix"`
	Edges  []Edge      `yaml:"edges"`
}

// Build returns the oracle described by f.
func (f File) Build() (corenetwork.Oracle, error) {
	switch {
	case len(f.Matrix) > 0 && len(f.Edges) > 0:
		return nil, fmt.Errorf("network: matrix and edges are mutually exclusive")
	case len(f.Matrix) > 0:
		return NewMatrixOracle(f.Matrix)
	case len(f.Edges) > 0:
		return NewGraphOracle(f.Edges)
	default:
		return nil, fmt.Errorf("network: no matrix or edges defined")
	}
}

// Load reads a network description from a YAML file.
func Load(path string) (corenetwork.Oracle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse network %s: %w", path, err)
	}
	return f.Build()
}
