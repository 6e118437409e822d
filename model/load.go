package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// MemConfig mirrors a YAML model file for Mem: entity kinds plus
// initial values.
type MemConfig struct {
	Entities map[string]string  `yaml:"entities"`
	Values   map[string]float64 `yaml:"values"`
}

// LoadMem reads a MemConfig file and builds the Mem it describes.
//
// A Mem loaded this way has no dynamics hooks, so its state is
// piecewise constant between condition boundaries.  That covers
// linting and protocol-level simulation; a real kinetic model plugs
// in behind the Model interface instead.
func LoadMem(filename string) (*Mem, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var cfg MemConfig
	if err = yaml.Unmarshal(bs, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %v", filename, err)
	}

	kinds := make(map[string]EntityKind, len(cfg.Entities))
	for id, kind := range cfg.Entities {
		switch kind {
		case "constant":
			kinds[id] = Constant
		case "differential":
			kinds[id] = Differential
		case "algebraic":
			kinds[id] = Algebraic
		default:
			return nil, fmt.Errorf("%s: entity %s has unknown kind %q", filename, id, kind)
		}
	}

	return NewMem(kinds, cfg.Values), nil
}
