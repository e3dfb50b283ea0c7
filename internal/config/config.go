// Package config loads pipeline description files.
//
// A description is a JSON object listing stages in order:
//
//	{"transforms": [
//	    {"type": "std_dev_clipper", "params": {"threshold": 3, "axis": "time"}},
//	    {"type": "mask_filler", "params": {"profile": "var.npy", "n_varsamples": 64}}
//	]}
//
// Parameter values must be numbers, strings or booleans.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-rfi/rfi/transform"
)

// maxFileSize bounds description files.
const maxFileSize = 1 * 1024 * 1024

var errInvalid = errors.New("invalid pipeline description")

// Stage is one entry of the transforms list.
type Stage struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

// Pipeline is a parsed description file.
type Pipeline struct {
	Transforms []Stage `json:"transforms"`
}

// Load reads and validates the description at path.
func Load(path string) (*Pipeline, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a description. Unknown fields are errors.
func Parse(data []byte) (*Pipeline, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	dec.UseNumber()

	var p Pipeline
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &p, nil
}

// Validate checks that every stage has a type and scalar parameters.
func (p *Pipeline) Validate() error {
	if len(p.Transforms) == 0 {
		return fmt.Errorf("%w: no transforms", errInvalid)
	}
	for i, s := range p.Transforms {
		if s.Type == "" {
			return fmt.Errorf("%w: transform %d has no type", errInvalid, i)
		}
		if _, err := s.params(); err != nil {
			return fmt.Errorf("%w: transform %d (%s): %v", errInvalid, i, s.Type, err)
		}
	}
	return nil
}

func (s Stage) params() (transform.Params, error) {
	p := transform.Params{
		Type: s.Type,
		Num:  make(map[string]float64),
		Str:  make(map[string]string),
		Bool: make(map[string]bool),
	}
	for k, v := range s.Params {
		switch v := v.(type) {
		case json.Number:
			f, err := v.Float64()
			if err != nil {
				return p, fmt.Errorf("param %q: %w", k, err)
			}
			p.Num[k] = f
		case float64:
			p.Num[k] = v
		case int:
			p.Num[k] = float64(v)
		case string:
			p.Str[k] = v
		case bool:
			p.Bool[k] = v
		default:
			return p, fmt.Errorf("param %q: unsupported value %v (%T)", k, v, v)
		}
	}
	return p, nil
}

// Params converts every stage to registry parameters.
func (p *Pipeline) Params() ([]transform.Params, error) {
	out := make([]transform.Params, len(p.Transforms))
	for i, s := range p.Transforms {
		tp, err := s.params()
		if err != nil {
			return nil, fmt.Errorf("transform %d (%s): %w", i, s.Type, err)
		}
		out[i] = tp
	}
	return out, nil
}

// Build constructs the transforms through reg, in order.
func (p *Pipeline) Build(reg *transform.Registry) ([]transform.Transform, error) {
	params, err := p.Params()
	if err != nil {
		return nil, err
	}
	out := make([]transform.Transform, len(params))
	for i, tp := range params {
		t, err := reg.Build(tp)
		if err != nil {
			return nil, fmt.Errorf("transform %d: %w", i, err)
		}
		out[i] = t
	}
	return out, nil
}
