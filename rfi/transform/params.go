package transform

import (
	"math"
	"strings"
)

// Params holds the parsed parameters for one pipeline stage.
type Params struct {
	Type string
	Num  map[string]float64
	Str  map[string]string
	Bool map[string]bool
}

// GetNum safely extracts a numeric parameter, returning def if missing or invalid.
func (p Params) GetNum(key string, def float64) float64 {
	if p.Num == nil {
		return def
	}

	v, ok := p.Num[key]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}

	return v
}

// GetInt is GetNum truncated toward zero.
func (p Params) GetInt(key string, def int) int {
	v := p.GetNum(key, math.NaN())
	if math.IsNaN(v) {
		return def
	}
	return int(v)
}

// GetStr returns a string parameter, or def when missing or blank.
func (p Params) GetStr(key, def string) string {
	v, ok := p.Str[key]
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// GetBool returns a boolean parameter, or def when missing.
func (p Params) GetBool(key string, def bool) bool {
	v, ok := p.Bool[key]
	if !ok {
		return def
	}
	return v
}

// Has reports whether key was supplied with any type.
func (p Params) Has(key string) bool {
	if _, ok := p.Num[key]; ok {
		return true
	}
	if _, ok := p.Str[key]; ok {
		return true
	}
	_, ok := p.Bool[key]
	return ok
}
