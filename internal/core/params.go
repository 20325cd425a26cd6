package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Params is the decoded parameter blob of a request.
type Params map[string]any

// ParseParams decodes a parameter blob. An empty blob is an empty object.
func ParseParams(blob string) (Params, error) {
	blob = strings.TrimSpace(blob)
	if blob == "" {
		return Params{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(blob)))
	var p map[string]any
	if err := dec.Decode(&p); err != nil {
		return nil, &InvalidRequestError{Message: "params must be a JSON object", Cause: err}
	}
	if dec.More() {
		return nil, &InvalidRequestError{Message: "params must be a single JSON object"}
	}
	if p == nil {
		return nil, &InvalidRequestError{Message: "params must be a JSON object, got null"}
	}
	return p, nil
}

// Merge returns defaults overlaid with p; keys in p win.
func (p Params) Merge(defaults map[string]any) Params {
	out := make(Params, len(p)+len(defaults))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range p {
		out[k] = v
	}
	return out
}

func (p Params) lookup(name string, aliases []string) (any, string, bool) {
	if v, ok := p[name]; ok && v != nil {
		return v, name, true
	}
	for _, a := range aliases {
		if v, ok := p[a]; ok && v != nil {
			return v, a, true
		}
	}
	return nil, name, false
}

// String reads a string parameter, falling back to aliases then def.
func (p Params) String(name, def string, aliases ...string) (string, error) {
	v, key, ok := p.lookup(name, aliases)
	if !ok {
		return def, nil
	}
	s, isStr := v.(string)
	if !isStr {
		return "", NewParamError(key, fmt.Sprintf("expected string, got %T", v))
	}
	return s, nil
}

// Int reads an integer parameter. Integral JSON numbers and numeric strings are accepted.
func (p Params) Int(name string, def int, aliases ...string) (int, error) {
	v, key, ok := p.lookup(name, aliases)
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, NewParamError(key, fmt.Sprintf("expected integer, got %v", n))
		}
		return int(n), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, NewParamError(key, "expected integer")
		}
		return int(i), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, NewParamError(key, fmt.Sprintf("expected integer, got %q", n))
		}
		return i, nil
	}
	return 0, NewParamError(key, fmt.Sprintf("expected integer, got %T", v))
}

// Float reads a numeric parameter.
func (p Params) Float(name string, def float64, aliases ...string) (float64, error) {
	v, key, ok := p.lookup(name, aliases)
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, NewParamError(key, "expected number")
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, NewParamError(key, fmt.Sprintf("expected number, got %q", n))
		}
		return f, nil
	}
	return 0, NewParamError(key, fmt.Sprintf("expected number, got %T", v))
}

// Bool reads a boolean parameter.
func (p Params) Bool(name string, def bool, aliases ...string) (bool, error) {
	v, key, ok := p.lookup(name, aliases)
	if !ok {
		return def, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, NewParamError(key, fmt.Sprintf("expected boolean, got %q", b))
		}
		return parsed, nil
	}
	return false, NewParamError(key, fmt.Sprintf("expected boolean, got %T", v))
}
