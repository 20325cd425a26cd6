package command

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v2"
)

const descriptorSchema = `{
  "type": "object",
  "required": ["name", "command"],
  "additionalProperties": false,
  "properties": {
    "name": {"type": "string", "pattern": "^[a-z0-9][a-z0-9_-]*$"},
    "description": {"type": "string"},
    "command": {"type": "string", "minLength": 1},
    "args": {"type": "array", "items": {"type": "string"}},
    "timeout": {"type": "string", "pattern": "^[0-9]+(ms|s|m)$"},
    "params": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "type": {"enum": ["string", "integer", "number", "boolean"]},
          "default": {},
          "required": {"type": "boolean"},
          "description": {"type": "string"}
        }
      }
    }
  }
}`

// ParamDecl declares one parameter a command accepts.
type ParamDecl struct {
	Type        string `json:"type"`
	Default     any    `json:"default"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
}

// Descriptor declares an external command exposed as a technology.
type Descriptor struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Command     string               `json:"command"`
	Args        []string             `json:"args"`
	Timeout     string               `json:"timeout"`
	Params      map[string]ParamDecl `json:"params"`

	timeout time.Duration
}

var schema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("descriptor.json", strings.NewReader(descriptorSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	s, err := compiler.Compile("descriptor.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return s, nil
})

// ParseDescriptor decodes and validates one YAML descriptor.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	b, err := json.Marshal(normalize(raw))
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}

	s, err := schema()
	if err != nil {
		return nil, err
	}
	if err := s.Validate(doc); err != nil {
		return nil, fmt.Errorf("descriptor does not match schema: %w", err)
	}

	var d Descriptor
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("decode descriptor: %w", err)
	}
	d.timeout = 60 * time.Second
	if d.Timeout != "" {
		if d.timeout, err = time.ParseDuration(d.Timeout); err != nil {
			return nil, fmt.Errorf("timeout: %w", err)
		}
	}
	return &d, nil
}

// LoadDir reads every *.yaml / *.yml descriptor in dir. Invalid files are logged and skipped.
func LoadDir(dir string) ([]*Descriptor, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read plugin dir: %w", err)
	}
	var out []*Descriptor
	seen := map[string]string{}
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("plugins.read.fail", "file", path, "err", err)
			continue
		}
		d, err := ParseDescriptor(data)
		if err != nil {
			slog.Warn("plugins.invalid", "file", path, "err", err)
			continue
		}
		if prev, dup := seen[d.Name]; dup {
			slog.Warn("plugins.duplicate", "name", d.Name, "file", path, "first", prev)
			continue
		}
		seen[d.Name] = path
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// yaml.v2 decodes maps as map[interface{}]interface{}; JSON needs string keys.
func normalize(v any) any {
	switch t := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalize(val)
		}
		return m
	case []any:
		for i := range t {
			t[i] = normalize(t[i])
		}
		return t
	}
	return v
}
