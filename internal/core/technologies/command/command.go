package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/markdave123-py/docreader/internal/core"
	"github.com/markdave123-py/docreader/internal/core/registry"
	"github.com/markdave123-py/docreader/internal/core/runner"
	"github.com/markdave123-py/docreader/internal/models"
)

const envPrefix = "DOCREADER_PARAM_"

// Technology runs an external command with the document on stdin.
type Technology struct {
	desc   *Descriptor
	runner runner.Runner
}

func New(desc *Descriptor, r runner.Runner) *Technology {
	if r == nil {
		r = runner.Exec{}
	}
	return &Technology{desc: desc, runner: r}
}

func (t *Technology) Name() string { return t.desc.Name }

func (t *Technology) Description() string {
	if t.desc.Description != "" {
		return t.desc.Description
	}
	return "external command " + t.desc.Command
}

func (t *Technology) ParamSchema() map[string]models.ParamSpec {
	out := make(map[string]models.ParamSpec, len(t.desc.Params))
	for name, p := range t.desc.Params {
		typ := p.Type
		if typ == "" {
			typ = "string"
		}
		out[name] = models.ParamSpec{Type: typ, Default: p.Default, Required: p.Required, Description: p.Description}
	}
	return out
}

func (t *Technology) Run(ctx context.Context, document []byte, params map[string]any) (*models.ProcessingResult, error) {
	env, err := t.env(core.Params(params))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, t.desc.timeout)
	defer cancel()

	stdout, stderr, err := t.runner.Run(ctx, runner.Command{
		Name:  t.desc.Command,
		Args:  t.desc.Args,
		Stdin: document,
		Env:   env,
	})
	if err != nil {
		if runner.IsMissingBinary(err) {
			return nil, core.NewBackendError(t.desc.Name, fmt.Sprintf("command %q not found on PATH", t.desc.Command), err)
		}
		msg := strings.TrimSpace(runner.Truncate(string(stderr), 512))
		if msg == "" {
			msg = "command failed"
		}
		return nil, core.NewBackendError(t.desc.Name, msg, err)
	}

	return models.NewTextResult(t.desc.Name, strings.TrimSpace(string(stdout)), map[string]any{
		"command": t.desc.Command,
	}), nil
}

// env exposes declared params as DOCREADER_PARAM_<NAME>; undeclared params are ignored.
func (t *Technology) env(p core.Params) ([]string, error) {
	var env []string
	for name, decl := range t.desc.Params {
		v, ok := p[name]
		if !ok || v == nil {
			if decl.Required {
				return nil, core.NewParamError(name, "is required")
			}
			v = decl.Default
		}
		if v == nil {
			continue
		}
		if _, isObj := v.(map[string]any); isObj {
			return nil, core.NewParamError(name, "must be a scalar")
		}
		if _, isList := v.([]any); isList {
			return nil, core.NewParamError(name, "must be a scalar")
		}
		env = append(env, envPrefix+strings.ToUpper(strings.ReplaceAll(name, "-", "_"))+"="+fmt.Sprint(v))
	}
	return env, nil
}

// Provide offers every descriptor to reg as a lazily loaded technology.
func Provide(reg *registry.Registry, descs []*Descriptor, r runner.Runner) {
	for _, d := range descs {
		sample := New(d, r)
		desc := core.Describe(sample)
		reg.Provide(desc, func(reg *registry.Registry) error {
			reg.Register(desc, func() (core.Technology, error) { return New(d, r), nil })
			return nil
		})
	}
}
