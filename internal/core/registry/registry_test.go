package registry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/markdave123-py/docreader/internal/core"
	"github.com/markdave123-py/docreader/internal/models"
)

type stubTech struct{ name string }

func (s stubTech) Name() string                             { return s.name }
func (s stubTech) Description() string                      { return "stub " + s.name }
func (s stubTech) ParamSchema() map[string]models.ParamSpec { return nil }
func (s stubTech) Run(context.Context, []byte, map[string]any) (*models.ProcessingResult, error) {
	return models.NewTextResult(s.name, "ok", nil), nil
}

func register(r *Registry, name string) {
	r.RegisterTechnology(stubTech{name: name}, func() (core.Technology, error) {
		return stubTech{name: name}, nil
	})
}

func TestGetReturnsInstanceNamedByKey(t *testing.T) {
	r := New()
	for _, name := range []string{"tesseract", "openai", "gemini"} {
		register(r, name)
	}
	for _, d := range r.List() {
		tech, err := r.Get(d.Name)
		if err != nil {
			t.Fatalf("Get(%q): %v", d.Name, err)
		}
		if tech.Name() != d.Name {
			t.Errorf("Get(%q) returned %q", d.Name, tech.Name())
		}
	}
}

func TestGetUnknownTechnology(t *testing.T) {
	r := New()
	_, err := r.Get("nonexistent")
	var ut *core.UnknownTechnologyError
	if !errors.As(err, &ut) || ut.Name != "nonexistent" {
		t.Fatalf("expected UnknownTechnologyError, got %v", err)
	}
}

func TestRegisterOverwrites(t *testing.T) {
	r := New()
	register(r, "dup")
	r.Register(models.TechnologyDescriptor{Name: "dup", Description: "second"}, func() (core.Technology, error) {
		return stubTech{name: "dup"}, nil
	})
	list := r.List()
	if len(list) != 1 || list[0].Description != "second" {
		t.Fatalf("expected single overwritten entry, got %+v", list)
	}
}

func TestLazyProviderLoadsOnce(t *testing.T) {
	r := New()
	var calls int32
	r.Provide(models.TechnologyDescriptor{Name: "lazy"}, func(r *Registry) error {
		atomic.AddInt32(&calls, 1)
		register(r, "lazy")
		return nil
	})

	if got := r.List(); len(got) != 1 || got[0].Name != "lazy" {
		t.Fatalf("provider should be listed before loading, got %+v", got)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tech, err := r.Get("lazy")
			if err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			if tech.Name() != "lazy" {
				t.Errorf("name = %q", tech.Name())
			}
		}()
	}
	wg.Wait()

	if _, err := r.Get("lazy"); err != nil {
		t.Fatal(err)
	}
	// Concurrent callers may race past the first lookup, but once registered no loader runs again.
	if n := atomic.LoadInt32(&calls); n < 1 || n > 16 {
		t.Errorf("loader calls = %d", n)
	}
	before := atomic.LoadInt32(&calls)
	_, _ = r.Get("lazy")
	if atomic.LoadInt32(&calls) != before {
		t.Errorf("loader ran after registration")
	}
	if len(r.List()) != 1 {
		t.Errorf("loaded provider listed twice: %+v", r.List())
	}
}

func TestLazyProviderThatDoesNotRegister(t *testing.T) {
	r := New()
	r.Provide(models.TechnologyDescriptor{Name: "ghost"}, func(*Registry) error { return nil })
	_, err := r.Get("ghost")
	var ut *core.UnknownTechnologyError
	if !errors.As(err, &ut) {
		t.Fatalf("expected UnknownTechnologyError, got %v", err)
	}
}

func TestLazyProviderFailureIsBackendError(t *testing.T) {
	r := New()
	r.Provide(models.TechnologyDescriptor{Name: "broken"}, func(*Registry) error {
		return errors.New("shared library missing")
	})
	_, err := r.Get("broken")
	var be *core.BackendError
	if !errors.As(err, &be) {
		t.Fatalf("expected BackendError, got %v", err)
	}
}
