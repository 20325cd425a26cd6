package core

import (
	"context"

	"github.com/markdave123-py/docreader/internal/models"
)

// Technology is a pluggable document extraction backend.
type Technology interface {
	Name() string
	Description() string
	ParamSchema() map[string]models.ParamSpec
	Run(ctx context.Context, document []byte, params map[string]any) (*models.ProcessingResult, error)
}

// Factory constructs a Technology instance for one request.
type Factory func() (Technology, error)

// Describe builds the discovery descriptor of t.
func Describe(t Technology) models.TechnologyDescriptor {
	return models.TechnologyDescriptor{
		Name:        t.Name(),
		Description: t.Description(),
		Params:      t.ParamSchema(),
	}
}

// Float is a helper for schema bounds.
func Float(v float64) *float64 { return &v }
