package config

import (
	"context"
)

// Loader is the interface for a format-specific module definition loader.
type Loader interface {
	// Load reads every definition file found under paths and translates them
	// into the format-agnostic model. A path that does not exist is not an
	// error; it simply contributes nothing.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Multi combines loaders. Each one reads the same paths and picks the files
// it understands; their models are merged in order.
func Multi(loaders ...Loader) Loader {
	return multiLoader(loaders)
}

type multiLoader []Loader

func (m multiLoader) Load(ctx context.Context, paths ...string) (*Model, error) {
	merged := &Model{}
	for _, l := range m {
		model, err := l.Load(ctx, paths...)
		if err != nil {
			return nil, err
		}
		merged.Merge(model)
	}
	return merged, nil
}
