package artifact

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a source has no bytecode for an artifact.
var ErrNotFound = errors.New("artifact not found")

// Source resolves an artifact name to deployable bytecode (0x-prefixed hex).
type Source interface {
	Bytecode(ctx context.Context, name string) (string, error)
}

// NotFoundError reports which artifact was missing and where it was looked up.
type NotFoundError struct {
	Name     string
	Location string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("artifact %q not found in %s", e.Name, e.Location)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
