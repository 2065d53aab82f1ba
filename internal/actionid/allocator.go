// internal/actionid/allocator.go
package actionid

import (
	"fmt"
	"strings"
)

// DuplicateError is returned when two actions in one module derive the same ID.
type DuplicateError struct {
	ID ID
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate action id %q", e.ID.String())
}

// Allocator hands out IDs for the actions of a single module. It must be fed
// declarations in declaration order: implicit call tags are numbered by
// occurrence, so order determines identity.
type Allocator struct {
	module string
	// occurrences counts implicit call tags by base form.
	occurrences map[string]int
	// taken holds every tag already issued in this module.
	taken map[string]struct{}
}

// NewAllocator creates an allocator for the given module id.
func NewAllocator(module string) (*Allocator, error) {
	if err := ValidateModule(module); err != nil {
		return nil, err
	}
	return &Allocator{
		module:      module,
		occurrences: make(map[string]int),
		taken:       make(map[string]struct{}),
	}, nil
}

// Deploy allocates the ID of the deployment of descriptor name.
func (a *Allocator) Deploy(name string) (ID, error) {
	return a.claim(ID{Module: a.module, Kind: KindDeploy, Target: name, Tag: name})
}

// Call allocates the ID of a call to function on target. An explicit tag is
// used verbatim; otherwise the tag is `<target>.<function>`, suffixed with
// `~n` for the n-th repeat of the same pair.
func (a *Allocator) Call(target, function, explicitTag string) (ID, error) {
	if explicitTag != "" {
		return a.claim(ID{Module: a.module, Kind: KindCall, Target: target, Tag: explicitTag})
	}

	base := target + "." + FunctionName(function)
	n := a.occurrences[base]
	a.occurrences[base] = n + 1

	tag := base
	if n > 0 {
		tag = fmt.Sprintf("%s~%d", base, n)
	}
	return a.claim(ID{Module: a.module, Kind: KindCall, Target: target, Tag: tag})
}

func (a *Allocator) claim(id ID) (ID, error) {
	if err := ValidateTag(id.Tag); err != nil {
		return ID{}, fmt.Errorf("module %q: %w", a.module, err)
	}
	if _, ok := a.taken[id.Tag]; ok {
		return ID{}, &DuplicateError{ID: id}
	}
	a.taken[id.Tag] = struct{}{}
	return id, nil
}

// FunctionName strips the parameter list from a function signature, so
// `grantRole(address,bytes32)` becomes `grantRole`.
func FunctionName(signature string) string {
	name, _, _ := strings.Cut(signature, "(")
	return strings.TrimSpace(name)
}
