package config

import (
	"fmt"
	"strings"
)

// RefRoot is the first segment of a reference.
type RefRoot string

const (
	RefContract RefRoot = "contract"
	RefLibrary  RefRoot = "library"
	RefCall     RefRoot = "call"
	RefModule   RefRoot = "module"
	RefParam    RefRoot = "param"
)

// Reference points at a descriptor, a call, a module output or a parameter.
//
//	contract.<name>   library.<name>   call.<tag>
//	module.<id>.<output>               param.<name>
type Reference struct {
	Root RefRoot
	Name string
	// Attr is the output name for module references.
	Attr string
	// Source is the position of the reference, for error messages.
	Source string
}

func (r *Reference) String() string {
	if r.Attr != "" {
		return fmt.Sprintf("%s.%s.%s", r.Root, r.Name, r.Attr)
	}
	return fmt.Sprintf("%s.%s", r.Root, r.Name)
}

// NewReference validates segments taken from a traversal or a dotted string.
func NewReference(segments []string, source string) (*Reference, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("%s: empty reference", source)
	}
	for _, s := range segments {
		if s == "" {
			return nil, fmt.Errorf("%s: reference %q has an empty segment", source, strings.Join(segments, "."))
		}
	}
	root := RefRoot(segments[0])
	switch root {
	case RefContract, RefLibrary, RefCall, RefParam:
		if len(segments) != 2 {
			return nil, fmt.Errorf("%s: reference %q must have the form %s.<name>", source, strings.Join(segments, "."), root)
		}
		return &Reference{Root: root, Name: segments[1], Source: source}, nil
	case RefModule:
		if len(segments) != 3 {
			return nil, fmt.Errorf("%s: reference %q must have the form module.<id>.<output>", source, strings.Join(segments, "."))
		}
		return &Reference{Root: root, Name: segments[1], Attr: segments[2], Source: source}, nil
	default:
		return nil, fmt.Errorf("%s: unknown reference root %q (expected contract, library, call, module or param)", source, segments[0])
	}
}

// ParseReference parses the dotted form, e.g. "module.RoleStore.roleStore".
func ParseReference(s, source string) (*Reference, error) {
	return NewReference(strings.Split(strings.TrimSpace(s), "."), source)
}
