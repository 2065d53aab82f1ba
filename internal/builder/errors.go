package builder

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/deploygrid/internal/actionid"
)

// CyclicModuleError is returned when evaluating a module re-enters a module
// whose evaluation has not finished.
type CyclicModuleError struct {
	// Path is the chain of module ids, starting and ending with the module
	// that was re-entered.
	Path []string
}

func (e *CyclicModuleError) Error() string {
	return fmt.Sprintf("cyclic module dependency: %s", strings.Join(e.Path, " -> "))
}

// UnresolvedReferenceError is returned when a reference names something that
// no reachable module defines, or something of the wrong kind.
type UnresolvedReferenceError struct {
	Module    string
	Reference string
	Source    string
	Reason    string
}

func (e *UnresolvedReferenceError) Error() string {
	msg := fmt.Sprintf("unresolved reference %q in module %q", e.Reference, e.Module)
	if e.Source != "" {
		msg = e.Source + ": " + msg
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// AmbiguousModuleError is returned when a module id used by the build has
// more than one definition.
type AmbiguousModuleError struct {
	ID      string
	Sources []string
}

func (e *AmbiguousModuleError) Error() string {
	return fmt.Sprintf("module %q is defined %d times (%s)", e.ID, len(e.Sources), strings.Join(e.Sources, ", "))
}

// DuplicateActionError is returned when two actions of one module derive the
// same id.
type DuplicateActionError struct {
	ID     actionid.ID
	Source string
}

func (e *DuplicateActionError) Error() string {
	return fmt.Sprintf("%s: duplicate action id %q", e.Source, e.ID.String())
}
