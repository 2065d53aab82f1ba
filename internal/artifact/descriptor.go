package artifact

import (
	"fmt"
	"sort"
	"strings"

	"github.com/specialistvlad/deploygrid/internal/actionid"
	"github.com/zclconf/go-cty/cty"
)

// Kind distinguishes contracts from reusable libraries.
type Kind string

const (
	KindContract Kind = "contract"
	KindLibrary  Kind = "library"
)

// Descriptor is the immutable description of one deployable artifact.
type Descriptor struct {
	// Name is unique within the defining module.
	Name string
	// Module is the id of the module that declared the descriptor.
	Module string
	Kind   Kind
	// Artifact is the name used to look up bytecode. Empty means Name.
	Artifact string
	// Args are the ordered constructor arguments.
	Args []Arg
	// Libraries maps a link slot to the deploy action of a library.
	Libraries map[string]actionid.ID
}

// ArtifactName returns the name to look up bytecode under.
func (d *Descriptor) ArtifactName() string {
	if d.Artifact != "" {
		return d.Artifact
	}
	return d.Name
}

// LibrarySlots returns the library slot names in sorted order.
func (d *Descriptor) LibrarySlots() []string {
	slots := make([]string, 0, len(d.Libraries))
	for slot := range d.Libraries {
		slots = append(slots, slot)
	}
	sort.Strings(slots)
	return slots
}

// Dependencies returns every action the descriptor needs before it can be
// deployed, in argument order followed by sorted library slots.
func (d *Descriptor) Dependencies() []actionid.ID {
	var deps []actionid.ID
	for _, arg := range d.Args {
		deps = append(deps, arg.Dependencies()...)
	}
	for _, slot := range d.LibrarySlots() {
		deps = append(deps, d.Libraries[slot])
	}
	return deps
}

// ArgKind tags the variant held by an Arg.
type ArgKind int

const (
	// ArgLiteral is a value known at build time.
	ArgLiteral ArgKind = iota
	// ArgAction is the result of another action: a deployed address or a
	// recorded call return value.
	ArgAction
	// ArgList is an ordered list of args.
	ArgList
)

// Arg is a constructor or call argument.
type Arg struct {
	Kind    ArgKind
	Literal cty.Value
	Action  actionid.ID
	Items   []Arg
}

// Literal wraps a known value.
func Literal(v cty.Value) Arg {
	return Arg{Kind: ArgLiteral, Literal: v}
}

// ActionResult refers to the result of another action.
func ActionResult(id actionid.ID) Arg {
	return Arg{Kind: ArgAction, Action: id}
}

// List groups args.
func List(items ...Arg) Arg {
	return Arg{Kind: ArgList, Items: items}
}

// Dependencies returns the actions referenced by the arg, depth first.
func (a Arg) Dependencies() []actionid.ID {
	switch a.Kind {
	case ArgAction:
		return []actionid.ID{a.Action}
	case ArgList:
		var deps []actionid.ID
		for _, item := range a.Items {
			deps = append(deps, item.Dependencies()...)
		}
		return deps
	default:
		return nil
	}
}

// String renders the arg for plans and logs.
func (a Arg) String() string {
	switch a.Kind {
	case ArgAction:
		return "<" + a.Action.String() + ">"
	case ArgList:
		parts := make([]string, len(a.Items))
		for i, item := range a.Items {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return formatLiteral(a.Literal)
	}
}

func formatLiteral(v cty.Value) string {
	if v.IsNull() {
		return "null"
	}
	if !v.IsKnown() {
		return "(unknown)"
	}
	switch {
	case v.Type().Equals(cty.String):
		return fmt.Sprintf("%q", v.AsString())
	case v.Type().Equals(cty.Number):
		return v.AsBigFloat().Text('f', -1)
	case v.Type().Equals(cty.Bool):
		if v.True() {
			return "true"
		}
		return "false"
	case v.Type().IsListType() || v.Type().IsTupleType() || v.Type().IsSetType():
		var parts []string
		for it := v.ElementIterator(); it.Next(); {
			_, el := it.Element()
			parts = append(parts, formatLiteral(el))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return v.GoString()
	}
}
