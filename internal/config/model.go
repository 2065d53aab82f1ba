package config

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Model is the unified representation of every module definition found by
// one or more loaders.
type Model struct {
	// Modules keeps every definition in load order, including duplicates, so
	// that ambiguity can be reported instead of silently resolved.
	Modules []*Module
}

// Merge appends the modules of other.
func (m *Model) Merge(other *Model) {
	if other == nil {
		return
	}
	m.Modules = append(m.Modules, other.Modules...)
}

// Index groups module definitions by id.
func (m *Model) Index() map[string][]*Module {
	index := make(map[string][]*Module, len(m.Modules))
	for _, mod := range m.Modules {
		index[mod.ID] = append(index[mod.ID], mod)
	}
	return index
}

// Module is the format-agnostic representation of a `module` block.
type Module struct {
	ID string
	// Uses lists sub-module ids in declaration order.
	Uses []string
	// Items holds contracts, libraries, calls and grants in source order.
	Items []Item
	// Outputs maps exported names to values; OutputOrder keeps their order.
	Outputs     map[string]Value
	OutputOrder []string
	// Source is the declaration position, e.g. "modules/router.hcl:3".
	Source string
}

// Item is one declaration inside a module body.
type Item interface {
	// Pos returns the declaration position.
	Pos() string
}

// DeployKind distinguishes `contract` and `library` blocks.
type DeployKind string

const (
	DeployContract DeployKind = "contract"
	DeployLibrary  DeployKind = "library"
)

// Deployable is a `contract` or `library` block.
type Deployable struct {
	Kind DeployKind
	Name string
	// Artifact overrides the bytecode lookup name.
	Artifact  string
	Args      []Value
	Libraries map[string]Value
	Source    string
}

func (d *Deployable) Pos() string { return d.Source }

// Call is a `call` block.
type Call struct {
	// Label is the block label, used as the function name unless Function is
	// set.
	Label    string
	Function string
	Target   Value
	Args     []Value
	// ID is an explicit tag; empty means an implicit one is derived.
	ID         string
	After      []Value
	BestEffort bool
	Source     string
}

func (c *Call) Pos() string { return c.Source }

// FunctionSignature returns the function to call.
func (c *Call) FunctionSignature() string {
	if c.Function != "" {
		return c.Function
	}
	return c.Label
}

// Grant is a `grant` block. Its label is the explicit tag of the compiled
// grantRole call.
type Grant struct {
	Tag     string
	Grantor Value
	Grantee Value
	// Role is either a role name (e.g. "CONTROLLER") or a 0x-prefixed key.
	Role Value
	// Function overrides the grant function; empty means grantRole.
	Function   string
	After      []Value
	BestEffort bool
	Source     string
}

func (g *Grant) Pos() string { return g.Source }

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	ValueLiteral ValueKind = iota
	ValueRef
	ValueList
)

// Value is an argument as written in a definition: a literal, a reference
// to something defined elsewhere, or a list of values.
type Value struct {
	Kind    ValueKind
	Literal cty.Value
	Ref     *Reference
	Items   []Value
}

// LiteralValue wraps a known cty value.
func LiteralValue(v cty.Value) Value {
	return Value{Kind: ValueLiteral, Literal: v}
}

// RefValue wraps a reference.
func RefValue(ref *Reference) Value {
	return Value{Kind: ValueRef, Ref: ref}
}

// ListValue groups values.
func ListValue(items ...Value) Value {
	return Value{Kind: ValueList, Items: items}
}

// IsSet reports whether the value holds anything. The zero Value is an
// unset literal.
func (v Value) IsSet() bool {
	switch v.Kind {
	case ValueRef:
		return v.Ref != nil
	case ValueList:
		return true
	default:
		return !v.Literal.IsNull()
	}
}

// String renders the value for error messages.
func (v Value) String() string {
	switch v.Kind {
	case ValueRef:
		return v.Ref.String()
	case ValueList:
		return fmt.Sprintf("list(%d)", len(v.Items))
	default:
		if v.Literal.IsNull() {
			return "null"
		}
		return v.Literal.GoString()
	}
}
