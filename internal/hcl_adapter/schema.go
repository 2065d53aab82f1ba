package hcl_adapter

import (
	"github.com/hashicorp/hcl/v2"
)

// rootSchema matches the top level of every file.
var rootSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "module", LabelNames: []string{"id"}},
	},
}

// moduleSchema matches a module body. Blocks come back in source order,
// which is what gives actions their declaration order.
var moduleSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "uses"},
		{Name: "outputs"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "contract", LabelNames: []string{"name"}},
		{Type: "library", LabelNames: []string{"name"}},
		{Type: "call", LabelNames: []string{"function"}},
		{Type: "grant", LabelNames: []string{"tag"}},
	},
}

// DeployableBlock is the body of a `contract` or `library` block.
type DeployableBlock struct {
	Args      hcl.Expression `hcl:"args,optional"`
	Libraries hcl.Expression `hcl:"libraries,optional"`
	Artifact  *string        `hcl:"artifact,optional"`
}

// CallBlock is the body of a `call` block.
type CallBlock struct {
	Target     hcl.Expression `hcl:"target"`
	Function   *string        `hcl:"function,optional"`
	Args       hcl.Expression `hcl:"args,optional"`
	ID         *string        `hcl:"id,optional"`
	After      hcl.Expression `hcl:"after,optional"`
	BestEffort *bool          `hcl:"best_effort,optional"`
}

// GrantBlock is the body of a `grant` block.
type GrantBlock struct {
	Grantor    hcl.Expression `hcl:"grantor"`
	Grantee    hcl.Expression `hcl:"grantee"`
	Role       hcl.Expression `hcl:"role"`
	Function   *string        `hcl:"function,optional"`
	After      hcl.Expression `hcl:"after,optional"`
	BestEffort *bool          `hcl:"best_effort,optional"`
}
