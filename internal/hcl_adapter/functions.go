package hcl_adapter

import (
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/deploygrid/internal/roles"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// RoleFunc returns the key of a role name: role("CONTROLLER").
var RoleFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "name", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		key, err := roles.Resolve(args[0].AsString())
		if err != nil {
			return cty.NilVal, function.NewArgError(0, err)
		}
		return cty.StringVal(key.Hex()), nil
	},
})

// Keccak256Func hashes the UTF-8 bytes of a string: keccak256("x").
var Keccak256Func = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "value", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		return cty.StringVal(crypto.Keccak256Hash([]byte(args[0].AsString())).Hex()), nil
	},
})

// newEvalContext exposes the functions literals may use. No variables are
// defined: anything that refers to something must be a plain traversal.
func newEvalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"role":      RoleFunc,
			"keccak256": Keccak256Func,
		},
	}
}
