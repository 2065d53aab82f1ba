package config

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestParseReference(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expected  *Reference
		expectErr bool
	}{
		{name: "contract", raw: "contract.Router", expected: &Reference{Root: RefContract, Name: "Router"}},
		{name: "library", raw: "library.PoolStoreUtils", expected: &Reference{Root: RefLibrary, Name: "PoolStoreUtils"}},
		{name: "call", raw: "call.setFee", expected: &Reference{Root: RefCall, Name: "setFee"}},
		{name: "param", raw: "param.fee", expected: &Reference{Root: RefParam, Name: "fee"}},
		{name: "module output", raw: "module.RoleStore.roleStore", expected: &Reference{Root: RefModule, Name: "RoleStore", Attr: "roleStore"}},
		{name: "error - module without output", raw: "module.RoleStore", expectErr: true},
		{name: "error - unknown root", raw: "step.x", expectErr: true},
		{name: "error - empty segment", raw: "contract..x", expectErr: true},
		{name: "error - too many segments", raw: "contract.a.b", expectErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ref, err := ParseReference(tc.raw, "test")
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tc.expected.Source = "test"
			assert.Equal(t, tc.expected, ref)
			assert.Equal(t, tc.raw, ref.String())
		})
	}
}

func TestModel_IndexKeepsDuplicates(t *testing.T) {
	m := &Model{}
	m.Merge(&Model{Modules: []*Module{{ID: "A"}, {ID: "B"}}})
	m.Merge(&Model{Modules: []*Module{{ID: "A", Source: "other.hcl:1"}}})
	m.Merge(nil)

	index := m.Index()
	assert.Len(t, index["A"], 2)
	assert.Len(t, index["B"], 1)
}

func TestValue_IsSet(t *testing.T) {
	assert.False(t, Value{}.IsSet())
	assert.False(t, LiteralValue(cty.NullVal(cty.String)).IsSet())
	assert.True(t, LiteralValue(cty.StringVal("x")).IsSet())
	assert.True(t, RefValue(&Reference{Root: RefParam, Name: "x"}).IsSet())
	assert.True(t, ListValue().IsSet())
}

func TestCall_FunctionSignature(t *testing.T) {
	assert.Equal(t, "setConfig", (&Call{Label: "setConfig"}).FunctionSignature())
	assert.Equal(t, "setConfig(uint256)", (&Call{Label: "setConfig", Function: "setConfig(uint256)"}).FunctionSignature())
}

type staticLoader struct {
	model *Model
	err   error
}

func (s staticLoader) Load(context.Context, ...string) (*Model, error) { return s.model, s.err }

func TestMulti(t *testing.T) {
	a := staticLoader{model: &Model{Modules: []*Module{{ID: "A"}}}}
	b := staticLoader{model: &Model{Modules: []*Module{{ID: "B"}, {ID: "A"}}}}

	model, err := Multi(a, b).Load(context.Background(), "modules")
	require.NoError(t, err)
	require.Len(t, model.Modules, 3)
	assert.Len(t, model.Index()["A"], 2)

	_, err = Multi(a, staticLoader{err: errors.New("boom")}).Load(context.Background())
	assert.ErrorContains(t, err, "boom")
}
