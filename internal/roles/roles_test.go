package roles

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/specialistvlad/deploygrid/internal/actionid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_MatchesAbiEncodedKeccak(t *testing.T) {
	strType, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: strType}}.Pack("CONTROLLER")
	require.NoError(t, err)

	// abi.encode of a single string: offset word, length word, padded data.
	require.Len(t, packed, 96)
	assert.Equal(t, crypto.Keccak256Hash(packed), Key(Controller))
	// Not the same as hashing the raw bytes.
	assert.NotEqual(t, crypto.Keccak256Hash([]byte("CONTROLLER")), Key(Controller))
}

func TestBuiltins(t *testing.T) {
	assert.Equal(t, []string{ConfigKeeper, Controller, PoolKeeper, RouterPlugin}, BuiltinNames())
	key, ok := Builtin(PoolKeeper)
	require.True(t, ok)
	assert.Equal(t, Key(PoolKeeper), key)
	_, ok = Builtin("NOPE")
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	key, err := Resolve(Controller)
	require.NoError(t, err)
	assert.Equal(t, Key(Controller), key)

	raw := Key("CUSTOM").Hex()
	key, err = Resolve(raw)
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash(raw), key)

	key, err = Resolve("LIQUIDATION_KEEPER")
	require.NoError(t, err)
	assert.Equal(t, Key("LIQUIDATION_KEEPER"), key)

	_, err = Resolve("not a role")
	assert.Error(t, err)
}

func TestCompile(t *testing.T) {
	alloc, err := actionid.NewAllocator("ExchangeRouter")
	require.NoError(t, err)

	grantor := actionid.ID{Module: "RoleStore", Kind: actionid.KindDeploy, Target: "RoleStore", Tag: "RoleStore"}
	grantee := actionid.ID{Module: "ExchangeRouter", Kind: actionid.KindDeploy, Target: "SupplyHandler", Tag: "SupplyHandler"}

	id, err := Allocate(alloc, "grantRole1", "roleStore", "", "router.hcl:10")
	require.NoError(t, err)
	act, err := Compile(id, Grant{
		Grantor: grantor,
		Grantee: grantee,
		Role:    Controller,
		Order:   7,
		Source:  "router.hcl:10",
	})
	require.NoError(t, err)

	assert.Equal(t, "ExchangeRouter#grantRole1", act.ID.String())
	assert.Equal(t, actionid.KindCall, act.Kind())
	assert.Equal(t, []actionid.ID{grantor, grantee}, act.DependsOn)
	assert.Equal(t, grantor, act.Call.Target)
	assert.Equal(t, DefaultFunction, act.Call.Function)
	require.Len(t, act.Call.Args, 2)
	assert.Equal(t, grantee, act.Call.Args[0].Action)
	assert.Equal(t, Key(Controller).Hex(), act.Call.Args[1].Literal.AsString())
	assert.Equal(t, Key(Controller).Hex(), act.Call.Grant.RoleKey)
	assert.Equal(t, 7, act.Order)
}

func TestAllocateAndCompile_Errors(t *testing.T) {
	alloc, err := actionid.NewAllocator("M")
	require.NoError(t, err)
	grantor := actionid.ID{Module: "M", Kind: actionid.KindDeploy, Target: "Store", Tag: "Store"}

	_, err = Allocate(alloc, "", "store", "", "m.hcl:1")
	var missing *MissingTagError
	assert.True(t, errors.As(err, &missing))

	id, err := Allocate(alloc, "g", "store", "", "m.hcl:2")
	require.NoError(t, err)
	_, err = Compile(id, Grant{Grantor: grantor, Grantee: grantor, Role: "bad role"})
	assert.Error(t, err)

	_, err = Compile(grantor, Grant{Grantor: grantor, Grantee: grantor, Role: Controller})
	assert.Error(t, err, "deploy ids cannot carry grants")

	_, err = Allocate(alloc, "g", "store", "", "m.hcl:3")
	var dup *actionid.DuplicateError
	assert.ErrorAs(t, err, &dup)
}
