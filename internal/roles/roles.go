// Package roles derives role keys and compiles declared grants into
// explicitly tagged grantRole call actions.
//
// Role keys are computed the same way the deployed RoleStore contracts expect
// them: keccak256 over the ABI encoding of the role name as a single string
// argument.
package roles

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Built-in role names.
const (
	ConfigKeeper = "CONFIG_KEEPER"
	PoolKeeper   = "POOL_KEEPER"
	Controller   = "CONTROLLER"
	RouterPlugin = "ROUTER_PLUGIN"
)

var stringArgs = abi.Arguments{{Type: mustType("string")}}

// builtin holds the keys of the well-known roles, computed once.
var builtin = map[string]common.Hash{
	ConfigKeeper: Key(ConfigKeeper),
	PoolKeeper:   Key(PoolKeeper),
	Controller:   Key(Controller),
	RouterPlugin: Key(RouterPlugin),
}

var (
	rawKeyRegex   = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
	roleNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

func mustType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(err)
	}
	return t
}

// Key returns keccak256(abi.encode(["string"], [name])).
func Key(name string) common.Hash {
	packed, err := stringArgs.Pack(name)
	if err != nil {
		// Packing a Go string into a string argument cannot fail.
		panic(err)
	}
	return crypto.Keccak256Hash(packed)
}

// Builtin returns the key of a well-known role.
func Builtin(name string) (common.Hash, bool) {
	key, ok := builtin[name]
	return key, ok
}

// BuiltinNames lists the well-known roles in sorted order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve turns a role as written in a definition into its key. A 0x-prefixed
// 32-byte hex value is taken as an already derived key; anything else must be
// a role name.
func Resolve(role string) (common.Hash, error) {
	if rawKeyRegex.MatchString(role) {
		return common.HexToHash(role), nil
	}
	if key, ok := builtin[role]; ok {
		return key, nil
	}
	if !roleNameRegex.MatchString(role) {
		return common.Hash{}, fmt.Errorf("invalid role %q: expected a role name or a 32-byte hex key", role)
	}
	return Key(role), nil
}
