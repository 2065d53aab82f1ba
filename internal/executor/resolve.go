package executor

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/specialistvlad/deploygrid/internal/actionid"
	"github.com/specialistvlad/deploygrid/internal/artifact"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// resolveArgs turns args into JSON values, substituting the results of the
// actions they reference.
func resolveArgs(args []artifact.Arg, results *Results) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(args))
	for i, arg := range args {
		v, err := resolveArg(arg, results)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		data, err := ctyjson.Marshal(v, v.Type())
		if err != nil {
			return nil, fmt.Errorf("argument %d: encoding %s: %w", i, arg, err)
		}
		out = append(out, data)
	}
	return out, nil
}

func resolveArg(arg artifact.Arg, results *Results) (cty.Value, error) {
	switch arg.Kind {
	case artifact.ArgAction:
		v, ok := results.Get(arg.Action.String())
		if !ok {
			return cty.NilVal, fmt.Errorf("result of %s is not available", arg.Action)
		}
		return cty.StringVal(v), nil
	case artifact.ArgList:
		if len(arg.Items) == 0 {
			return cty.EmptyTupleVal, nil
		}
		items := make([]cty.Value, len(arg.Items))
		for i, item := range arg.Items {
			v, err := resolveArg(item, results)
			if err != nil {
				return cty.NilVal, err
			}
			items[i] = v
		}
		return cty.TupleVal(items), nil
	default:
		if !arg.Literal.IsWhollyKnown() {
			return cty.NilVal, fmt.Errorf("literal %s is not known", arg)
		}
		return arg.Literal, nil
	}
}

// resolveAddress returns the deployed address of a deploy action.
func resolveAddress(id actionid.ID, results *Results) (common.Address, error) {
	v, ok := results.Get(id.String())
	if !ok {
		return common.Address{}, fmt.Errorf("address of %s is not available", id)
	}
	if !common.IsHexAddress(v) {
		return common.Address{}, fmt.Errorf("result of %s is not an address: %q", id, v)
	}
	return common.HexToAddress(v), nil
}

func resolveLibraries(d *artifact.Descriptor, results *Results) (map[string]common.Address, error) {
	if len(d.Libraries) == 0 {
		return nil, nil
	}
	libs := make(map[string]common.Address, len(d.Libraries))
	for _, slot := range d.LibrarySlots() {
		addr, err := resolveAddress(d.Libraries[slot], results)
		if err != nil {
			return nil, fmt.Errorf("library %s: %w", slot, err)
		}
		libs[slot] = addr
	}
	return libs, nil
}
