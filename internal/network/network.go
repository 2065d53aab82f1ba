package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	// ErrTransport means the outcome is unknown: the request may or may not
	// have landed. A later Lookup of the correlation key decides.
	ErrTransport = errors.New("network transport failure")
	// ErrReverted means the network executed the request and rejected it.
	ErrReverted = errors.New("execution reverted")
)

// DeployRequest asks the network to create one artifact.
type DeployRequest struct {
	// Artifact is the artifact name, for logs on the other side.
	Artifact string `json:"artifact"`
	// Bytecode is the 0x-prefixed creation code.
	Bytecode string `json:"bytecode"`
	// Args are the constructor arguments, each a JSON value.
	Args []json.RawMessage `json:"args"`
	// Libraries maps a library slot to the address linked into it.
	Libraries      map[string]common.Address `json:"libraries,omitempty"`
	CorrelationKey string                    `json:"correlation_key"`
}

// CallRequest asks the network to invoke a function on a deployed artifact.
type CallRequest struct {
	Address common.Address `json:"address"`
	// Function is the signature, e.g. "grantRole(address,bytes32)".
	Function       string            `json:"function"`
	Args           []json.RawMessage `json:"args"`
	CorrelationKey string            `json:"correlation_key"`
}

// Receipt is the network's confirmation of a finalized request.
type Receipt struct {
	CorrelationKey  string         `json:"correlation_key"`
	TxHash          common.Hash    `json:"tx_hash"`
	BlockNumber     uint64         `json:"block_number"`
	ContractAddress common.Address `json:"contract_address"`
	ReturnData      hexutil.Bytes  `json:"return_data,omitempty"`
	Reverted        bool           `json:"reverted,omitempty"`
	RevertReason    string         `json:"revert_reason,omitempty"`
}

// Err returns an ErrReverted error for a reverted receipt, nil otherwise.
func (r Receipt) Err() error {
	if !r.Reverted {
		return nil
	}
	return Reverted(r.RevertReason)
}

// Network submits requests and waits for finality. Implementations must be
// safe for concurrent use.
type Network interface {
	// Deploy creates an artifact and returns its address.
	Deploy(ctx context.Context, req DeployRequest) (common.Address, Receipt, error)
	// Call invokes a function and returns its return data.
	Call(ctx context.Context, req CallRequest) (hexutil.Bytes, Receipt, error)
	// Lookup finds the receipt of an earlier submission by correlation key.
	Lookup(ctx context.Context, correlationKey string) (Receipt, bool, error)
}

// Reverted builds an error wrapping ErrReverted.
func Reverted(reason string) error {
	if reason == "" {
		return ErrReverted
	}
	return fmt.Errorf("%w: %s", ErrReverted, reason)
}

// Transport builds an error wrapping ErrTransport.
func Transport(err error) error {
	return fmt.Errorf("%w: %w", ErrTransport, err)
}
