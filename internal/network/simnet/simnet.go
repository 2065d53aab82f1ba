package simnet

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/specialistvlad/deploygrid/internal/network"
)

// DefaultDeployer is the first Hardhat development account.
var DefaultDeployer = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

// Fault is an injected failure, consumed by the next submission carrying
// the matching correlation key.
type Fault int

const (
	// FaultRevert rejects the request. A reverted receipt is recorded.
	FaultRevert Fault = iota + 1
	// FaultTransport loses the request before it lands.
	FaultTransport
	// FaultDropConfirmation lands the request but reports a transport error.
	FaultDropConfirmation
	// FaultHang lands the request and then blocks until the context ends.
	FaultHang
)

func (f Fault) String() string {
	switch f {
	case FaultRevert:
		return "revert"
	case FaultTransport:
		return "transport"
	case FaultDropConfirmation:
		return "drop-confirmation"
	case FaultHang:
		return "hang"
	default:
		return fmt.Sprintf("Fault(%d)", int(f))
	}
}

// Option configures a Network.
type Option func(*Network)

// WithDeployer sets the account whose nonce derives contract addresses.
func WithDeployer(addr common.Address) Option {
	return func(n *Network) { n.deployer = addr }
}

// WithNonce starts the deployer at nonce, so a fresh process does not hand
// out addresses an earlier one already used.
func WithNonce(nonce uint64) Option {
	return func(n *Network) { n.nonce = nonce }
}

// WithCode places bytecode at addr, as if an earlier process had deployed
// it there.
func WithCode(addr common.Address, bytecode string) Option {
	return func(n *Network) { n.code[addr] = bytecode }
}

// WithLatency delays every submission, to make concurrency observable.
func WithLatency(d time.Duration) Option {
	return func(n *Network) { n.latency = d }
}

// WithReturnData makes calls to function return data.
func WithReturnData(function string, data []byte) Option {
	return func(n *Network) { n.returns[function] = data }
}

// Network is the simulated chain.
type Network struct {
	mu          sync.Mutex
	deployer    common.Address
	nonce       uint64
	block       uint64
	latency     time.Duration
	code        map[common.Address]string
	receipts    map[string]network.Receipt
	faults      map[string]Fault
	returns     map[string][]byte
	submissions []Submission

	inflight    int
	maxInflight int
}

// Submission is one request the network received.
type Submission struct {
	Kind           string // "deploy" or "call"
	CorrelationKey string
	Artifact       string
	Address        common.Address
	Function       string
}

var _ network.Network = (*Network)(nil)

// New returns an empty simulated chain.
func New(opts ...Option) *Network {
	n := &Network{
		deployer: DefaultDeployer,
		code:     make(map[common.Address]string),
		receipts: make(map[string]network.Receipt),
		faults:   make(map[string]Fault),
		returns:  make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Inject arms a one-shot fault for correlationKey.
func (n *Network) Inject(correlationKey string, f Fault) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.faults[correlationKey] = f
}

// Submissions returns every request received, in arrival order.
func (n *Network) Submissions() []Submission {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Submission(nil), n.submissions...)
}

// SubmissionCount is len(Submissions()).
func (n *Network) SubmissionCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.submissions)
}

// MaxConcurrency is the highest number of submissions observed in progress
// at once.
func (n *Network) MaxConcurrency() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.maxInflight
}

// CodeAt returns the bytecode deployed at addr.
func (n *Network) CodeAt(addr common.Address) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	code, ok := n.code[addr]
	return code, ok
}

// Deploy implements network.Network.
func (n *Network) Deploy(ctx context.Context, req network.DeployRequest) (common.Address, network.Receipt, error) {
	if err := n.begin(ctx); err != nil {
		return common.Address{}, network.Receipt{}, err
	}
	defer n.end()

	n.mu.Lock()
	n.submissions = append(n.submissions, Submission{Kind: "deploy", CorrelationKey: req.CorrelationKey, Artifact: req.Artifact})
	fault := n.takeFault(req.CorrelationKey)
	if fault == FaultTransport {
		n.mu.Unlock()
		return common.Address{}, network.Receipt{}, network.Transport(errors.New("connection reset by simulated peer"))
	}

	var receipt network.Receipt
	switch {
	case fault == FaultRevert:
		receipt = n.seal(req.CorrelationKey, common.Address{}, nil, "simulated revert")
	case !validBytecode(req.Bytecode):
		receipt = n.seal(req.CorrelationKey, common.Address{}, nil, "invalid creation code")
	default:
		if slot, missing := n.unlinked(req.Libraries); missing {
			receipt = n.seal(req.CorrelationKey, common.Address{}, nil, fmt.Sprintf("library %s not deployed at %s", slot, req.Libraries[slot].Hex()))
		} else {
			addr := crypto.CreateAddress(n.deployer, n.nonce)
			n.code[addr] = req.Bytecode
			receipt = n.seal(req.CorrelationKey, addr, nil, "")
		}
	}
	// Reverted or not, the transaction consumed the deployer's nonce.
	n.nonce++
	n.mu.Unlock()

	if err := n.afterLanding(ctx, fault); err != nil {
		return common.Address{}, network.Receipt{}, err
	}
	if err := receipt.Err(); err != nil {
		return common.Address{}, receipt, err
	}
	return receipt.ContractAddress, receipt, nil
}

// Call implements network.Network.
func (n *Network) Call(ctx context.Context, req network.CallRequest) (hexutil.Bytes, network.Receipt, error) {
	if err := n.begin(ctx); err != nil {
		return nil, network.Receipt{}, err
	}
	defer n.end()

	n.mu.Lock()
	n.submissions = append(n.submissions, Submission{Kind: "call", CorrelationKey: req.CorrelationKey, Address: req.Address, Function: req.Function})
	fault := n.takeFault(req.CorrelationKey)
	if fault == FaultTransport {
		n.mu.Unlock()
		return nil, network.Receipt{}, network.Transport(errors.New("connection reset by simulated peer"))
	}

	var receipt network.Receipt
	switch {
	case fault == FaultRevert:
		receipt = n.seal(req.CorrelationKey, common.Address{}, nil, "simulated revert")
	case n.code[req.Address] == "":
		receipt = n.seal(req.CorrelationKey, common.Address{}, nil, "no code at "+req.Address.Hex())
	default:
		receipt = n.seal(req.CorrelationKey, common.Address{}, n.returns[functionName(req.Function)], "")
	}
	n.nonce++
	n.mu.Unlock()

	if err := n.afterLanding(ctx, fault); err != nil {
		return nil, network.Receipt{}, err
	}
	if err := receipt.Err(); err != nil {
		return nil, receipt, err
	}
	return receipt.ReturnData, receipt, nil
}

// Lookup implements network.Network.
func (n *Network) Lookup(ctx context.Context, correlationKey string) (network.Receipt, bool, error) {
	if err := ctx.Err(); err != nil {
		return network.Receipt{}, false, network.Transport(err)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	r, ok := n.receipts[correlationKey]
	return r, ok, nil
}

// seal mines a block holding one transaction. Callers hold mu.
func (n *Network) seal(key string, addr common.Address, ret []byte, revert string) network.Receipt {
	n.block++
	r := network.Receipt{
		CorrelationKey:  key,
		TxHash:          crypto.Keccak256Hash(n.deployer.Bytes(), binary.BigEndian.AppendUint64(nil, n.nonce)),
		BlockNumber:     n.block,
		ContractAddress: addr,
		ReturnData:      ret,
		Reverted:        revert != "",
		RevertReason:    revert,
	}
	n.receipts[key] = r
	return r
}

// unlinked returns the first library slot, in name order, whose address
// holds no code. Callers hold mu.
func (n *Network) unlinked(libs map[string]common.Address) (string, bool) {
	slots := make([]string, 0, len(libs))
	for slot := range libs {
		slots = append(slots, slot)
	}
	sort.Strings(slots)
	for _, slot := range slots {
		if _, ok := n.code[libs[slot]]; !ok {
			return slot, true
		}
	}
	return "", false
}

func (n *Network) takeFault(key string) Fault {
	f, ok := n.faults[key]
	if ok {
		delete(n.faults, key)
	}
	return f
}

func (n *Network) begin(ctx context.Context) error {
	n.mu.Lock()
	n.inflight++
	if n.inflight > n.maxInflight {
		n.maxInflight = n.inflight
	}
	latency := n.latency
	n.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			n.end()
			return network.Transport(ctx.Err())
		}
	}
	if err := ctx.Err(); err != nil {
		n.end()
		return network.Transport(err)
	}
	return nil
}

func (n *Network) end() {
	n.mu.Lock()
	n.inflight--
	n.mu.Unlock()
}

func (n *Network) afterLanding(ctx context.Context, f Fault) error {
	switch f {
	case FaultDropConfirmation:
		return network.Transport(errors.New("confirmation lost"))
	case FaultHang:
		<-ctx.Done()
		return network.Transport(ctx.Err())
	}
	return nil
}

// validBytecode accepts unlinked placeholders; linking is the relayer's job.
func validBytecode(code string) bool {
	return len(code) > 2 && strings.HasPrefix(code, "0x")
}

func functionName(sig string) string {
	name, _, _ := strings.Cut(sig, "(")
	return name
}
