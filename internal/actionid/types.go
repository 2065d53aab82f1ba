// internal/actionid/types.go
package actionid

import (
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// Kind distinguishes deployments from calls on deployed instances.
type Kind string

const (
	// KindDeploy creates a contract or library instance.
	KindDeploy Kind = "deploy"
	// KindCall invokes a function on a deployed instance.
	KindCall Kind = "call"
)

// Valid reports whether k is a known action kind.
func (k Kind) Valid() bool {
	return k == KindDeploy || k == KindCall
}

// ID is the structured identity of one action.
//
// Module is the id of the module that declares the action. Shared modules are
// evaluated once, so the same action always carries the same module no matter
// which parent pulled it in.
type ID struct {
	Module string
	Kind   Kind
	// Target is the descriptor name for deploys, or the local name of the
	// called instance for calls.
	Target string
	// Tag disambiguates actions within a module. Deploys use the descriptor
	// name; calls use an explicit tag or an implicit one from the Allocator.
	Tag string
}

// String serializes the ID into its canonical `<module>#<tag>` form.
func (id ID) String() string {
	if id.IsZero() {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(id.Module)
	sb.WriteRune(separator)
	sb.WriteString(id.Tag)
	return sb.String()
}

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool {
	return id.Module == "" && id.Tag == ""
}

// Equal compares canonical identity. Kind and Target are derivation inputs;
// two IDs with the same module and tag are the same action.
func (id ID) Equal(other ID) bool {
	return id.Module == other.Module && id.Tag == other.Tag
}

// CorrelationKey is the hex keccak256 of the canonical ID. It is attached to
// every submission so a receipt can be matched to its action after a crash.
func (id ID) CorrelationKey() string {
	return crypto.Keccak256Hash([]byte(id.String())).Hex()
}
