// internal/collector/types.go
package collector

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/tamzrod/bridge-vaults-exporter/internal/snapshot"
)

// Kind discriminates what a target is read as.
type Kind uint8

const (
	KindVault Kind = iota + 1
	KindBridge
)

func (k Kind) String() string {
	switch k {
	case KindVault:
		return "vault"
	case KindBridge:
		return "bridge"
	default:
		return "unknown"
	}
}

// Target is one (network, contract) pair read every cycle.
// Immutable after Build.
type Target struct {
	Network string
	Kind    Kind
	Address common.Address

	// Vault display overrides (optional).
	Group  string
	Symbol string
}

// Network groups the targets sharing one RPC endpoint.
type Network struct {
	Name string

	// ChainID is the configured chain id; 0 means ask the reader.
	ChainID uint64

	// MaxConcurrency caps in-flight target reads against this endpoint.
	MaxConcurrency int

	Targets []Target
}

// Plan is the fixed set of targets for the process lifetime.
type Plan struct {
	Networks []Network
}

// Len returns the number of targets across all networks.
func (p Plan) Len() int {
	n := 0
	for _, nw := range p.Networks {
		n += len(nw.Targets)
	}
	return n
}

// Result is the outcome of reading one target in one cycle.
// Exactly one of Series / Err is meaningful.
type Result struct {
	Target   Target
	Series   []snapshot.SeriesValue
	Attempts int
	Err      error
}

// Stats summarizes one cycle.
type Stats struct {
	Targets   int
	Succeeded int
	Failed    int
	// Unfinished targets were still in flight when the cycle deadline hit.
	Unfinished int
	Series     int
}
