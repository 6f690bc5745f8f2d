// internal/chain/reader.go
package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Reader abstracts the contract reads the collector needs from one network.
// Every call is one logical read: it yields a complete bundle or an error.
// No retries. Retry policy belongs to the caller.
type Reader interface {
	ChainID(ctx context.Context) (uint64, error)
	ReadDecimals(ctx context.Context, token common.Address) (TokenInfo, error)
	ReadVaultState(ctx context.Context, vault common.Address) (VaultState, error)
	ReadBridgeState(ctx context.Context, proxy common.Address) (BridgeState, error)
}

// TokenInfo is immutable token metadata.
type TokenInfo struct {
	Address  common.Address
	Symbol   string
	Decimals uint8
}

// VaultState is one consistent read of a vault, pinned to a single block.
type VaultState struct {
	Token                  common.Address
	Balance                *big.Int
	TotalAssets            *big.Int
	WithdrawLimitPerPeriod *big.Int

	CurrentPeriodID  uint64
	PeriodTotal      *big.Int
	PeriodConsidered *big.Int

	// LastUpdate is the contract-reported last update (unix seconds).
	LastUpdate *big.Int
}

// BridgeState is the relay metadata of a bridge proxy.
type BridgeState struct {
	Round      uint32
	RelayCount uint32
}
