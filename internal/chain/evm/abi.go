// internal/chain/evm/abi.go
package evm

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Minimal view-only ABIs. Only the getters the exporter reads.

const erc20JSON = `[
 {"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
 {"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
 {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const vaultJSON = `[
 {"type":"function","name":"token","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
 {"type":"function","name":"totalAssets","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"withdrawLimitPerPeriod","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"withdrawalPeriods","stateMutability":"view","inputs":[{"name":"id","type":"uint256"}],"outputs":[{"name":"total","type":"uint256"},{"name":"considered","type":"uint256"}]},
 {"type":"function","name":"lastReport","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

const bridgeJSON = `[
 {"type":"function","name":"lastRound","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint32"}]},
 {"type":"function","name":"rounds","stateMutability":"view","inputs":[{"name":"round","type":"uint32"}],"outputs":[{"name":"end","type":"uint32"},{"name":"ttl","type":"uint32"},{"name":"relays","type":"uint32"},{"name":"requiredSignatures","type":"uint32"}]}
]`

var (
	erc20ABI  = mustParse(erc20JSON)
	vaultABI  = mustParse(vaultJSON)
	bridgeABI = mustParse(bridgeJSON)
)

func mustParse(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic("evm: bad embedded abi: " + err.Error())
	}
	return parsed
}
