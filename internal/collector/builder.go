// internal/collector/builder.go
package collector

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tamzrod/bridge-vaults-exporter/internal/chain"
	"github.com/tamzrod/bridge-vaults-exporter/internal/chain/evm"
	cfg "github.com/tamzrod/bridge-vaults-exporter/internal/config"
)

// BuildPlan turns validated, normalized config into the target plan.
// Vaults come first in config order; the bridge (if any) last.
func BuildPlan(c *cfg.Config) Plan {
	plan := Plan{Networks: make([]Network, 0, len(c.Networks))}

	for _, n := range c.Networks {
		nw := Network{
			Name:           n.Name,
			ChainID:        n.ChainID,
			MaxConcurrency: n.MaxConcurrency,
		}
		for _, v := range n.Vaults {
			nw.Targets = append(nw.Targets, Target{
				Network: n.Name,
				Kind:    KindVault,
				Address: common.HexToAddress(v.Address),
				Group:   v.Group,
				Symbol:  v.Symbol,
			})
		}
		if strings.TrimSpace(n.Bridge) != "" {
			nw.Targets = append(nw.Targets, Target{
				Network: n.Name,
				Kind:    KindBridge,
				Address: common.HexToAddress(n.Bridge),
			})
		}
		plan.Networks = append(plan.Networks, nw)
	}
	return plan
}

// RetryPolicy derives the per-target retry policy from config.
func RetryPolicy(c cfg.CollectorConfig) chain.RetryPolicy {
	backoff := time.Duration(c.RetryBackoffMs) * time.Millisecond
	return chain.RetryPolicy{
		MaxAttempts:    c.MaxAttempts,
		Backoff:        backoff,
		MaxBackoff:     8 * backoff,
		AttemptTimeout: time.Duration(c.ReadTimeoutMs) * time.Millisecond,
	}
}

// BuildReaders creates one reader per network.
// Readers connect on first use, so an unreachable node fails reads,
// not startup. The returned closer releases every reader.
func BuildReaders(c *cfg.Config) (map[string]chain.Reader, func() error, error) {
	readers := make(map[string]chain.Reader, len(c.Networks))
	clients := make([]*evm.Client, 0, len(c.Networks))

	closeAll := func() error {
		for _, cl := range clients {
			_ = cl.Close()
		}
		return nil
	}

	for _, n := range c.Networks {
		if _, dup := readers[n.Name]; dup {
			_ = closeAll()
			return nil, nil, fmt.Errorf("network %q: name used twice", n.Name)
		}
		cl, err := evm.Dial(evm.Config{
			Endpoint:         n.Endpoint,
			WithdrawalPeriod: c.Collector.WithdrawalPeriodSec,
		})
		if err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("network %q: %w", n.Name, err)
		}
		clients = append(clients, cl)
		readers[n.Name] = cl
	}
	return readers, closeAll, nil
}
