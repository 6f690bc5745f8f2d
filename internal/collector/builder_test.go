// internal/collector/builder_test.go
package collector

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/bridge-vaults-exporter/internal/chain"
	cfg "github.com/tamzrod/bridge-vaults-exporter/internal/config"
	"github.com/tamzrod/bridge-vaults-exporter/internal/snapshot"
)

func deadEndpointConfig() *cfg.Config {
	return &cfg.Config{
		Metrics: cfg.MetricsConfig{CollectionIntervalSec: 10},
		Networks: []cfg.NetworkConfig{{
			Name:     "eth",
			Endpoint: "ws://127.0.0.1:1",
			Vaults:   []cfg.VaultConfig{{Address: "0x1111111111111111111111111111111111111111"}},
		}},
	}
}

func TestBuildReaders_UnreachableWebsocketIsNotFatal(t *testing.T) {
	c := deadEndpointConfig()
	require.NoError(t, cfg.Validate(c))
	cfg.Normalize(c)

	readers, closeAll, err := BuildReaders(c)
	require.NoError(t, err)
	defer closeAll()
	require.Contains(t, readers, "eth")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = readers["eth"].ChainID(ctx)
	require.Error(t, err)
	assert.Equal(t, chain.ErrTransport, chain.KindOf(err))
	assert.True(t, chain.IsTransient(err))
}

func TestBuildReaders_DuplicateNameRejected(t *testing.T) {
	c := deadEndpointConfig()
	c.Networks = append(c.Networks, c.Networks[0])

	_, _, err := BuildReaders(c)
	assert.Error(t, err)
}

func TestBuildPlan_VaultsThenBridge(t *testing.T) {
	c := deadEndpointConfig()
	c.Networks[0].Bridge = "0x9999999999999999999999999999999999999999"
	c.Networks[0].Vaults[0].Group = "usdt"
	cfg.Normalize(c)

	plan := BuildPlan(c)
	require.Len(t, plan.Networks, 1)
	require.Equal(t, 2, plan.Len())

	targets := plan.Networks[0].Targets
	assert.Equal(t, KindVault, targets[0].Kind)
	assert.Equal(t, "usdt", targets[0].Group)
	assert.Equal(t, KindBridge, targets[1].Kind)
	assert.Equal(t, common.HexToAddress("0x9999999999999999999999999999999999999999"), targets[1].Address)
	assert.Equal(t, cfg.DefaultMaxConcurrency, plan.Networks[0].MaxConcurrency)
}

func TestNew_DuplicateNetworkRejected(t *testing.T) {
	r := newFakeReader(1)
	_, err := New(Options{
		Plan: Plan{Networks: []Network{
			{Name: "eth", Targets: vaultTargets("eth", vaultA)},
			{Name: "eth", Targets: vaultTargets("eth", vaultB)},
		}},
		Readers: map[string]chain.Reader{"eth": r},
		Store:   snapshot.NewStore(nil),
	})
	assert.Error(t, err)
}
