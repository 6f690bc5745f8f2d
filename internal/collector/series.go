// internal/collector/series.go
package collector

import (
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tamzrod/bridge-vaults-exporter/internal/chain"
	"github.com/tamzrod/bridge-vaults-exporter/internal/snapshot"
)

// vaultSeries derives every series of one vault read.
// Pure: no IO, no state.
func vaultSeries(chainID uint64, t Target, st chain.VaultState, info chain.TokenInfo) []snapshot.SeriesValue {
	id := strconv.FormatUint(chainID, 10)
	vault := fullAddress(t.Address)
	token := fullAddress(st.Token)

	symbol := info.Symbol
	if t.Symbol != "" {
		symbol = t.Symbol
	}

	base := []snapshot.Label{
		{Key: snapshot.LabelChainID, Value: id},
		{Key: snapshot.LabelVault, Value: vault},
		{Key: snapshot.LabelToken, Value: token},
		{Key: snapshot.LabelSymbol, Value: symbol},
	}
	if t.Group != "" {
		base = append(base, snapshot.Label{Key: snapshot.LabelGroup, Value: t.Group})
	}

	period := with(base, snapshot.Label{
		Key:   snapshot.LabelPeriodID,
		Value: strconv.FormatUint(st.CurrentPeriodID, 10),
	})

	return []snapshot.SeriesValue{
		snapshot.Uint(snapshot.MetricTokenDecimals, uint64(info.Decimals),
			snapshot.Label{Key: snapshot.LabelChainID, Value: id},
			snapshot.Label{Key: snapshot.LabelToken, Value: token},
			snapshot.Label{Key: snapshot.LabelSymbol, Value: symbol},
		),
		snapshot.NewSeries(snapshot.MetricBalance, st.Balance, base...),
		snapshot.NewSeries(snapshot.MetricTotalAssets, st.TotalAssets, base...),
		snapshot.NewSeries(snapshot.MetricWithdrawLimitPerPeriod, st.WithdrawLimitPerPeriod, base...),
		snapshot.NewSeries(snapshot.MetricWithdrawalPeriodTotal, st.PeriodTotal, period...),
		snapshot.NewSeries(snapshot.MetricWithdrawalPeriodConsidered, st.PeriodConsidered, period...),
		snapshot.NewSeries(snapshot.MetricUpdatedAt, st.LastUpdate,
			snapshot.Label{Key: snapshot.LabelChainID, Value: id},
			snapshot.Label{Key: snapshot.LabelVault, Value: vault},
		),
	}
}

func bridgeSeries(chainID uint64, t Target, st chain.BridgeState) []snapshot.SeriesValue {
	labels := []snapshot.Label{
		{Key: snapshot.LabelChainID, Value: strconv.FormatUint(chainID, 10)},
		{Key: snapshot.LabelBridge, Value: fullAddress(t.Address)},
	}
	return []snapshot.SeriesValue{
		snapshot.Uint(snapshot.MetricRelayRound, uint64(st.Round), labels...),
		snapshot.Uint(snapshot.MetricRelayCount, uint64(st.RelayCount), labels...),
	}
}

// with returns a fresh slice; labels shared between series must not alias.
func with(labels []snapshot.Label, extra ...snapshot.Label) []snapshot.Label {
	out := make([]snapshot.Label, 0, len(labels)+len(extra))
	out = append(out, labels...)
	return append(out, extra...)
}

// fullAddress is the lowercase 0x-prefixed form used in labels.
func fullAddress(a common.Address) string {
	return strings.ToLower(a.Hex())
}

// seriesKey identifies a series within one snapshot.
func seriesKey(sv snapshot.SeriesValue) string {
	var b strings.Builder
	b.WriteString(sv.Name)
	for _, l := range sv.Labels {
		b.WriteByte(0)
		b.WriteString(l.Key)
		b.WriteByte('=')
		b.WriteString(l.Value)
	}
	return b.String()
}
