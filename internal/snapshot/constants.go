// internal/snapshot/constants.go
package snapshot

// Exposition names. These are the public scrape contract
// and MUST NOT be configurable.

// ---- METRIC NAMES ----

const (
	MetricTokenDecimals              = "token_decimals"
	MetricBalance                    = "balance"
	MetricTotalAssets                = "total_assets"
	MetricWithdrawLimitPerPeriod     = "withdraw_limit_per_period"
	MetricWithdrawalPeriodTotal      = "withdrawal_period_total"
	MetricWithdrawalPeriodConsidered = "withdrawal_period_considered"
	MetricUpdatedAt                  = "updated_at"
	MetricRelayRound                 = "relay_round"
	MetricRelayCount                 = "relay_count"
)

// ---- LABEL KEYS ----

const (
	LabelChainID  = "chain_id"
	LabelVault    = "vault"
	LabelToken    = "token"
	LabelSymbol   = "symbol"
	LabelGroup    = "group"
	LabelPeriodID = "period_id"
	LabelBridge   = "bridge"
)
