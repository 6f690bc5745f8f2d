// internal/config/config.go
package config

type Config struct {
	Networks  []NetworkConfig `yaml:"networks"`
	Metrics   MetricsConfig   `yaml:"metrics_settings"`
	Collector CollectorConfig `yaml:"collector"`
	State     StateConfig     `yaml:"state"`
	Logger    LoggerConfig    `yaml:"logger_settings"`
}

// ---- NETWORK ----

type NetworkConfig struct {
	Name     string `yaml:"name"`
	Endpoint string `yaml:"endpoint"`

	// ChainID is optional; 0 means ask the endpoint (eth_chainId).
	ChainID uint64 `yaml:"chain_id"`

	// MaxConcurrency overrides collector.max_concurrency for this network.
	MaxConcurrency int `yaml:"max_concurrency"`

	// Bridge is an optional bridge proxy address.
	Bridge string `yaml:"bridge"`

	Vaults []VaultConfig `yaml:"vaults"`
}

// ---- VAULT ----

type VaultConfig struct {
	Address string `yaml:"address"`
	Group   string `yaml:"group"`  // optional display group
	Symbol  string `yaml:"symbol"` // optional, overrides on-chain symbol()
}

// ---- EXPOSITION ----

type MetricsConfig struct {
	ListenAddress         string `yaml:"listen_address"`
	MetricsPath           string `yaml:"metrics_path"`
	CollectionIntervalSec int    `yaml:"collection_interval_sec"`
}

// ---- COLLECTOR ----

type CollectorConfig struct {
	CycleTimeoutSec     int    `yaml:"cycle_timeout_sec"` // 0 => 90% of interval
	ReadTimeoutMs       int    `yaml:"read_timeout_ms"`
	MaxAttempts         int    `yaml:"max_attempts"`
	RetryBackoffMs      int    `yaml:"retry_backoff_ms"`
	MaxConcurrency      int    `yaml:"max_concurrency"` // per network
	WithdrawalPeriodSec uint64 `yaml:"withdrawal_period_sec"`
	OnTotalFailure      string `yaml:"on_total_failure"` // retain | publish
}

const (
	OnTotalFailureRetain  = "retain"
	OnTotalFailurePublish = "publish"
)

// ---- STATE ----

type StateConfig struct {
	// Path of the SQLite file holding the last published snapshot.
	// Empty disables persistence.
	Path string `yaml:"path"`
}

// ---- LOGGER ----

type LoggerConfig struct {
	Level    string `yaml:"level"`    // debug|info|warn|error
	Encoding string `yaml:"encoding"` // json|console
}
