// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
// Optional fields may still be zero: Normalize fills them afterwards.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}

	// ------------------------------------------------------------
	// GLOBAL SETTINGS
	// ------------------------------------------------------------

	interval := cfg.Metrics.CollectionIntervalSec
	if interval <= 0 {
		return fmt.Errorf("metrics_settings.collection_interval_sec must be > 0, got %d", interval)
	}
	if p := cfg.Metrics.MetricsPath; p != "" && !strings.HasPrefix(p, "/") {
		return fmt.Errorf("metrics_settings.metrics_path %q must start with /", p)
	}

	c := cfg.Collector
	if c.CycleTimeoutSec < 0 || c.CycleTimeoutSec > interval {
		return fmt.Errorf(
			"collector.cycle_timeout_sec must be in [0,%d] (collection interval), got %d",
			interval,
			c.CycleTimeoutSec,
		)
	}
	if c.ReadTimeoutMs < 0 {
		return fmt.Errorf("collector.read_timeout_ms must be >= 0, got %d", c.ReadTimeoutMs)
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("collector.max_attempts must be >= 0, got %d", c.MaxAttempts)
	}
	if c.RetryBackoffMs < 0 {
		return fmt.Errorf("collector.retry_backoff_ms must be >= 0, got %d", c.RetryBackoffMs)
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("collector.max_concurrency must be >= 0, got %d", c.MaxConcurrency)
	}
	switch c.OnTotalFailure {
	case "", OnTotalFailureRetain, OnTotalFailurePublish:
	default:
		return fmt.Errorf("collector.on_total_failure must be %q or %q, got %q",
			OnTotalFailureRetain, OnTotalFailurePublish, c.OnTotalFailure)
	}

	switch strings.ToLower(cfg.Logger.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logger_settings.level %q is not one of debug|info|warn|error", cfg.Logger.Level)
	}
	switch cfg.Logger.Encoding {
	case "", "json", "console":
	default:
		return fmt.Errorf("logger_settings.encoding %q is not one of json|console", cfg.Logger.Encoding)
	}

	// ------------------------------------------------------------
	// TARGETS
	// ------------------------------------------------------------

	if len(cfg.Networks) == 0 {
		return errors.New("networks: at least one network is required")
	}

	names := make(map[string]int)

	for i, n := range cfg.Networks {
		where := fmt.Sprintf("networks[%d]", i)

		if name := strings.TrimSpace(n.Name); name != "" {
			if prev, exists := names[name]; exists {
				return fmt.Errorf("%s: name %q already used by networks[%d]", where, name, prev)
			}
			names[name] = i
		}

		if err := validateEndpoint(n.Endpoint); err != nil {
			return fmt.Errorf("%s: %w", where, err)
		}
		if n.MaxConcurrency < 0 {
			return fmt.Errorf("%s: max_concurrency must be >= 0, got %d", where, n.MaxConcurrency)
		}

		if n.Bridge != "" && !common.IsHexAddress(n.Bridge) {
			return fmt.Errorf("%s: bridge %q is not a valid address", where, n.Bridge)
		}
		if len(n.Vaults) == 0 && n.Bridge == "" {
			return fmt.Errorf("%s: no vaults and no bridge configured", where)
		}

		// key = checksum-independent address
		seen := make(map[common.Address]int)

		for j, v := range n.Vaults {
			if !common.IsHexAddress(v.Address) {
				return fmt.Errorf("%s.vaults[%d]: address %q is not a valid address", where, j, v.Address)
			}
			addr := common.HexToAddress(v.Address)
			if prev, exists := seen[addr]; exists {
				return fmt.Errorf(
					"%s.vaults[%d]: address %s duplicates vaults[%d]",
					where,
					j,
					addr.Hex(),
					prev,
				)
			}
			seen[addr] = j
		}
	}

	return nil
}

func validateEndpoint(endpoint string) error {
	if strings.TrimSpace(endpoint) == "" {
		return errors.New("endpoint is required")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("endpoint %q: %w", endpoint, err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("endpoint %q: unsupported scheme %q", endpoint, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint %q: missing host", endpoint)
	}
	return nil
}
