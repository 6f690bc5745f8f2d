// internal/config/normalize.go
package config

import (
	"fmt"
	"strings"
	"time"
)

// Defaults applied by Normalize.
const (
	DefaultListenAddress    = "0.0.0.0:10000"
	DefaultMetricsPath      = "/metrics"
	DefaultReadTimeoutMs    = 5000
	DefaultMaxAttempts      = 3
	DefaultRetryBackoffMs   = 200
	DefaultMaxConcurrency   = 4
	DefaultWithdrawalPeriod = 86400
	DefaultLogLevel         = "info"
	DefaultLogEncoding      = "json"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	m := &cfg.Metrics
	if m.ListenAddress == "" {
		m.ListenAddress = DefaultListenAddress
	}
	if m.MetricsPath == "" {
		m.MetricsPath = DefaultMetricsPath
	}

	c := &cfg.Collector
	if c.ReadTimeoutMs == 0 {
		c.ReadTimeoutMs = DefaultReadTimeoutMs
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RetryBackoffMs == 0 {
		c.RetryBackoffMs = DefaultRetryBackoffMs
	}
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = DefaultMaxConcurrency
	}
	if c.WithdrawalPeriodSec == 0 {
		c.WithdrawalPeriodSec = DefaultWithdrawalPeriod
	}
	if c.OnTotalFailure == "" {
		c.OnTotalFailure = OnTotalFailureRetain
	}

	l := &cfg.Logger
	l.Level = strings.ToLower(l.Level)
	if l.Level == "" {
		l.Level = DefaultLogLevel
	}
	if l.Encoding == "" {
		l.Encoding = DefaultLogEncoding
	}

	// explicit names first, so a default never shadows one
	taken := make(map[string]bool, len(cfg.Networks))
	for i := range cfg.Networks {
		n := &cfg.Networks[i]
		n.Name = strings.TrimSpace(n.Name)
		if n.Name != "" {
			taken[n.Name] = true
		}
	}

	for i := range cfg.Networks {
		n := &cfg.Networks[i]

		if n.Name == "" {
			n.Name = defaultNetworkName(i, taken)
			taken[n.Name] = true
		}
		if n.MaxConcurrency == 0 {
			n.MaxConcurrency = c.MaxConcurrency
		}

		for j := range n.Vaults {
			v := &n.Vaults[j]
			v.Group = strings.TrimSpace(v.Group)
			v.Symbol = strings.TrimSpace(v.Symbol)
		}
	}
}

// defaultNetworkName returns network-<i>, or the first network-<i>-<k>
// not already taken.
func defaultNetworkName(i int, taken map[string]bool) string {
	name := fmt.Sprintf("network-%d", i)
	for k := 1; taken[name]; k++ {
		name = fmt.Sprintf("network-%d-%d", i, k)
	}
	return name
}

// CycleTimeout is the deadline of one collection cycle.
// Unset, it is 90% of the collection interval: a cycle held up by a
// hanging endpoint then still ends before the next tick instead of
// pushing it into the overlap-skip path.
func (c *Config) CycleTimeout() time.Duration {
	if c.Collector.CycleTimeoutSec > 0 {
		return time.Duration(c.Collector.CycleTimeoutSec) * time.Second
	}
	interval := time.Duration(c.Metrics.CollectionIntervalSec) * time.Second
	return interval * 9 / 10
}
