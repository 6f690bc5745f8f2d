// internal/config/load_test.go
package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const sample = `
networks:
  - name: ethereum
    endpoint: ${ETH_RPC_URL}
    bridge: "0xf8A0D53DDC6C92c3c59824f380C0f3d2a3cf521C"
    vaults:
      - address: "0x81598d5362eac63310e5719315497c5b8980c579"
        group: ${GROUP}
metrics_settings:
  listen_address: 127.0.0.1:10000
  collection_interval_sec: 15
collector:
  max_attempts: 5
`

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	cfg, missing, err := Parse([]byte(sample), env(map[string]string{
		"ETH_RPC_URL": "https://eth.example.org",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(missing, []string{"GROUP"}) {
		t.Fatalf("missing vars: got %v", missing)
	}
	if cfg.Networks[0].Endpoint != "https://eth.example.org" {
		t.Fatalf("endpoint not expanded: %q", cfg.Networks[0].Endpoint)
	}
	if cfg.Networks[0].Vaults[0].Group != "" {
		t.Fatalf("unset var should expand to empty, got %q", cfg.Networks[0].Vaults[0].Group)
	}
	if cfg.Metrics.CollectionIntervalSec != 15 || cfg.Collector.MaxAttempts != 5 {
		t.Fatalf("bad decode: %+v %+v", cfg.Metrics, cfg.Collector)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("sample should validate: %v", err)
	}
}

func TestParse_UnknownFieldRejected(t *testing.T) {
	_, _, err := Parse([]byte("networks: []\nbogus: 1\n"), env(nil))
	if err == nil {
		t.Fatalf("expected unknown field error, got nil")
	}
}

func TestExpandEnv_ReportsOnce(t *testing.T) {
	out, missing := ExpandEnv([]byte("${A}-${B}-${A}-$NOT_A_REF"), env(map[string]string{"B": "b"}))
	if string(out) != "-b--$NOT_A_REF" {
		t.Fatalf("got %q", out)
	}
	if !reflect.DeepEqual(missing, []string{"A"}) {
		t.Fatalf("missing: got %v", missing)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ETH_RPC_URL", "https://eth.example.org")
	t.Setenv("GROUP", "usdt")

	cfg, missing, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("unexpected missing vars: %v", missing)
	}
	if cfg.Networks[0].Vaults[0].Group != "usdt" {
		t.Fatalf("group: got %q", cfg.Networks[0].Vaults[0].Group)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
