package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeTempConfig(t, `
brokers:
  - broker: Bitflyer
    enabled: true
    key: foo
    secret: bar
  - broker: Coincheck
    enabled: false
report:
  includeMargin: true
  timestampFormat: locale
http:
  timeout: 15s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bf, err := cfg.FindBroker(Bitflyer)
	if err != nil {
		t.Fatalf("find broker: %v", err)
	}
	if !bf.Enabled || bf.Key != "foo" || bf.Secret != "bar" {
		t.Fatalf("unexpected broker values: %+v", bf)
	}
	if !cfg.Report.IncludeMargin || cfg.Report.TimestampFormat != TimestampLocale {
		t.Fatalf("unexpected report values: %+v", cfg.Report)
	}
	if cfg.HTTP.Timeout != 15*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.HTTP.Timeout)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := writeTempConfig(t, `
brokers:
  - broker: Quoine
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Report.EmitSummary {
		t.Fatalf("emitSummary should default to true")
	}
	if cfg.Report.Timezone != "Asia/Tokyo" || cfg.Report.TimestampFormat != TimestampPattern {
		t.Fatalf("unexpected report defaults: %+v", cfg.Report)
	}
	if cfg.Ticker.BaseURL != "https://public.bitbank.cc" || cfg.Ticker.Pair != "btc_jpy" {
		t.Fatalf("unexpected ticker defaults: %+v", cfg.Ticker)
	}
	if cfg.Logging.Enabled {
		t.Fatalf("logging should be off by default")
	}
	if cfg.Metrics.Job != "balance_report" {
		t.Fatalf("unexpected metrics job %q", cfg.Metrics.Job)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeTempConfig(t, `
brokers:
  - broker: Coincheck
    enabled: true
    key: foo
    secret: bar
  - broker: Bitbankcc
    enabled: false
`)
	t.Setenv("BALANCE_COINCHECK_KEY", "env-key")
	t.Setenv("BALANCE_COINCHECK_SECRET", "env-secret")
	t.Setenv("BALANCE_BITBANKCC_KEY", "bb-key")
	cfg, err := LoadWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cc, _ := cfg.FindBroker(Coincheck)
	if cc.Key != "env-key" || cc.Secret != "env-secret" {
		t.Fatalf("env overrides not applied: %+v", cc)
	}
	bb, _ := cfg.FindBroker(Bitbankcc)
	if bb.Key != "bb-key" || bb.Secret != "" {
		t.Fatalf("unexpected bitbank credentials: %+v", bb)
	}
}

func TestEnvOverridesSatisfyValidation(t *testing.T) {
	path := writeTempConfig(t, `
brokers:
  - broker: Btcbox
    enabled: true
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for enabled broker without credentials")
	}
	t.Setenv("BALANCE_BTCBOX_KEY", "k")
	t.Setenv("BALANCE_BTCBOX_SECRET", "s")
	if _, err := LoadWithEnvOverrides(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFindBrokerMissing(t *testing.T) {
	cfg := Default()
	_, err := cfg.FindBroker(Quoine)
	var invalid ErrInvalid
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestFindBrokerIgnoresCase(t *testing.T) {
	cfg := Default()
	cfg.Brokers = []BrokerConfig{{Broker: "bitflyer"}}
	if _, err := cfg.FindBroker(Bitflyer); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*AppConfig){
		"empty broker name": func(c *AppConfig) { c.Brokers = []BrokerConfig{{}} },
		"duplicate broker": func(c *AppConfig) {
			c.Brokers = []BrokerConfig{{Broker: Quoine}, {Broker: "quoine"}}
		},
		"bad timestamp format": func(c *AppConfig) { c.Report.TimestampFormat = "iso" },
		"bad timezone":         func(c *AppConfig) { c.Report.Timezone = "Mars/Olympus" },
		"negative timeout":     func(c *AppConfig) { c.HTTP.Timeout = -time.Second },
		"negative rate limit":  func(c *AppConfig) { c.HTTP.RateLimit = -1 },
		"summary without ticker": func(c *AppConfig) {
			c.Ticker.BaseURL = ""
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			if err := Validate(cfg); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
	if err := Validate(Default()); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLocation(t *testing.T) {
	loc, err := ReportConfig{Timezone: "Asia/Tokyo"}.Location()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.String() != "Asia/Tokyo" {
		t.Fatalf("unexpected location %s", loc)
	}
	loc, err = ReportConfig{}.Location()
	if err != nil || loc != time.Local {
		t.Fatalf("empty timezone should resolve to local, got %v %v", loc, err)
	}
}
