package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"balance-report/infrastructure/logger"
)

// Broker names as they appear in the config file, in the order the report visits them.
const (
	Bitflyer  = "Bitflyer"
	Coincheck = "Coincheck"
	Quoine    = "Quoine"
	Bitbankcc = "Bitbankcc"
	Btcbox    = "Btcbox"
)

// ExchangeOrder is the fixed visiting order of the report.
var ExchangeOrder = []string{Bitflyer, Coincheck, Quoine, Bitbankcc, Btcbox}

// Timestamp formats supported by the report writer.
const (
	TimestampPattern = "pattern"
	TimestampLocale  = "locale"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Brokers []BrokerConfig `yaml:"brokers"`
	Report  ReportConfig   `yaml:"report"`
	HTTP    HTTPConfig     `yaml:"http"`
	Ticker  TickerConfig   `yaml:"ticker"`
	Logging logger.Config  `yaml:"logging"`
	Metrics MetricsConfig  `yaml:"metrics"`
}

// BrokerConfig is the per-exchange credential block.
type BrokerConfig struct {
	Broker  string `yaml:"broker"`
	Enabled bool   `yaml:"enabled"`
	Key     string `yaml:"key"`
	Secret  string `yaml:"secret"`
	BaseURL string `yaml:"baseURL"` // empty means the exchange's public endpoint
}

type ReportConfig struct {
	IncludeMargin   bool   `yaml:"includeMargin"`
	EmitSummary     bool   `yaml:"emitSummary"`
	TimestampFormat string `yaml:"timestampFormat"` // pattern | locale
	Timezone        string `yaml:"timezone"`
}

type HTTPConfig struct {
	// Timeout of zero leaves exchange calls unbounded.
	Timeout time.Duration `yaml:"timeout"`
	// RateLimit caps requests per second to each exchange; zero disables it.
	RateLimit float64 `yaml:"rateLimit"`
}

type TickerConfig struct {
	BaseURL string `yaml:"baseURL"`
	Pair    string `yaml:"pair"`
}

type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgatewayURL"`
	Job            string `yaml:"job"`
}

// Default returns the configuration used for any field the file leaves out.
func Default() AppConfig {
	return AppConfig{
		Report: ReportConfig{
			EmitSummary:     true,
			TimestampFormat: TimestampPattern,
			Timezone:        "Asia/Tokyo",
		},
		Ticker: TickerConfig{
			BaseURL: "https://public.bitbank.cc",
			Pair:    "btc_jpy",
		},
		Logging: logger.DefaultConfig(),
		Metrics: MetricsConfig{Job: "balance_report"},
	}
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// envOverrides maps BALANCE_<BROKER>_KEY / BALANCE_<BROKER>_SECRET.
type envOverrides struct {
	BitflyerKey     string `split_words:"true"`
	BitflyerSecret  string `split_words:"true"`
	CoincheckKey    string `split_words:"true"`
	CoincheckSecret string `split_words:"true"`
	QuoineKey       string `split_words:"true"`
	QuoineSecret    string `split_words:"true"`
	BitbankccKey    string `split_words:"true"`
	BitbankccSecret string `split_words:"true"`
	BtcboxKey       string `split_words:"true"`
	BtcboxSecret    string `split_words:"true"`
}

func (e envOverrides) credentials(broker string) (key, secret string) {
	switch {
	case strings.EqualFold(broker, Bitflyer):
		return e.BitflyerKey, e.BitflyerSecret
	case strings.EqualFold(broker, Coincheck):
		return e.CoincheckKey, e.CoincheckSecret
	case strings.EqualFold(broker, Quoine):
		return e.QuoineKey, e.QuoineSecret
	case strings.EqualFold(broker, Bitbankcc):
		return e.BitbankccKey, e.BitbankccSecret
	case strings.EqualFold(broker, Btcbox):
		return e.BtcboxKey, e.BtcboxSecret
	}
	return "", ""
}

// LoadWithEnvOverrides loads config then overrides broker credentials from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	var env envOverrides
	if err := envconfig.Process("BALANCE", &env); err != nil {
		return cfg, fmt.Errorf("read env overrides: %w", err)
	}
	for i := range cfg.Brokers {
		key, secret := env.credentials(cfg.Brokers[i].Broker)
		if key != "" {
			cfg.Brokers[i].Key = key
		}
		if secret != "" {
			cfg.Brokers[i].Secret = secret
		}
	}
	return cfg, Validate(cfg)
}

// FindBroker returns the block for the named broker. A missing entry is a
// configuration error.
func (c AppConfig) FindBroker(name string) (BrokerConfig, error) {
	for _, b := range c.Brokers {
		if strings.EqualFold(b.Broker, name) {
			return b, nil
		}
	}
	return BrokerConfig{}, ErrInvalid(fmt.Sprintf("broker config for %s not found", name))
}

// Location resolves report.timezone.
func (r ReportConfig) Location() (*time.Location, error) {
	if r.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("report.timezone: %w", err)
	}
	return loc, nil
}
