package config

import (
	"fmt"
	"strings"
)

// Validate ensures required fields are present.
func Validate(cfg AppConfig) error {
	seen := make(map[string]bool, len(cfg.Brokers))
	for i, b := range cfg.Brokers {
		name := strings.ToLower(strings.TrimSpace(b.Broker))
		if name == "" {
			return ErrInvalid(fmt.Sprintf("brokers[%d].broker is required", i))
		}
		if seen[name] {
			return ErrInvalid(fmt.Sprintf("broker %s configured twice", b.Broker))
		}
		seen[name] = true
		if b.Enabled && (b.Key == "" || b.Secret == "") {
			return ErrInvalid(fmt.Sprintf("broker %s key/secret is required when enabled (or env overrides)", b.Broker))
		}
	}
	switch cfg.Report.TimestampFormat {
	case TimestampPattern, TimestampLocale:
	default:
		return ErrInvalid(fmt.Sprintf("report.timestampFormat must be %q or %q", TimestampPattern, TimestampLocale))
	}
	if _, err := cfg.Report.Location(); err != nil {
		return ErrInvalid(err.Error())
	}
	if cfg.HTTP.Timeout < 0 {
		return ErrInvalid("http.timeout must be >= 0")
	}
	if cfg.HTTP.RateLimit < 0 {
		return ErrInvalid("http.rateLimit must be >= 0")
	}
	if cfg.Report.EmitSummary && (cfg.Ticker.BaseURL == "" || cfg.Ticker.Pair == "") {
		return ErrInvalid("ticker.baseURL/pair is required when report.emitSummary is on")
	}
	return nil
}

// ErrInvalid 用于参数验证错误。
type ErrInvalid string

func (e ErrInvalid) Error() string { return string(e) }
