package report

import (
	"fmt"

	"balance-report/config"
	"balance-report/gateway"
)

// BuildSources resolves every exchange of config.ExchangeOrder against the
// registry. A missing broker block, or an enabled broker whose integration is
// not compiled in, fails here before any request is made.
func BuildSources(cfg config.AppConfig, reg *gateway.Registry, opts gateway.Options) ([]Source, error) {
	sources := make([]Source, 0, len(config.ExchangeOrder))
	for _, name := range config.ExchangeOrder {
		bc, err := cfg.FindBroker(name)
		if err != nil {
			return nil, err
		}
		in := reg.Lookup(name)
		src := Source{Name: name, Label: in.Label(), Enabled: bc.Enabled}
		if !bc.Enabled {
			sources = append(sources, src)
			continue
		}
		if !in.Available() {
			return nil, fmt.Errorf("broker %s is enabled: %w", name, gateway.ErrUnavailable)
		}
		src.Client, err = in.New(bc, opts)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// OptionsFromConfig maps the report section onto run options.
func OptionsFromConfig(rc config.ReportConfig) (Options, error) {
	loc, err := rc.Location()
	if err != nil {
		return Options{}, err
	}
	return Options{
		IncludeMargin:   rc.IncludeMargin,
		EmitSummary:     rc.EmitSummary,
		TimestampFormat: rc.TimestampFormat,
		Location:        loc,
	}, nil
}
