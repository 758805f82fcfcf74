package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"balance-report/gateway"
	"balance-report/infrastructure/logger"
	"balance-report/inventory"
	"balance-report/metrics"
)

// PriceSource returns the latest BTC/JPY price.
type PriceSource interface {
	LastPrice(ctx context.Context) (decimal.Decimal, error)
}

// Source is one exchange slot in the visiting order.
type Source struct {
	Name    string
	Label   string
	Enabled bool
	Client  gateway.BalanceClient
}

// Options are the feature flags of a run.
type Options struct {
	IncludeMargin   bool
	EmitSummary     bool
	TimestampFormat string
	Location        *time.Location
}

// Result is what a completed run wrote. Price and Value stay zero when the
// summary is off.
type Result struct {
	Rows  []BalanceRow
	JPY   decimal.Decimal
	BTC   decimal.Decimal
	Price decimal.Decimal
	Value decimal.Decimal
}

// Aggregator visits every source once, in order, writing rows as it goes.
type Aggregator struct {
	sources []Source
	price   PriceSource
	out     *Writer
	opts    Options
	log     *logger.Logger
	metrics *metrics.Recorder
	now     func() time.Time
}

// NewAggregator wires a run. log and rec may be nil.
func NewAggregator(sources []Source, price PriceSource, out io.Writer, opts Options, log *logger.Logger, rec *metrics.Recorder) *Aggregator {
	if log == nil {
		log = logger.Wrap(zap.NewNop())
	}
	return &Aggregator{
		sources: sources,
		price:   price,
		out:     NewWriter(out),
		opts:    opts,
		log:     log,
		metrics: rec,
		now:     time.Now,
	}
}

type pass struct {
	stamp  string
	rows   []BalanceRow
	totals inventory.Totals
}

// Run produces the whole report. The first failing call aborts the run;
// rows already written stay written.
func (a *Aggregator) Run(ctx context.Context) (Result, error) {
	stamp, err := FormatTimestamp(a.now(), a.opts.TimestampFormat, a.opts.Location)
	if err != nil {
		return Result{}, err
	}
	if err := a.out.WriteHeader(); err != nil {
		return Result{}, fmt.Errorf("write header: %w", err)
	}

	p := &pass{stamp: stamp}
	for _, src := range a.sources {
		if !src.Enabled {
			a.log.Debug("exchange disabled", zap.String("exchange", src.Name))
			continue
		}
		if err := a.visit(ctx, p, src); err != nil {
			return p.result(), err
		}
	}

	res := p.result()
	if !a.opts.EmitSummary {
		a.log.Info("report complete", zap.Int("exchanges", p.totals.Len()), zap.Int("rows", len(p.rows)))
		return res, nil
	}

	if err := a.emit(p, SummaryExchange, CurrencyJPY, TypeCash, res.JPY); err != nil {
		return p.result(), err
	}
	if err := a.emit(p, SummaryExchange, CurrencyBTC, TypeCash, res.BTC); err != nil {
		return p.result(), err
	}

	var price decimal.Decimal
	err = a.timed(ctx, "ticker", "price", func(ctx context.Context) error {
		var err error
		price, err = a.price.LastPrice(ctx)
		return err
	})
	if err != nil {
		return p.result(), fmt.Errorf("latest price: %w", err)
	}
	value := p.totals.Valuation(price)
	if err := a.emit(p, SummaryExchange, CurrencySum, TypeCash, value); err != nil {
		return p.result(), err
	}
	a.metrics.Complete(value, a.now())

	res = p.result()
	res.Price = price
	res.Value = value
	a.log.Info("report complete",
		zap.Int("exchanges", p.totals.Len()),
		zap.Int("rows", len(p.rows)),
		zap.String("price", price.String()),
		zap.String("value_jpy", value.String()))
	return res, nil
}

func (a *Aggregator) visit(ctx context.Context, p *pass, src Source) error {
	if src.Client == nil {
		return fmt.Errorf("%s: %w", src.Name, gateway.ErrUnavailable)
	}

	var cash gateway.Balances
	err := a.timed(ctx, src.Label, "cash", func(ctx context.Context) error {
		var err error
		cash, err = src.Client.CashBalances(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("%s cash balance: %w", src.Label, err)
	}
	jpy, err := cash.Get(CurrencyJPY)
	if err != nil {
		return fmt.Errorf("%s: %w", src.Label, err)
	}
	btc, err := cash.Get(CurrencyBTC)
	if err != nil {
		return fmt.Errorf("%s: %w", src.Label, err)
	}

	jpy = roundJPY(jpy)
	p.totals.Add(jpy, btc)
	if err := a.emit(p, src.Label, CurrencyJPY, TypeCash, jpy); err != nil {
		return err
	}
	if err := a.emit(p, src.Label, CurrencyBTC, TypeCash, btc); err != nil {
		return err
	}

	if !a.opts.IncludeMargin {
		return nil
	}
	mc, ok := src.Client.(gateway.MarginClient)
	if !ok {
		return nil
	}
	var mb gateway.MarginBalance
	err = a.timed(ctx, src.Label, "margin", func(ctx context.Context) error {
		var err error
		mb, err = mc.MarginBalance(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("%s margin balance: %w", src.Label, err)
	}
	if err := a.emit(p, src.Label, CurrencyJPY, TypeMargin, roundJPY(mb.Margin)); err != nil {
		return err
	}
	if err := a.emit(p, src.Label, CurrencyJPY, TypeFreeMargin, roundJPY(mb.FreeMargin)); err != nil {
		return err
	}
	return a.emit(p, src.Label, CurrencyBTC, TypeLeveragePosition, mb.LeveragePosition)
}

func (a *Aggregator) emit(p *pass, exchange, currency, typ string, amount decimal.Decimal) error {
	row := BalanceRow{
		Timestamp: p.stamp,
		Exchange:  exchange,
		Currency:  currency,
		Type:      typ,
		Amount:    amount,
	}
	if err := a.out.Write(row); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	p.rows = append(p.rows, row)
	a.metrics.ObserveBalance(exchange, currency, typ, amount)
	return nil
}

func (a *Aggregator) timed(ctx context.Context, exchange, kind string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	took := time.Since(start)
	a.log.LogFetch(exchange, kind, took, err)
	a.metrics.ObserveFetch(exchange, kind, took, err)
	return err
}

func (p *pass) result() Result {
	return Result{
		Rows: p.rows,
		JPY:  p.totals.JPY(),
		BTC:  p.totals.BTC(),
	}
}

// roundJPY rounds to whole yen, half away from zero.
func roundJPY(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}
