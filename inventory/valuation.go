package inventory

import "github.com/shopspring/decimal"

// Totals 累计各交易所的 JPY / BTC 现金余额，只追加，最后一次性求和。
type Totals struct {
	jpy []decimal.Decimal
	btc []decimal.Decimal
}

// Add 追加一个交易所的 JPY 与 BTC 余额。
func (t *Totals) Add(jpy, btc decimal.Decimal) {
	t.jpy = append(t.jpy, jpy)
	t.btc = append(t.btc, btc)
}

func (t *Totals) JPY() decimal.Decimal { return sum(t.jpy) }

func (t *Totals) BTC() decimal.Decimal { return sum(t.btc) }

// Len 已累计的交易所数量。
func (t *Totals) Len() int { return len(t.jpy) }

// Valuation 以 BTC/JPY 价格折算总资产：btc*price + jpy。
func (t *Totals) Valuation(price decimal.Decimal) decimal.Decimal {
	return t.BTC().Mul(price).Add(t.JPY())
}

func sum(xs []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, x := range xs {
		total = total.Add(x)
	}
	return total
}
