package inventory

import (
	"strings"

	"github.com/shopspring/decimal"
)

// 杠杆持仓方向
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Position 一笔未平仓的杠杆持仓。
type Position struct {
	Side   string
	Amount decimal.Decimal
}

// NetPosition 返回买方数量之和减去卖方数量之和。
func NetPosition(positions []Position) decimal.Decimal {
	long, short := decimal.Zero, decimal.Zero
	for _, p := range positions {
		switch strings.ToLower(p.Side) {
		case SideBuy:
			long = long.Add(p.Amount)
		case SideSell:
			short = short.Add(p.Amount)
		}
	}
	return long.Sub(short)
}
