package report

import "github.com/shopspring/decimal"

// Currencies that appear in the report.
const (
	CurrencyJPY = "JPY"
	CurrencyBTC = "BTC"
	CurrencySum = "SUM"
)

// Balance types.
const (
	TypeCash             = "Cash"
	TypeMargin           = "Margin"
	TypeFreeMargin       = "Free Margin"
	TypeLeveragePosition = "Leverage Position"
)

// SummaryExchange is the exchange column of aggregate rows.
const SummaryExchange = "summary"

// BalanceRow is one line of the report.
type BalanceRow struct {
	Timestamp string
	Exchange  string
	Currency  string
	Type      string
	Amount    decimal.Decimal
}
