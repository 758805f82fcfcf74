package market

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/resty.v1"
)

// Ticker 从 bitbank 公共行情接口获取最新成交价（无需鉴权）。
type Ticker struct {
	rest *resty.Client
	pair string
}

type tickerResponse struct {
	Success int `json:"success"`
	Data    struct {
		Code int             `json:"code"`
		Last decimal.Decimal `json:"last"`
		Buy  decimal.Decimal `json:"buy"`
		Sell decimal.Decimal `json:"sell"`
	} `json:"data"`
}

// NewTicker baseURL 例如 https://public.bitbank.cc，pair 例如 btc_jpy。
func NewTicker(baseURL, pair string, timeout time.Duration) *Ticker {
	rest := resty.New().SetHostURL(strings.TrimRight(baseURL, "/"))
	if timeout > 0 {
		rest.SetTimeout(timeout)
	}
	return &Ticker{rest: rest, pair: pair}
}

// LastPrice 返回 data.last。
func (t *Ticker) LastPrice(ctx context.Context) (decimal.Decimal, error) {
	resp, err := t.rest.R().SetContext(ctx).Get("/" + t.pair + "/ticker")
	if err != nil {
		return decimal.Zero, fmt.Errorf("ticker %s: %w", t.pair, err)
	}
	if resp.StatusCode() >= 300 {
		return decimal.Zero, fmt.Errorf("ticker %s status %d", t.pair, resp.StatusCode())
	}
	var tr tickerResponse
	if err := json.Unmarshal(resp.Body(), &tr); err != nil {
		return decimal.Zero, fmt.Errorf("ticker %s decode: %w", t.pair, err)
	}
	if tr.Success != 1 {
		return decimal.Zero, fmt.Errorf("ticker %s: error code %d", t.pair, tr.Data.Code)
	}
	return tr.Data.Last, nil
}
