package gateway

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/resty.v1"

	"balance-report/config"
)

const bitflyerBaseURL = "https://api.bitflyer.com"

// BitflyerClient 查询 bitFlyer 现金余额（/v1/me/getbalance）。
type BitflyerClient struct {
	rest   *resty.Client
	key    string
	secret string
}

type bitflyerBalance struct {
	CurrencyCode string          `json:"currency_code"`
	Amount       decimal.Decimal `json:"amount"`
	Available    decimal.Decimal `json:"available"`
}

func NewBitflyerClient(cfg config.BrokerConfig, opts Options) *BitflyerClient {
	return &BitflyerClient{
		rest:   newRESTClient(baseURLOr(cfg.BaseURL, bitflyerBaseURL), opts),
		key:    cfg.Key,
		secret: cfg.Secret,
	}
}

// CashBalances 返回各币种的 available 数量。
func (c *BitflyerClient) CashBalances(ctx context.Context) (Balances, error) {
	const path = "/v1/me/getbalance"
	ts := strconv.FormatInt(timeNowMillis(), 10)
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeaders(map[string]string{
			"ACCESS-KEY":       c.key,
			"ACCESS-TIMESTAMP": ts,
			"ACCESS-SIGN":      hmacSHA256Hex(c.secret, ts+http.MethodGet+path),
		}).
		Get(path)
	var list []bitflyerBalance
	if err := decodeResponse("bitflyer balance", resp, err, &list); err != nil {
		return nil, err
	}
	out := make(Balances, len(list))
	for _, b := range list {
		out[strings.ToUpper(b.CurrencyCode)] = b.Available
	}
	return out, nil
}
