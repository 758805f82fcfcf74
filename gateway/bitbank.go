//go:build !no_bitbank

package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/resty.v1"

	"balance-report/config"
)

const bitbankBaseURL = "https://api.bitbank.cc"

func init() {
	registerOptional(config.Bitbankcc, func(cfg config.BrokerConfig, opts Options) BalanceClient {
		return NewBitbankClient(cfg, opts)
	})
}

// BitbankClient 查询 bitbank 资产（/v1/user/assets）。
type BitbankClient struct {
	rest   *resty.Client
	key    string
	secret string
}

type bitbankAssets struct {
	Success int `json:"success"`
	Data    struct {
		Code   int `json:"code"`
		Assets []struct {
			Asset        string          `json:"asset"`
			OnhandAmount decimal.Decimal `json:"onhand_amount"`
			FreeAmount   decimal.Decimal `json:"free_amount"`
		} `json:"assets"`
	} `json:"data"`
}

func NewBitbankClient(cfg config.BrokerConfig, opts Options) *BitbankClient {
	return &BitbankClient{
		rest:   newRESTClient(baseURLOr(cfg.BaseURL, bitbankBaseURL), opts),
		key:    cfg.Key,
		secret: cfg.Secret,
	}
}

// Positions 返回币种到持有数量（onhand_amount）的映射。
func (c *BitbankClient) Positions(ctx context.Context) (Balances, error) {
	const path = "/v1/user/assets"
	n := nonce()
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeaders(map[string]string{
			"ACCESS-KEY":       c.key,
			"ACCESS-NONCE":     n,
			"ACCESS-SIGNATURE": hmacSHA256Hex(c.secret, n+path),
		}).
		Get(path)
	var body bitbankAssets
	if err := decodeResponse("bitbank assets", resp, err, &body); err != nil {
		return nil, err
	}
	if body.Success != 1 {
		return nil, fmt.Errorf("bitbank assets: error code %d", body.Data.Code)
	}
	out := make(Balances, len(body.Data.Assets))
	for _, a := range body.Data.Assets {
		out[strings.ToUpper(a.Asset)] = a.OnhandAmount
	}
	return out, nil
}

func (c *BitbankClient) CashBalances(ctx context.Context) (Balances, error) {
	return c.Positions(ctx)
}
