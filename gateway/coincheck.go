package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/resty.v1"

	"balance-report/config"
	"balance-report/inventory"
)

const (
	coincheckBaseURL = "https://coincheck.com"
	// coincheckPageLimit 持仓分页大小
	coincheckPageLimit = 100
)

// CoincheckClient 查询 Coincheck 现金余额与杠杆账户。
type CoincheckClient struct {
	rest    *resty.Client
	baseURL string
	key     string
	secret  string
}

type coincheckLeverageBalance struct {
	Success         bool   `json:"success"`
	Error           string `json:"error"`
	Margin          struct {
		JPY decimal.Decimal `json:"jpy"`
	} `json:"margin"`
	MarginAvailable struct {
		JPY decimal.Decimal `json:"jpy"`
	} `json:"margin_available"`
}

type coincheckPosition struct {
	ID     int64           `json:"id"`
	Pair   string          `json:"pair"`
	Status string          `json:"status"`
	Side   string          `json:"side"`
	Amount decimal.Decimal `json:"amount"`
}

type coincheckPositionsPage struct {
	Success bool                `json:"success"`
	Error   string              `json:"error"`
	Data    []coincheckPosition `json:"data"`
}

func NewCoincheckClient(cfg config.BrokerConfig, opts Options) *CoincheckClient {
	base := strings.TrimRight(baseURLOr(cfg.BaseURL, coincheckBaseURL), "/")
	return &CoincheckClient{
		rest:    newRESTClient(base, opts),
		baseURL: base,
		key:     cfg.Key,
		secret:  cfg.Secret,
	}
}

// get 发送签名 GET；签名内容为 nonce + 完整 URL。
func (c *CoincheckClient) get(ctx context.Context, what, path string, query url.Values, out interface{}) error {
	full := c.baseURL + path
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	n := nonce()
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeaders(map[string]string{
			"ACCESS-KEY":       c.key,
			"ACCESS-NONCE":     n,
			"ACCESS-SIGNATURE": hmacSHA256Hex(c.secret, n+full),
		}).
		Get(full)
	return decodeResponse(what, resp, err, out)
}

// CashBalances 解析 /api/accounts/balance 中的所有数值字段（jpy、btc ...）。
func (c *CoincheckClient) CashBalances(ctx context.Context) (Balances, error) {
	var raw map[string]json.RawMessage
	if err := c.get(ctx, "coincheck balance", "/api/accounts/balance", nil, &raw); err != nil {
		return nil, err
	}
	if err := coincheckFailure("coincheck balance", raw); err != nil {
		return nil, err
	}
	return numericFields(raw, func(k string) (string, bool) {
		// jpy_reserved / btc_lend_in_use 等不是现金余额
		return k, !strings.Contains(k, "_")
	}), nil
}

// MarginBalance 返回杠杆保证金、可用保证金以及 BTC 净持仓（买 - 卖）。
func (c *CoincheckClient) MarginBalance(ctx context.Context) (MarginBalance, error) {
	var lb coincheckLeverageBalance
	if err := c.get(ctx, "coincheck leverage balance", "/api/accounts/leverage_balance", nil, &lb); err != nil {
		return MarginBalance{}, err
	}
	if !lb.Success {
		return MarginBalance{}, fmt.Errorf("coincheck leverage balance: %s", lb.Error)
	}
	positions, err := c.OpenPositions(ctx)
	if err != nil {
		return MarginBalance{}, err
	}
	return MarginBalance{
		Margin:           lb.Margin.JPY,
		FreeMargin:       lb.MarginAvailable.JPY,
		LeveragePosition: inventory.NetPosition(positions),
	}, nil
}

// OpenPositions 逐页拉取所有未平仓杠杆持仓。
func (c *CoincheckClient) OpenPositions(ctx context.Context) ([]inventory.Position, error) {
	var out []inventory.Position
	var after int64
	for {
		q := url.Values{}
		q.Set("status", "open")
		q.Set("limit", strconv.Itoa(coincheckPageLimit))
		q.Set("order", "desc")
		if after != 0 {
			q.Set("starting_after", strconv.FormatInt(after, 10))
		}
		var page coincheckPositionsPage
		if err := c.get(ctx, "coincheck leverage positions", "/api/exchange/leverage/positions", q, &page); err != nil {
			return nil, err
		}
		if !page.Success {
			return nil, fmt.Errorf("coincheck leverage positions: %s", page.Error)
		}
		for _, p := range page.Data {
			out = append(out, inventory.Position{Side: p.Side, Amount: p.Amount})
		}
		if len(page.Data) < coincheckPageLimit {
			return out, nil
		}
		last := page.Data[len(page.Data)-1].ID
		if last == after {
			return out, nil
		}
		after = last
	}
}

func coincheckFailure(what string, raw map[string]json.RawMessage) error {
	var ok bool
	if v, found := raw["success"]; found && json.Unmarshal(v, &ok) == nil && ok {
		return nil
	}
	var msg string
	if v, found := raw["error"]; found {
		_ = json.Unmarshal(v, &msg)
	}
	return fmt.Errorf("%s: request rejected: %s", what, msg)
}
