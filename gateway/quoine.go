package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"gopkg.in/resty.v1"

	"balance-report/config"
)

const (
	quoineBaseURL = "https://api.quoine.com"
	// quoineMarginPair 杠杆账户使用的交易对
	quoineMarginPair = "BTCJPY"
)

// QuoineClient 查询 Quoine 现金余额与 BTCJPY 杠杆账户。
type QuoineClient struct {
	rest   *resty.Client
	key    string
	secret string
}

type quoineAccountBalance struct {
	Currency string          `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
}

type quoineTradingAccount struct {
	CurrencyPairCode string          `json:"currency_pair_code"`
	Balance          decimal.Decimal `json:"balance"`
	FreeMargin       decimal.Decimal `json:"free_margin"`
	Position         decimal.Decimal `json:"position"`
}

func NewQuoineClient(cfg config.BrokerConfig, opts Options) *QuoineClient {
	return &QuoineClient{
		rest:   newRESTClient(baseURLOr(cfg.BaseURL, quoineBaseURL), opts),
		key:    cfg.Key,
		secret: cfg.Secret,
	}
}

// authToken 生成 X-Quoine-Auth 所需的 HS256 JWT。
func (c *QuoineClient) authToken(path string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"path":     path,
		"nonce":    timeNowMillis(),
		"token_id": c.key,
	})
	signed, err := token.SignedString([]byte(c.secret))
	if err != nil {
		return "", fmt.Errorf("sign quoine token: %w", err)
	}
	return signed, nil
}

func (c *QuoineClient) get(ctx context.Context, what, path string, out interface{}) error {
	auth, err := c.authToken(path)
	if err != nil {
		return err
	}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeaders(map[string]string{
			"X-Quoine-API-Version": "2",
			"X-Quoine-Auth":        auth,
			"Content-Type":         "application/json",
		}).
		Get(path)
	return decodeResponse(what, resp, err, out)
}

// CashBalances 返回 /accounts/balance 中各币种的 balance。
func (c *QuoineClient) CashBalances(ctx context.Context) (Balances, error) {
	var list []quoineAccountBalance
	if err := c.get(ctx, "quoine balance", "/accounts/balance", &list); err != nil {
		return nil, err
	}
	out := make(Balances, len(list))
	for _, b := range list {
		out[strings.ToUpper(b.Currency)] = b.Balance
	}
	return out, nil
}

// MarginBalance 取 BTCJPY 杠杆账户的余额、可用保证金与持仓。
func (c *QuoineClient) MarginBalance(ctx context.Context) (MarginBalance, error) {
	var accounts []quoineTradingAccount
	if err := c.get(ctx, "quoine trading accounts", "/trading_accounts", &accounts); err != nil {
		return MarginBalance{}, err
	}
	for _, a := range accounts {
		if strings.EqualFold(a.CurrencyPairCode, quoineMarginPair) {
			return MarginBalance{
				Margin:           a.Balance,
				FreeMargin:       a.FreeMargin,
				LeveragePosition: a.Position,
			}, nil
		}
	}
	return MarginBalance{}, fmt.Errorf("quoine trading account %s: %w", quoineMarginPair, ErrCurrencyNotFound)
}
