//go:build !no_btcbox

package gateway

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"gopkg.in/resty.v1"

	"balance-report/config"
)

const btcboxBaseURL = "https://www.btcbox.co.jp"

func init() {
	registerOptional(config.Btcbox, func(cfg config.BrokerConfig, opts Options) BalanceClient {
		return NewBtcboxClient(cfg, opts)
	})
}

// BtcboxClient 查询 BTCBOX 余额（POST /api/v1/balance/）。
type BtcboxClient struct {
	rest   *resty.Client
	key    string
	secret string
}

func NewBtcboxClient(cfg config.BrokerConfig, opts Options) *BtcboxClient {
	return &BtcboxClient{
		rest:   newRESTClient(baseURLOr(cfg.BaseURL, btcboxBaseURL), opts),
		key:    cfg.Key,
		secret: cfg.Secret,
	}
}

// sign 以 md5(secret) 的 hex 作为 HMAC 密钥对表单签名。
func (c *BtcboxClient) sign(form url.Values) string {
	sum := md5.Sum([]byte(c.secret))
	return hmacSHA256Hex(hex.EncodeToString(sum[:]), form.Encode())
}

// Positions 返回 <currency>_balance 字段构成的映射（不含冻结部分）。
func (c *BtcboxClient) Positions(ctx context.Context) (Balances, error) {
	form := url.Values{}
	form.Set("key", c.key)
	form.Set("nonce", nonce())
	form.Set("signature", c.sign(form))

	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetBody(form.Encode()).
		Post("/api/v1/balance/")
	var raw map[string]json.RawMessage
	if err := decodeResponse("btcbox balance", resp, err, &raw); err != nil {
		return nil, err
	}
	// 成功响应不带 result 字段，只有失败时返回 {"result":false,"code":...}
	if v, found := raw["result"]; found {
		var ok bool
		if json.Unmarshal(v, &ok) != nil || !ok {
			return nil, fmt.Errorf("btcbox balance: request rejected (code %s)", string(raw["code"]))
		}
	}
	out := numericFields(raw, func(k string) (string, bool) {
		if !strings.HasSuffix(k, "_balance") {
			return "", false
		}
		return strings.TrimSuffix(k, "_balance"), true
	})
	if len(out) == 0 {
		return nil, fmt.Errorf("btcbox balance: no balances in response: %s", snippet(resp.Body()))
	}
	return out, nil
}

func (c *BtcboxClient) CashBalances(ctx context.Context) (Balances, error) {
	return c.Positions(ctx)
}
