package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/resty.v1"
)

var (
	// ErrCurrencyNotFound 交易所返回中缺少期望的币种。
	ErrCurrencyNotFound = errors.New("currency not found")
	// ErrUnavailable 集成未编译进当前二进制。
	ErrUnavailable = errors.New("integration unavailable")
)

// Balances 按大写币种代码索引的余额。
type Balances map[string]decimal.Decimal

// Get 查找币种余额；缺失时返回 ErrCurrencyNotFound。
func (b Balances) Get(currency string) (decimal.Decimal, error) {
	v, ok := b[strings.ToUpper(currency)]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrCurrencyNotFound, strings.ToUpper(currency))
	}
	return v, nil
}

// BalanceClient 所有交易所都提供的现金余额查询。
type BalanceClient interface {
	CashBalances(ctx context.Context) (Balances, error)
}

// MarginClient 由支持杠杆账户的交易所额外实现。
type MarginClient interface {
	MarginBalance(ctx context.Context) (MarginBalance, error)
}

// MarginBalance 杠杆账户摘要（JPY 保证金与 BTC 净持仓）。
type MarginBalance struct {
	Margin           decimal.Decimal
	FreeMargin       decimal.Decimal
	LeveragePosition decimal.Decimal
}

// Options 构建客户端时的公共参数。
type Options struct {
	// Timeout 为 0 时不限制请求时长。
	Timeout time.Duration
	// RateLimit 每个交易所每秒最多请求数，0 表示不限。
	RateLimit float64
}

// timeNowMillis 用于 nonce / timestamp，测试中可替换。
var timeNowMillis = func() int64 { return time.Now().UnixMilli() }

var (
	nonceMu   sync.Mutex
	lastNonce int64
)

// nonce 毫秒时间戳，保证严格递增（同一毫秒内的连续请求也不重复）。
func nonce() string {
	nonceMu.Lock()
	defer nonceMu.Unlock()
	n := timeNowMillis()
	if n <= lastNonce {
		n = lastNonce + 1
	}
	lastNonce = n
	return strconv.FormatInt(n, 10)
}

func resetNonce() {
	nonceMu.Lock()
	lastNonce = 0
	nonceMu.Unlock()
}

func newRESTClient(baseURL string, opts Options) *resty.Client {
	c := resty.New().SetHostURL(strings.TrimRight(baseURL, "/"))
	if opts.Timeout > 0 {
		c.SetTimeout(opts.Timeout)
	}
	if lim := limiterFor(opts); lim != nil {
		c.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			return lim.Wait(r.Context())
		})
	}
	return c
}

func baseURLOr(configured, fallback string) string {
	if configured != "" {
		return configured
	}
	return fallback
}

// hmacSHA256Hex 返回 hex 编码的 HMAC-SHA256 签名。
func hmacSHA256Hex(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// decodeResponse 检查状态码并解析 JSON。
func decodeResponse(what string, resp *resty.Response, err error, out interface{}) error {
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if resp.StatusCode() >= 300 {
		return fmt.Errorf("%s status %d: %s", what, resp.StatusCode(), snippet(resp.Body()))
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%s decode: %w", what, err)
	}
	return nil
}

// numericFields 把扁平 JSON 对象中可解析为数字的字段收集为余额。
func numericFields(raw map[string]json.RawMessage, key func(string) (string, bool)) Balances {
	out := make(Balances, len(raw))
	for k, v := range raw {
		cur, ok := key(k)
		if !ok {
			continue
		}
		var amt decimal.Decimal
		if err := json.Unmarshal(v, &amt); err != nil {
			continue
		}
		out[strings.ToUpper(cur)] = amt
	}
	return out
}

func snippet(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
