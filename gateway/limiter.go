package gateway

import (
	"context"
	"math"

	"golang.org/x/time/rate"
)

// RateLimiter 控制请求速率，避免触发交易所限流。
type RateLimiter interface {
	Wait(ctx context.Context) error
}

var _ RateLimiter = (*rate.Limiter)(nil)

// limiterFor 按 Options 构建令牌桶；RateLimit 为 0 时不限流。
// 桶容量取 ceil(RateLimit)，至少为 1。
func limiterFor(opts Options) *rate.Limiter {
	if opts.RateLimit <= 0 {
		return nil
	}
	burst := int(math.Ceil(opts.RateLimit))
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
}
