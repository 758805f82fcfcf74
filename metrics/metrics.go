// Package metrics records balance report results for Prometheus.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/shopspring/decimal"
)

const namespace = "balance_report"

// Recorder 持有一次运行的指标；nil Recorder 的方法都是 no-op。
type Recorder struct {
	registry      *prometheus.Registry
	balance       *prometheus.GaugeVec
	totalValue    prometheus.Gauge
	fetchDuration *prometheus.HistogramVec
	fetchErrors   *prometheus.CounterVec
	lastSuccess   prometheus.Gauge
}

// NewRecorder 在独立 registry 上注册指标，避免污染全局 DefaultRegisterer。
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		balance: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "balance",
			Help:      "报表中每一行的数值",
		}, []string{"exchange", "currency", "type"}),
		totalValue: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "total_value_jpy",
			Help:      "按 BTC/JPY 折算的总资产",
		}),
		fetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "交易所/行情请求耗时",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"exchange", "kind"}),
		fetchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "失败的交易所/行情请求",
		}, []string{"exchange", "kind"}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "最近一次完整运行结束的时间",
		}),
	}
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveBalance 记录一行报表。
func (r *Recorder) ObserveBalance(exchange, currency, typ string, amount decimal.Decimal) {
	if r == nil {
		return
	}
	r.balance.WithLabelValues(exchange, currency, typ).Set(amount.InexactFloat64())
}

// ObserveFetch 记录一次请求耗时与结果。
func (r *Recorder) ObserveFetch(exchange, kind string, took time.Duration, err error) {
	if r == nil {
		return
	}
	r.fetchDuration.WithLabelValues(exchange, kind).Observe(took.Seconds())
	if err != nil {
		r.fetchErrors.WithLabelValues(exchange, kind).Inc()
	}
}

// Complete 记录总资产并标记运行成功。
func (r *Recorder) Complete(totalValue decimal.Decimal, at time.Time) {
	if r == nil {
		return
	}
	r.totalValue.Set(totalValue.InexactFloat64())
	r.lastSuccess.Set(float64(at.Unix()))
}

// Push 将本次运行的指标推送到 Pushgateway（替换同 job 的旧数据）。
func (r *Recorder) Push(ctx context.Context, url, job string) error {
	if r == nil || url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
