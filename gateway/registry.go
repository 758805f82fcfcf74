package gateway

import (
	"fmt"
	"sort"
	"strings"

	"balance-report/config"
)

// Factory 根据券商配置构建客户端。
type Factory func(cfg config.BrokerConfig, opts Options) BalanceClient

// optionalFactories 由可选集成文件在 init 中填充（受 build tag 控制）。
var optionalFactories = map[string]Factory{}

func registerOptional(name string, f Factory) {
	optionalFactories[strings.ToLower(name)] = f
}

// labels 报表中显示的交易所名称
var labels = map[string]string{
	"bitflyer":  "bitFlyer",
	"coincheck": "Coincheck",
	"quoine":    "Quoine",
	"bitbankcc": "bitbank",
	"btcbox":    "btcbox",
}

// Label 返回交易所在报表中的显示名。
func Label(name string) string {
	if l, ok := labels[strings.ToLower(name)]; ok {
		return l
	}
	return name
}

// Registry 交易所名称到工厂函数的显式映射。
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry 内置集成加上编译进来的可选集成。
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(config.Bitflyer, func(cfg config.BrokerConfig, opts Options) BalanceClient {
		return NewBitflyerClient(cfg, opts)
	})
	r.Register(config.Coincheck, func(cfg config.BrokerConfig, opts Options) BalanceClient {
		return NewCoincheckClient(cfg, opts)
	})
	r.Register(config.Quoine, func(cfg config.BrokerConfig, opts Options) BalanceClient {
		return NewQuoineClient(cfg, opts)
	})
	for name, f := range optionalFactories {
		r.Register(name, f)
	}
	return r
}

func (r *Registry) Register(name string, f Factory) {
	r.factories[strings.ToLower(name)] = f
}

// Lookup 总是返回一个 Integration；未注册时为不可用状态。
func (r *Registry) Lookup(name string) Integration {
	return Integration{Name: name, factory: r.factories[strings.ToLower(name)]}
}

// Names 已注册的集成（小写，排序）。
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.factories))
	for n := range r.factories {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Integration 一个交易所集成；factory 为空表示不可用。
type Integration struct {
	Name    string
	factory Factory
}

func (i Integration) Available() bool { return i.factory != nil }

func (i Integration) Label() string { return Label(i.Name) }

// New 构建客户端；不可用时返回 ErrUnavailable，调用方需先检查。
func (i Integration) New(cfg config.BrokerConfig, opts Options) (BalanceClient, error) {
	if i.factory == nil {
		return nil, fmt.Errorf("%s: %w", i.Name, ErrUnavailable)
	}
	return i.factory(cfg, opts), nil
}
