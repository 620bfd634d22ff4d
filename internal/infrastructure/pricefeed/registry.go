package pricefeed

import (
	"sort"
	"time"

	"xscan/internal/application/port"

	"github.com/rs/zerolog/log"
)

// Options 构造数据源所需的配置，空地址使用交易所默认值
type Options struct {
	RestURL string
	WsURL   string
	Timeout time.Duration
}

// factory函数类型
type Factory func(opts Options) port.MarketDataSource

// registry maps exchange names to their respective market data factories
var registry = make(map[string]Factory)

// Register 注册一个交易所数据源 factory
// 这是由各个交易所包的init()函数调用来自注册的
func Register(exchangeName string, factory Factory) {
	if factory == nil {
		log.Warn().Str("exchange", exchangeName).Msg("invalid market data factory")
		return
	}
	if _, exists := registry[exchangeName]; exists {
		log.Warn().Str("exchange", exchangeName).Msg("market data factory already registered, overwriting")
	}
	registry[exchangeName] = factory
	log.Debug().Str("exchange", exchangeName).Msg("market data factory registered")
}

// Get 获取已注册的 factory
func Get(exchangeName string) (Factory, bool) {
	factory, ok := registry[exchangeName]
	return factory, ok
}

// Names 已注册的交易所，已排序
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
