package binance

import (
	"xscan/internal/application/port"
	"xscan/internal/infrastructure/exchange"
	"xscan/internal/infrastructure/pricefeed"
)

// init() automatically registers the Binance market data factory
// 这样避免了在 factory 中硬编码 Binance
func init() {
	pricefeed.Register(exchange.Binance, func(opts pricefeed.Options) port.MarketDataSource {
		return New(opts)
	})
}
