package bitget

import (
	"xscan/internal/application/port"
	"xscan/internal/infrastructure/exchange"
	"xscan/internal/infrastructure/pricefeed"
)

// init() automatically registers the Bitget market data factory
// 这样避免了在 factory 中硬编码 Bitget
func init() {
	pricefeed.Register(exchange.Bitget, func(opts pricefeed.Options) port.MarketDataSource {
		return New(opts)
	})
}
