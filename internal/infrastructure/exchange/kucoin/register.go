package kucoin

import (
	"xscan/internal/application/port"
	"xscan/internal/infrastructure/exchange"
	"xscan/internal/infrastructure/pricefeed"
)

// init() automatically registers the KuCoin market data factory
func init() {
	pricefeed.Register(exchange.KuCoin, func(opts pricefeed.Options) port.MarketDataSource {
		return New(opts)
	})
}
