package gateio

import (
	"xscan/internal/application/port"
	"xscan/internal/infrastructure/exchange"
	"xscan/internal/infrastructure/pricefeed"
)

// init() automatically registers the Gate.io market data factory
func init() {
	pricefeed.Register(exchange.GateIO, func(opts pricefeed.Options) port.MarketDataSource {
		return New(opts)
	})
}
