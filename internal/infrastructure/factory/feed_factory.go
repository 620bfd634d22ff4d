package factory

import (
	"context"

	"github.com/rs/zerolog/log"

	"xscan/internal/application/port"
	"xscan/internal/infrastructure/config"
	"xscan/internal/infrastructure/pricefeed"

	// 各交易所包的 init() 会向 pricefeed 注册工厂
	_ "xscan/internal/infrastructure/exchange/binance"
	_ "xscan/internal/infrastructure/exchange/bitget"
	_ "xscan/internal/infrastructure/exchange/gateio"
	_ "xscan/internal/infrastructure/exchange/kucoin"
)

// streamer 支持后台推流缓存的数据源
type streamer interface {
	Start(ctx context.Context) error
}

// NewSources 初始化买卖两侧用到的交易所数据源
// 配置中 enabled=false 或未注册的交易所会被跳过，由 scan 服务记为告警
func NewSources(ctx context.Context, cfg *config.Config) map[string]port.MarketDataSource {
	out := make(map[string]port.MarketDataSource)

	for _, id := range wanted(cfg) {
		exCfg := cfg.Exchange(id)
		if !exCfg.Enabled {
			log.Info().Str("exchange", id).Msg("exchange disabled in config")
			continue
		}

		// 从注册表中获取工厂函数（工厂由各交易所包自己注册）
		factory, ok := pricefeed.Get(id)
		if !ok {
			log.Warn().Str("exchange", id).Strs("supported", pricefeed.Names()).Msg("unknown exchange")
			continue
		}

		src := factory(pricefeed.Options{
			RestURL: exCfg.RestURL,
			WsURL:   exCfg.WsURL,
			Timeout: cfg.RequestTimeout(),
		})
		if s, ok := src.(streamer); ok && exCfg.WsURL != "" {
			if err := s.Start(ctx); err != nil {
				log.Warn().Str("exchange", id).Err(err).Msg("ticker stream not started")
			}
		}
		if src.Capabilities().NoNetworks {
			log.Warn().Str("exchange", id).
				Msg("exchange publishes no network metadata, its pairs never pass the chain check")
		}
		out[id] = src
		log.Info().Str("exchange", id).Msg("market data source initialized")
	}
	return out
}

// wanted 买卖两侧交易所的并集，保持配置顺序
func wanted(cfg *config.Config) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range [][]string{cfg.Scan.BuyExchanges, cfg.Scan.SellExchanges} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
