package port

import (
	"context"
	"errors"

	"xscan/internal/domain/model"
)

// ErrUnsupported 交易所不支持该查询（如无公开订单簿接口）
var ErrUnsupported = errors.New("operation not supported by exchange")

// Capabilities 交易所能力/差异配置
type Capabilities struct {
	DisplayName          string            // 展示名，如 "Gate.io"
	MaxTickersPerRequest int               // >0 时按批次拉取行情
	SpotOnly             bool              // 目录混有合约时只保留现货
	Aliases              map[string]string // 币种别名 -> 统一代码，如 XBT -> BTC
	NoNetworks           bool              // 公开接口不提供充提链信息，链选择总是 unknown
}

// MarketDataSource 公开行情数据源，每轮扫描每个交易所调用一次
type MarketDataSource interface {
	Name() string
	Capabilities() Capabilities

	// LoadMarkets 交易对目录 + 币种链信息
	LoadMarkets(ctx context.Context) (*model.Catalog, error)
	// LoadTickers symbols 为 nil 时返回全部，key 为交易所原始 symbol
	LoadTickers(ctx context.Context, symbols []string) (map[string]*model.Ticker, error)
	// LoadOrderBook 浅层订单簿，不支持时返回 ErrUnsupported
	LoadOrderBook(ctx context.Context, symbol string, depth int) (*model.OrderBook, error)
}
