package model

import "strings"

// ========== Market Catalog ==========

// Market 单个交易所上的一个交易对
type Market struct {
	Symbol   string   `json:"symbol"` // 交易所原始标识，如 BTC_USDT / BTC-USDT / BTCUSDT
	Base     string   `json:"base"`
	Quote    string   `json:"quote"`
	Spot     bool     `json:"spot"`
	Active   bool     `json:"active"`
	TakerFee *float64 `json:"taker_fee,omitempty"` // 吃单费率（小数），nil 表示交易所未提供
}

// Network 币种在某条链上的充提状态
type Network struct {
	Name     string `json:"name"`
	Withdraw bool   `json:"withdraw"`
	Deposit  bool   `json:"deposit"`
}

// Currency 币种及其支持的链
type Currency struct {
	Code     string             `json:"code"`
	Networks map[string]Network `json:"networks"`
}

// Catalog 一次 LoadMarkets 的结果
type Catalog struct {
	Markets    []Market            `json:"markets"`
	Currencies map[string]Currency `json:"currencies"` // key: 大写币种代码
}

// Currency 按币种代码查找，大小写不敏感
func (c *Catalog) Currency(code string) (*Currency, bool) {
	if c == nil || c.Currencies == nil {
		return nil, false
	}
	if cur, ok := c.Currencies[code]; ok {
		return &cur, true
	}
	for k, cur := range c.Currencies {
		if strings.EqualFold(k, code) {
			return &cur, true
		}
	}
	return nil, false
}

// ========== Tickers & Books ==========

// Ticker 行情快照，所有价格/成交量字段均为可选
type Ticker struct {
	Symbol      string   `json:"symbol"`
	Last        *float64 `json:"last,omitempty"`
	Bid         *float64 `json:"bid,omitempty"`
	Ask         *float64 `json:"ask,omitempty"`
	QuoteVolume *float64 `json:"quote_volume,omitempty"`
	BaseVolume  *float64 `json:"base_volume,omitempty"`
	Timestamp   int64    `json:"ts_ms,omitempty"` // 0 表示交易所未提供
	Info        *Fields  `json:"info,omitempty"`  // 交易所原始字段
}

// Field 按统一字段名读取顶层数值字段，不存在时返回 false
func (t *Ticker) Field(name string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	var p *float64
	switch name {
	case "last":
		p = t.Last
	case "bid":
		p = t.Bid
	case "ask":
		p = t.Ask
	case "quoteVolume":
		p = t.QuoteVolume
	case "baseVolume":
		p = t.BaseVolume
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Level 订单簿档位
type Level struct {
	Price float64 `json:"price"`
	Qty   float64 `json:"qty"`
}

// OrderBook 浅层订单簿，Bids 降序，Asks 升序
type OrderBook struct {
	Symbol    string  `json:"symbol"`
	Bids      []Level `json:"bids"`
	Asks      []Level `json:"asks"`
	Timestamp int64   `json:"ts_ms,omitempty"`
}

// Float 返回 v 的指针，便于构造可选字段
func Float(v float64) *float64 { return &v }

