package service

import (
	"math"
	"strings"

	"xscan/internal/domain/model"
)

// volumeFieldCandidates 各交易所成交量字段别名，按优先级排列
var volumeFieldCandidates = []string{
	"quoteVolume", "quoteVolume24h", "quote_volume_24h", "quote_volume",
	"quoteVol24h", "quoteVol",
	"baseVolume", "baseVolume24h", "base_volume_24h", "base_volume",
	"baseVol24h", "baseVol",
	"vol", "vol24h", "volCcy24h", "volValue", "value", "amount",
	"turnover", "turnover24h", "volume", "volumeUsd",
	"acc_trade_price_24h", "q", "Q", "v", "volume24h", "quoteAmount",
}

// conversionQuotes 非 USD 计价时依次尝试的换算对 {QUOTE}/X
var conversionQuotes = []string{"USDT", "USDC", "BUSD", "USD"}

// PriceLookup 在同一交易所的行情批次中按 base/quote 查价格
type PriceLookup func(base, quote string) (float64, bool)

func positive(v float64, ok bool) (float64, bool) {
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}

// toUSD 把以 quote 计价的金额换算为 USD
func toUSD(amount float64, quote string, lookup PriceLookup) (float64, bool) {
	if IsUSDQuote(quote) {
		return amount, true
	}
	if lookup == nil {
		return 0, false
	}
	for _, conv := range conversionQuotes {
		if px, ok := positive(lookup(quote, conv)); ok {
			return amount * px, true
		}
	}
	return 0, false
}

// lookupVolumeField 依次在顶层字段和 info 字段中寻找第一个正数
func lookupVolumeField(t *model.Ticker) (float64, bool) {
	for _, name := range volumeFieldCandidates {
		if v, ok := positive(t.Field(name)); ok {
			return v, true
		}
		if t.Info != nil {
			if v, ok := positive(t.Info.Float(name)); ok {
				return v, true
			}
		}
	}
	return 0, false
}

// EstimateUSDVolume 估算 24h USD 成交量，任何一步失败都继续下一步，最终返回 0
//
//  1. USD 计价且有 quoteVolume：直接返回
//  2. baseVolume * price，非 USD 计价时再换算
//  3. 成交量别名字段（顶层 + info）
//  4. 别名字段值非 USD 计价时换算
//  5. 仍失败则尝试换算原始 quoteVolume
//  6. 0
func EstimateUSDVolume(quote string, t *model.Ticker, price float64, lookup PriceLookup) float64 {
	if t == nil {
		return 0
	}
	quote = strings.ToUpper(strings.TrimSpace(quote))

	qvol, hasQ := positive(t.Field("quoteVolume"))
	if hasQ && IsUSDQuote(quote) {
		return qvol
	}

	if bvol, ok := positive(t.Field("baseVolume")); ok {
		if px, ok := positive(price, true); ok {
			if usd, ok := toUSD(bvol*px, quote, lookup); ok {
				return usd
			}
		}
	}

	if raw, ok := lookupVolumeField(t); ok {
		if usd, ok := toUSD(raw, quote, lookup); ok {
			return usd
		}
	}

	if hasQ {
		if usd, ok := toUSD(qvol, quote, lookup); ok {
			return usd
		}
	}
	return 0
}
