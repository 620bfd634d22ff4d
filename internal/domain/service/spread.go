package service

import "math"

// SpreadPercent 原始价差百分比 (sell-buy)/buy*100
func SpreadPercent(buy, sell float64) float64 {
	return (sell - buy) / buy * 100
}

// PriceGap 相对价差 |sell-buy|/buy
func PriceGap(buy, sell float64) float64 {
	return math.Abs(sell-buy) / buy
}

// ProfitPercent 扣除双边 taker 手续费后的利润百分比
func ProfitPercent(spreadPct, buyFee, sellFee float64) float64 {
	return spreadPct - (buyFee+sellFee)*100
}

// ProfitColor 利润着色等级
func ProfitColor(profitPct, threshold float64) int {
	// -1 red, 0 yellow, +1 green (pure decision)
	if profitPct >= threshold {
		return +1
	}
	if profitPct <= 0 {
		return -1
	}
	return 0
}
