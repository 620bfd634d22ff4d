package service

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"xscan/internal/domain/model"
)

func lookupFrom(prices map[string]float64) PriceLookup {
	return func(base, quote string) (float64, bool) {
		p, ok := prices[CanonicalKey(base, quote)]
		return p, ok
	}
}

func TestEstimateUSDVolume_QuoteVolumeUSD(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	quotes := []string{"USDT", "USD", "USDC", "BUSD"}
	properties.Property("USD 计价直接返回 quoteVolume", prop.ForAll(
		func(q int, base, price float64) bool {
			tk := &model.Ticker{QuoteVolume: model.Float(500000), BaseVolume: model.Float(base)}
			return EstimateUSDVolume(quotes[q%len(quotes)], tk, price, nil) == 500000.0
		},
		gen.IntRange(0, 3),
		gen.Float64Range(0, 1e9),
		gen.Float64Range(0, 1e5),
	))

	properties.TestingRun(t)
}

func TestEstimateUSDVolume_KRWConversion(t *testing.T) {
	tk := &model.Ticker{BaseVolume: model.Float(100)}
	got := EstimateUSDVolume("KRW", tk, 50, lookupFrom(map[string]float64{"KRWUSDT": 0.00075}))
	if math.Abs(got-3.75) > 1e-9 {
		t.Fatalf("expected 3.75, got %v", got)
	}
}

func TestEstimateUSDVolume_Fallbacks(t *testing.T) {
	// baseVolume * price
	tk := &model.Ticker{BaseVolume: model.Float(10)}
	if got := EstimateUSDVolume("USDT", tk, 200, nil); got != 2000 {
		t.Errorf("expected 2000, got %v", got)
	}

	// info 别名字段，取第一个正数
	tk = &model.Ticker{Info: model.NewFields("vol", "0", "turnover", "12345.5", "volume", "1")}
	if got := EstimateUSDVolume("USDT", tk, 0, nil); got != 12345.5 {
		t.Errorf("expected 12345.5 from turnover, got %v", got)
	}

	// 别名字段非 USD 计价时通过 USDC 换算
	tk = &model.Ticker{Info: model.NewFields("acc_trade_price_24h", 1_000_000)}
	got := EstimateUSDVolume("EUR", tk, 0, lookupFrom(map[string]float64{"EURUSDC": 1.1}))
	if math.Abs(got-1_100_000) > 1e-6 {
		t.Errorf("expected 1100000, got %v", got)
	}

	// 无法换算时回落到 0
	tk = &model.Ticker{QuoteVolume: model.Float(1000)}
	if got := EstimateUSDVolume("KRW", tk, 0, lookupFrom(nil)); got != 0 {
		t.Errorf("expected 0 without conversion, got %v", got)
	}

	// 原始 quoteVolume 换算
	if got := EstimateUSDVolume("KRW", tk, 0, lookupFrom(map[string]float64{"KRWUSDT": 0.001})); math.Abs(got-1) > 1e-9 {
		t.Errorf("expected 1, got %v", got)
	}

	if EstimateUSDVolume("USDT", nil, 1, nil) != 0 {
		t.Error("nil ticker should be 0")
	}
	tk = &model.Ticker{Info: model.NewFields("volume", "abc")}
	if EstimateUSDVolume("USDT", tk, 1, nil) != 0 {
		t.Error("unparsable field should be 0")
	}
}
