package service

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"xscan/internal/domain/model"
)

func TestParseSymbol(t *testing.T) {
	cases := []struct {
		raw         string
		base, quote string
		ok          bool
	}{
		{"BTC/USDT", "BTC", "USDT", true},
		{"btc-usdt", "BTC", "USDT", true},
		{"ETH_USDC", "ETH", "USDC", true},
		{"BTC/USDT:USDT", "BTC", "USDT", true},
		{"BTC-USDT-SWAP", "BTC", "USDT", true},
		{"BTCUSDT", "", "", false},
		{"/USDT", "", "", false},
		{"BTC/", "", "", false},
		{"", "", "", false},
	}
	for _, c := range cases {
		base, quote, ok := ParseSymbol(c.raw)
		if ok != c.ok || base != c.base || quote != c.quote {
			t.Errorf("ParseSymbol(%q) = %q, %q, %v; want %q, %q, %v", c.raw, base, quote, ok, c.base, c.quote, c.ok)
		}
	}
}

func TestCanonicalKey(t *testing.T) {
	if got := CanonicalKey("btc", "usdt"); got != "BTCUSDT" {
		t.Errorf("expected BTCUSDT, got %s", got)
	}
	if got := CanonicalKey("1000PEPE", "USDT"); got != "PEPEUSDT" {
		t.Errorf("expected PEPEUSDT, got %s", got)
	}
	if got := Multiplier("1000PEPE"); got != 1000 {
		t.Errorf("expected multiplier 1000, got %v", got)
	}
	// 1INCH 不是倍数前缀
	if got := CanonicalKey("1INCH", "USDT"); got != "1INCHUSDT" {
		t.Errorf("expected 1INCHUSDT, got %s", got)
	}
	if got := Multiplier("BTC"); got != 1 {
		t.Errorf("expected multiplier 1, got %v", got)
	}
}

func TestIsUSDQuote(t *testing.T) {
	for _, q := range []string{"USDT", "usd", "USDC", "BUSD"} {
		if !IsUSDQuote(q) {
			t.Errorf("%s should be USD-like", q)
		}
	}
	for _, q := range []string{"BTC", "KRW", "EUR", ""} {
		if IsUSDQuote(q) {
			t.Errorf("%s should not be USD-like", q)
		}
	}
}

func TestIsLeveraged(t *testing.T) {
	yes := []string{"BTC3L", "ETH5S", "DOGE10L", "3L", "UP", "BULL", "xrp up"}
	for _, b := range yes {
		if !IsLeveraged(b, "USDT") {
			t.Errorf("%s should be leveraged", b)
		}
	}
	no := []string{"BTC", "JUP", "SUP", "1INCH", "C98", "PEPE", "SYRUP", "PITBULL", "SETUP", "AI3", "X3L"}
	for _, b := range no {
		if IsLeveraged(b, "USDT") {
			t.Errorf("%s should not be leveraged", b)
		}
	}
}

func TestBuildIndexPrefersUSDQuote(t *testing.T) {
	markets := []model.Market{
		{Symbol: "BTC-USDT", Base: "BTC", Quote: "USDT", Spot: true, Active: true},
		{Symbol: "BTC/USDT", Base: "BTC", Quote: "USDT", Spot: true, Active: true},
		{Symbol: "1000PEPE_USDT", Base: "1000PEPE", Quote: "USDT", Spot: true, Active: true},
		{Symbol: "PEPE_USDT", Base: "PEPE", Quote: "USDT", Spot: true, Active: true},
		{Symbol: "ETHBTC"},
	}
	idx := BuildIndex(markets)

	if l := idx["BTCUSDT"]; l == nil || l.Market.Symbol != "BTC-USDT" {
		t.Fatalf("expected lexicographic winner BTC-USDT, got %+v", l)
	}
	if l := idx["PEPEUSDT"]; l == nil || l.Market.Symbol != "PEPE_USDT" || l.Multiplier != 1 {
		t.Fatalf("expected PEPE_USDT without multiplier, got %+v", l)
	}
	if len(idx) != 2 {
		t.Errorf("expected 2 keys, got %d", len(idx))
	}

	// 输入顺序不影响结果
	rev := make([]model.Market, len(markets))
	for i := range markets {
		rev[len(markets)-1-i] = markets[i]
	}
	idx2 := BuildIndex(rev)
	for k, l := range idx {
		if idx2[k].Market.Symbol != l.Market.Symbol {
			t.Errorf("key %s: %s vs %s", k, idx2[k].Market.Symbol, l.Market.Symbol)
		}
	}
}

func TestBuildIndexPrefersSpot(t *testing.T) {
	idx := BuildIndex([]model.Market{
		{Symbol: "BTC/USDT:USDT", Base: "BTC", Quote: "USDT", Spot: false, Active: true},
		{Symbol: "BTC/USDT", Base: "BTC", Quote: "USDT", Spot: true, Active: true},
	})
	if l := idx["BTCUSDT"]; l == nil || !l.Market.Spot {
		t.Fatalf("expected spot listing, got %+v", l)
	}
}

func TestCommonKeysSorted(t *testing.T) {
	a := BuildIndex([]model.Market{{Symbol: "ETH/USDT"}, {Symbol: "BTC/USDT"}, {Symbol: "SOL/USDT"}})
	b := BuildIndex([]model.Market{{Symbol: "SOL-USDT"}, {Symbol: "BTC-USDT"}})
	got := CommonKeys(a, b)
	if strings.Join(got, ",") != "BTCUSDT,SOLUSDT" {
		t.Errorf("unexpected common keys %v", got)
	}
}

func TestCanonicalSymbol_Idempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	coins := []string{"BTC", "eth", "1000PEPE", "Sol", "DOGE", "1INCH", "XRP3L"}
	quotes := []string{"USDT", "usdc", "BUSD", "KRW", "USD"}
	seps := []string{"/", "-", "_"}

	properties.Property("两次标准化结果相同", prop.ForAll(
		func(b, q, s int) bool {
			raw := coins[b%len(coins)] + seps[s%len(seps)] + quotes[q%len(quotes)]
			k1, ok1 := CanonicalSymbol(raw)
			k2, ok2 := CanonicalSymbol(raw)
			return ok1 && ok2 && k1 == k2
		},
		gen.IntRange(0, 6),
		gen.IntRange(0, 4),
		gen.IntRange(0, 2),
	))

	properties.Property("分隔符不影响标准化结果", prop.ForAll(
		func(b, q int) bool {
			base, quote := coins[b%len(coins)], quotes[q%len(quotes)]
			k1, _ := CanonicalSymbol(base + "/" + quote)
			k2, _ := CanonicalSymbol(base + "-" + quote)
			k3, _ := CanonicalSymbol(strings.ToLower(base) + "_" + quote + ":USDT")
			return k1 == k2 && k2 == k3
		},
		gen.IntRange(0, 6),
		gen.IntRange(0, 4),
	))

	properties.TestingRun(t)
}
