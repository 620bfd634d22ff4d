package service

import (
	"regexp"
	"sort"
	"strings"

	"xscan/internal/domain/model"
)

// usdQuotes 视为与美元等值的计价货币
var usdQuotes = map[string]struct{}{
	"USDT": {}, "USD": {}, "USDC": {}, "BUSD": {},
}

// 杠杆代币 / ETP：3L、5S、UP、DOWN、BULL、BEAR
var leveragedRe = regexp.MustCompile(`(?i)\b\d+[LS]\b|\bUP\b|\bDOWN\b|\bBULL\b|\bBEAR\b`)

// 连写形式只认倍数后缀：BTC3L、ETH5S
// UP/BULL 等单词连写与 SYRUP、PITBULL 这类正常币名无法区分，只按独立单词匹配
var leveragedSuffixRe = regexp.MustCompile(`^([A-Z0-9]*[A-Z])(\d+[LS])$`)

// 倍数前缀：1000PEPE、1000000MOG
var multiplierRe = regexp.MustCompile(`^(1(?:0{2,6}))([A-Z].*)$`)

// IsUSDQuote 判断计价货币是否为 USD 类
func IsUSDQuote(code string) bool {
	_, ok := usdQuotes[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

// ParseSymbol 拆分交易对为 base/quote
// 例: BTC/USDT -> BTC, USDT; BTC/USDT:USDT -> BTC, USDT; BTC-USDT -> BTC, USDT
// 没有分隔符时 ok=false，调用方应跳过该交易对
func ParseSymbol(raw string) (base, quote string, ok bool) {
	s := strings.TrimSpace(raw)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}
	sep := -1
	for _, d := range []byte{'/', '-', '_'} {
		if i := strings.IndexByte(s, d); i >= 0 {
			sep = i
			break
		}
	}
	if sep <= 0 || sep == len(s)-1 {
		return "", "", false
	}
	base = strings.ToUpper(s[:sep])
	quote = strings.ToUpper(s[sep+1:])
	// 形如 BTC-USDT-SWAP 的尾部合约段
	if i := strings.IndexAny(quote, "/-_"); i >= 0 {
		quote = quote[:i]
	}
	if base == "" || quote == "" {
		return "", "", false
	}
	return base, quote, true
}

// cleanCode 大写并去掉非字母数字字符
func cleanCode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// splitMultiplier 拆出倍数前缀，1000PEPE -> (PEPE, 1000)
func splitMultiplier(base string) (string, float64) {
	m := multiplierRe.FindStringSubmatch(base)
	if m == nil {
		return base, 1
	}
	mult := 1.0
	for range len(m[1]) - 1 {
		mult *= 10
	}
	return m[2], mult
}

// CanonicalKey 生成跨交易所匹配用的 key
// 例: (btc, usdt) -> BTCUSDT, (1000PEPE, USDT) -> PEPEUSDT
func CanonicalKey(base, quote string) string {
	b, _ := splitMultiplier(cleanCode(base))
	return b + cleanCode(quote)
}

// Multiplier 返回 base 的倍数前缀（无前缀为 1）
func Multiplier(base string) float64 {
	_, m := splitMultiplier(cleanCode(base))
	return m
}

// CanonicalSymbol 直接从原始交易对生成 key
func CanonicalSymbol(raw string) (string, bool) {
	base, quote, ok := ParseSymbol(raw)
	if !ok {
		return "", false
	}
	return CanonicalKey(base, quote), true
}

// IsLeveraged 判断是否杠杆代币
func IsLeveraged(base, quote string) bool {
	pair := strings.ToUpper(base) + "/" + strings.ToUpper(quote)
	if leveragedRe.MatchString(pair) {
		return true
	}
	m := leveragedSuffixRe.FindStringSubmatch(cleanCode(base))
	return m != nil && len(m[1]) >= 2
}

// Listing 某交易所上被选中的交易对
type Listing struct {
	Key        string
	Market     model.Market
	Multiplier float64
}

// Pair 展示用交易对 BASE/QUOTE
func (l *Listing) Pair() string {
	return strings.ToUpper(l.Market.Base) + "/" + strings.ToUpper(l.Market.Quote)
}

// BuildIndex 把交易所的市场列表按 canonical key 建索引
// 同一个 key 的多个候选：USD 计价优先，其次现货，其次无倍数前缀，最后按原始 symbol 字典序
func BuildIndex(markets []model.Market) map[string]*Listing {
	index := make(map[string]*Listing, len(markets))
	for i := range markets {
		m := markets[i]
		base, quote := m.Base, m.Quote
		if base == "" || quote == "" {
			b, q, ok := ParseSymbol(m.Symbol)
			if !ok {
				continue
			}
			base, quote = b, q
			m.Base, m.Quote = b, q
		}
		key := CanonicalKey(base, quote)
		if key == "" {
			continue
		}
		cand := &Listing{Key: key, Market: m, Multiplier: Multiplier(base)}
		if cur, ok := index[key]; !ok || preferListing(cand, cur) {
			index[key] = cand
		}
	}
	return index
}

func preferListing(a, b *Listing) bool {
	au, bu := IsUSDQuote(a.Market.Quote), IsUSDQuote(b.Market.Quote)
	if au != bu {
		return au
	}
	if a.Market.Spot != b.Market.Spot {
		return a.Market.Spot
	}
	if (a.Multiplier == 1) != (b.Multiplier == 1) {
		return a.Multiplier == 1
	}
	return a.Market.Symbol < b.Market.Symbol
}

// CommonKeys 返回两边都存在的 key，已排序
func CommonKeys(a, b map[string]*Listing) []string {
	keys := make([]string, 0, min(len(a), len(b)))
	for k := range a {
		if _, ok := b[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
