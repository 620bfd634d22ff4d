package service

import "strings"

// networkAliases 各交易所对同一条链的不同叫法
var networkAliases = map[string]string{
	"TRX":           "TRC20",
	"TRON":          "TRC20",
	"BSC":           "BEP20",
	"BNB":           "BEP20",
	"BNBSMARTCHAIN": "BEP20",
	"BEP20(BSC)":    "BEP20",
	"ERC20":         "ETH",
	"ETHEREUM":      "ETH",
	"ARBITRUM":      "ARB",
	"ARBEVM":        "ARB",
	"ARBITRUMONE":   "ARB",
	"ARBONE":        "ARB",
	"OPTIMISM":      "OP",
	"OPETH":         "OP",
	"POLYGON":       "MATIC",
	"POL":           "MATIC",
	"AVAXC":         "AVAX",
	"CCHAIN":        "AVAX",
	"SOLANA":        "SOL",
	"SPL":           "SOL",
	"TONCOIN":       "TON",
}

// NormalizeNetwork 统一链名，未知名称原样大写返回
// 交易所链信息、排除列表和优先级列表都经过这里，保证按同一名字比较
func NormalizeNetwork(name string) string {
	n := strings.ToUpper(strings.TrimSpace(name))
	if n == "" {
		return ""
	}
	if a, ok := networkAliases[n]; ok {
		return a
	}
	compact := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(n)
	if a, ok := networkAliases[compact]; ok {
		return a
	}
	return n
}
