package exchange

// Exchange name constants
const (
	Binance = "binance"
	GateIO  = "gateio"
	KuCoin  = "kucoin"
	Bitget  = "bitget"
)

// DisplayNames 展示名
var DisplayNames = map[string]string{
	Binance: "Binance",
	GateIO:  "Gate.io",
	KuCoin:  "KuCoin",
	Bitget:  "Bitget",
}

// DisplayName 未知交易所返回 id 本身
func DisplayName(id string) string {
	if n, ok := DisplayNames[id]; ok {
		return n
	}
	return id
}
