package model

import (
	"strconv"
	"time"
)

// ========== Opportunity Models ==========

// OpportunityKey 机会的身份：同一币对、同一买卖方向会跨扫描保持不变
type OpportunityKey struct {
	Symbol       string `json:"symbol"` // canonical key，如 BTCUSDT
	BuyExchange  string `json:"buy_exchange"`
	SellExchange string `json:"sell_exchange"`
}

func (k OpportunityKey) String() string {
	return k.Symbol + "|" + k.BuyExchange + "|" + k.SellExchange
}

// OpportunityRecord 一次扫描输出的一条现货价差机会，构造后不再修改
type OpportunityRecord struct {
	Pair          string  `json:"pair"` // 展示用交易对，如 BTC/USDT
	BuyExchange   string  `json:"buy_exchange"`
	SellExchange  string  `json:"sell_exchange"`
	BuyPrice      float64 `json:"buy_price"`
	SellPrice     float64 `json:"sell_price"`
	SpreadPercent float64 `json:"spread_percent"` // (卖价-买价)/买价*100
	ProfitPercent float64 `json:"profit_percent"` // 扣除双边 taker 手续费
	BuyVolumeUSD  float64 `json:"buy_volume_usd"`
	SellVolumeUSD float64 `json:"sell_volume_usd"`
	Chain         string  `json:"chain"`
	WithdrawOK    bool    `json:"withdraw_ok"`
	DepositOK     bool    `json:"deposit_ok"`
	Stability     string  `json:"stability"`
	Expiry        string  `json:"expiry"`

	Key OpportunityKey `json:"key"`
}

// CSVHeader 导出列顺序
func CSVHeader() []string {
	return []string{
		"pair", "buy_exchange", "sell_exchange", "buy_price", "sell_price",
		"spread_percent", "profit_percent", "buy_volume_usd", "sell_volume_usd",
		"chain", "withdraw_ok", "deposit_ok", "stability", "expiry",
	}
}

// CSVRow 与 CSVHeader 对应
func (r *OpportunityRecord) CSVRow() []string {
	return []string{
		r.Pair,
		r.BuyExchange,
		r.SellExchange,
		formatFloat(r.BuyPrice),
		formatFloat(r.SellPrice),
		strconv.FormatFloat(r.SpreadPercent, 'f', 4, 64),
		strconv.FormatFloat(r.ProfitPercent, 'f', 4, 64),
		strconv.FormatFloat(r.BuyVolumeUSD, 'f', 2, 64),
		strconv.FormatFloat(r.SellVolumeUSD, 'f', 2, 64),
		r.Chain,
		strconv.FormatBool(r.WithdrawOK),
		strconv.FormatBool(r.DepositOK),
		r.Stability,
		r.Expiry,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ========== Scan Report ==========

// Warning 非致命问题（某交易所拉取失败、持久化失败等）
type Warning struct {
	Exchange string `json:"exchange,omitempty"`
	Op       string `json:"op"`
	Message  string `json:"message"`
}

// ScanReport 一次扫描的完整结果
type ScanReport struct {
	ID            string              `json:"id"`
	StartedAt     time.Time           `json:"started_at"`
	FinishedAt    time.Time           `json:"finished_at"`
	Participants  []string            `json:"participants"` // 本轮成功加载的交易所
	Opportunities []OpportunityRecord `json:"opportunities"`
	Warnings      []Warning           `json:"warnings,omitempty"`
}

// Best 返回利润最高的一条（结果已排序）
func (r *ScanReport) Best() (*OpportunityRecord, bool) {
	if r == nil || len(r.Opportunities) == 0 {
		return nil, false
	}
	return &r.Opportunities[0], true
}
