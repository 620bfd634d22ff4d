package service

import (
	"math"

	"xscan/internal/domain/model"
)

// BookSide 订单簿方向
type BookSide int

const (
	SideBids BookSide = iota
	SideAsks
)

func validPrice(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	v := *p
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// ResolvePrice 取行情代表价格：last -> (bid+ask)/2 -> 不可用
func ResolvePrice(t *model.Ticker) (float64, bool) {
	if t == nil {
		return 0, false
	}
	if v, ok := validPrice(t.Last); ok {
		return v, true
	}
	bid, okB := validPrice(t.Bid)
	ask, okA := validPrice(t.Ask)
	if okB && okA {
		return (bid + ask) / 2, true
	}
	return 0, false
}

// BookMid 订单簿买一卖一中间价
func BookMid(b *model.OrderBook) (float64, bool) {
	if b == nil || len(b.Bids) == 0 || len(b.Asks) == 0 {
		return 0, false
	}
	bid, okB := validPrice(&b.Bids[0].Price)
	ask, okA := validPrice(&b.Asks[0].Price)
	if !okB || !okA {
		return 0, false
	}
	return (bid + ask) / 2, true
}

// BookDepthUSD 前 N 档 price*qty 之和，作为流动性代理
func BookDepthUSD(b *model.OrderBook, side BookSide, levels int) float64 {
	if b == nil {
		return 0
	}
	rows := b.Bids
	if side == SideAsks {
		rows = b.Asks
	}
	if levels > 0 && len(rows) > levels {
		rows = rows[:levels]
	}
	total := 0.0
	for _, l := range rows {
		v := l.Price * l.Qty
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			continue
		}
		total += v
	}
	return total
}
