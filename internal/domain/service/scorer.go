package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"xscan/internal/domain/model"
)

// ScoreParams 机会过滤参数
type ScoreParams struct {
	MinProfitPct      float64
	MaxProfitPct      float64
	MinVolumeUSD      float64
	Freshness         time.Duration // <=0 不检查新鲜度
	MaxPriceGap       float64       // 相对价差上限，0.5 = 50%
	MaxSymbolsPerPair int           // 0 = 不限制
	DefaultTakerFee   float64
	Chains            ChainOptions
	BookDepth         int
}

// DefaultScoreParams 默认参数
func DefaultScoreParams() ScoreParams {
	return ScoreParams{
		MinProfitPct:    1.0,
		MaxProfitPct:    20.0,
		MinVolumeUSD:    100_000,
		Freshness:       300 * time.Second,
		MaxPriceGap:     0.5,
		DefaultTakerFee: 0.001,
		Chains:          ChainOptions{Exclude: []string{"ETH"}},
		BookDepth:       10,
	}
}

// BookSource 订单簿查询，失败时返回 false
type BookSource interface {
	OrderBook(ctx context.Context, exchange, symbol string, depth int) (*model.OrderBook, bool)
}

// Snapshot 单个交易所本轮扫描的数据
type Snapshot struct {
	Exchange string
	Catalog  *model.Catalog
	Tickers  map[string]*model.Ticker // key: 交易所原始 symbol
	Index    map[string]*Listing

	byKey map[string]*model.Ticker
}

// NewSnapshot 建立 canonical 索引
func NewSnapshot(exchange string, cat *model.Catalog, tickers map[string]*model.Ticker) *Snapshot {
	if cat == nil {
		cat = &model.Catalog{}
	}
	s := &Snapshot{
		Exchange: exchange,
		Catalog:  cat,
		Tickers:  tickers,
		Index:    BuildIndex(cat.Markets),
		byKey:    make(map[string]*model.Ticker, len(tickers)),
	}
	// 目录外的行情按与 BuildIndex 相同的规则选取，不依赖 map 遍历顺序
	loose := make(map[string]*Listing, len(tickers))
	for raw := range tickers {
		base, quote, ok := ParseSymbol(raw)
		if !ok {
			continue
		}
		key := CanonicalKey(base, quote)
		if key == "" {
			continue
		}
		cand := &Listing{
			Key:        key,
			Market:     model.Market{Symbol: raw, Base: base, Quote: quote, Spot: true},
			Multiplier: Multiplier(base),
		}
		if cur, ok := loose[key]; !ok || preferListing(cand, cur) {
			loose[key] = cand
		}
	}
	for key, l := range loose {
		s.byKey[key] = tickers[l.Market.Symbol]
	}
	for key, l := range s.Index {
		if t, ok := tickers[l.Market.Symbol]; ok {
			s.byKey[key] = t
		}
	}
	return s
}

// Ticker 按 listing 取行情，缺失返回 nil
func (s *Snapshot) Ticker(l *Listing) *model.Ticker {
	if s == nil || l == nil {
		return nil
	}
	if t, ok := s.Tickers[l.Market.Symbol]; ok && t != nil {
		return t
	}
	return nil
}

// PriceOf 同一交易所内按 base/quote 查价格，用于成交量换算
func (s *Snapshot) PriceOf(base, quote string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	return ResolvePrice(s.byKey[CanonicalKey(base, quote)])
}

// Candidate 通过全部过滤条件的机会
type Candidate struct {
	Key           model.OpportunityKey
	Pair          string
	BuyPrice      float64
	SellPrice     float64
	SpreadPercent float64
	ProfitPercent float64
	BuyVolumeUSD  float64
	SellVolumeUSD float64
	Chain         ChainResult
}

// Record 附加稳定性标签后生成输出记录
func (c *Candidate) Record(l Labels) model.OpportunityRecord {
	return model.OpportunityRecord{
		Pair:          c.Pair,
		BuyExchange:   c.Key.BuyExchange,
		SellExchange:  c.Key.SellExchange,
		BuyPrice:      c.BuyPrice,
		SellPrice:     c.SellPrice,
		SpreadPercent: c.SpreadPercent,
		ProfitPercent: c.ProfitPercent,
		BuyVolumeUSD:  c.BuyVolumeUSD,
		SellVolumeUSD: c.SellVolumeUSD,
		Chain:         c.Chain.Network,
		WithdrawOK:    c.Chain.Withdraw,
		DepositOK:     c.Chain.Deposit,
		Stability:     l.Stability,
		Expiry:        l.Expiry,
		Key:           c.Key,
	}
}

// Scorer 计算并过滤一对交易所之间的机会
type Scorer struct {
	p   ScoreParams
	now func() time.Time
}

// NewScorer now 为 nil 时使用 time.Now
func NewScorer(p ScoreParams, now func() time.Time) *Scorer {
	if now == nil {
		now = time.Now
	}
	return &Scorer{p: p, now: now}
}

// Params 当前参数
func (s *Scorer) Params() ScoreParams { return s.p }

type side struct {
	snap    *Snapshot
	listing *Listing
	ticker  *model.Ticker
	price   float64 // 交易所报价，未除倍数
}

// Evaluate 评估 buy 买入、sell 卖出的全部共同交易对，结果已排序
func (s *Scorer) Evaluate(ctx context.Context, buy, sell *Snapshot, books BookSource) []Candidate {
	if buy == nil || sell == nil || buy.Exchange == sell.Exchange {
		return nil
	}
	keys := CommonKeys(buy.Index, sell.Index)
	if s.p.MaxSymbolsPerPair > 0 && len(keys) > s.p.MaxSymbolsPerPair {
		keys = keys[:s.p.MaxSymbolsPerPair]
	}
	now := s.now()

	var out []Candidate
	for _, key := range keys {
		if ctx.Err() != nil {
			break
		}
		if c, ok := s.evaluate(ctx, now, key, buy, sell, books); ok {
			out = append(out, c)
		}
	}
	SortCandidates(out)
	return out
}

func (s *Scorer) eligible(l *Listing) bool {
	m := l.Market
	return m.Spot && m.Active && IsUSDQuote(m.Quote) && !IsLeveraged(m.Base, m.Quote)
}

func (s *Scorer) fresh(now time.Time, t *model.Ticker) bool {
	if t == nil || t.Timestamp <= 0 || s.p.Freshness <= 0 {
		return true
	}
	return now.Sub(time.UnixMilli(t.Timestamp)) <= s.p.Freshness
}

func (s *Scorer) fee(m model.Market) float64 {
	if m.TakerFee != nil {
		f := *m.TakerFee
		if !math.IsNaN(f) && f >= 0 && f < 1 {
			return f
		}
	}
	return s.p.DefaultTakerFee
}

func (s *Scorer) resolve(ctx context.Context, sd *side, books BookSource) bool {
	if sd.ticker != nil {
		px, ok := ResolvePrice(sd.ticker)
		sd.price = px
		return ok
	}
	if books == nil {
		return false
	}
	book, ok := books.OrderBook(ctx, sd.snap.Exchange, sd.listing.Market.Symbol, s.p.BookDepth)
	if !ok {
		return false
	}
	px, ok := BookMid(book)
	sd.price = px
	return ok
}

func (s *Scorer) volume(ctx context.Context, sd *side, depthSide BookSide, books BookSource) float64 {
	v := EstimateUSDVolume(sd.listing.Market.Quote, sd.ticker, sd.price, sd.snap.PriceOf)
	if v > 0 || books == nil {
		return v
	}
	book, ok := books.OrderBook(ctx, sd.snap.Exchange, sd.listing.Market.Symbol, s.p.BookDepth)
	if !ok {
		return 0
	}
	usd, ok := toUSD(BookDepthUSD(book, depthSide, s.p.BookDepth), sd.listing.Market.Quote, sd.snap.PriceOf)
	if !ok {
		return 0
	}
	return usd
}

func (s *Scorer) evaluate(ctx context.Context, now time.Time, key string, buy, sell *Snapshot, books BookSource) (Candidate, bool) {
	b := &side{snap: buy, listing: buy.Index[key]}
	sl := &side{snap: sell, listing: sell.Index[key]}
	if !s.eligible(b.listing) || !s.eligible(sl.listing) {
		return Candidate{}, false
	}
	b.ticker, sl.ticker = buy.Ticker(b.listing), sell.Ticker(sl.listing)
	if !s.fresh(now, b.ticker) || !s.fresh(now, sl.ticker) {
		return Candidate{}, false
	}
	if !s.resolve(ctx, b, books) || !s.resolve(ctx, sl, books) {
		return Candidate{}, false
	}

	buyPx := b.price / b.listing.Multiplier
	sellPx := sl.price / sl.listing.Multiplier
	if buyPx <= 0 || sellPx <= 0 {
		return Candidate{}, false
	}
	if PriceGap(buyPx, sellPx) > s.p.MaxPriceGap {
		return Candidate{}, false
	}

	spread := SpreadPercent(buyPx, sellPx)
	profit := ProfitPercent(spread, s.fee(b.listing.Market), s.fee(sl.listing.Market))
	if profit < s.p.MinProfitPct || profit > s.p.MaxProfitPct {
		return Candidate{}, false
	}

	bv := s.volume(ctx, b, SideAsks, books)
	sv := s.volume(ctx, sl, SideBids, books)
	if bv < s.p.MinVolumeUSD || sv < s.p.MinVolumeUSD {
		return Candidate{}, false
	}

	coin := strings.ToUpper(b.listing.Market.Base)
	bc, _ := buy.Catalog.Currency(coin)
	sc, _ := sell.Catalog.Currency(strings.ToUpper(sl.listing.Market.Base))
	chain := ResolveChain(bc, sc, s.p.Chains)
	if !chain.Usable() {
		return Candidate{}, false
	}

	return Candidate{
		Key: model.OpportunityKey{
			Symbol:       key,
			BuyExchange:  buy.Exchange,
			SellExchange: sell.Exchange,
		},
		Pair:          b.listing.Pair(),
		BuyPrice:      buyPx,
		SellPrice:     sellPx,
		SpreadPercent: spread,
		ProfitPercent: profit,
		BuyVolumeUSD:  bv,
		SellVolumeUSD: sv,
		Chain:         chain,
	}, true
}

// SortCandidates 利润降序，价差降序，再按 symbol/buy/sell 保证稳定
func SortCandidates(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.ProfitPercent != b.ProfitPercent {
			return a.ProfitPercent > b.ProfitPercent
		}
		if a.SpreadPercent != b.SpreadPercent {
			return a.SpreadPercent > b.SpreadPercent
		}
		if a.Key.Symbol != b.Key.Symbol {
			return a.Key.Symbol < b.Key.Symbol
		}
		if a.Key.BuyExchange != b.Key.BuyExchange {
			return a.Key.BuyExchange < b.Key.BuyExchange
		}
		return a.Key.SellExchange < b.Key.SellExchange
	})
}
