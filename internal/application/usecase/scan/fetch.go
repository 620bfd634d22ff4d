package scan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"xscan/internal/application/port"
	"xscan/internal/domain/model"
	"xscan/internal/domain/service"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type fetchResult struct {
	snapshots map[string]*service.Snapshot
	warnings  []model.Warning
}

// fetchAll 并发加载所有参与交易所，失败的交易所转为 warning
func (s *Service) fetchAll(ctx context.Context, ids []string) fetchResult {
	res := fetchResult{snapshots: make(map[string]*service.Snapshot, len(ids))}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(s.workers)

	for _, id := range ids {
		src, ok := s.deps.Sources[id]
		if !ok {
			mu.Lock()
			res.warnings = append(res.warnings, model.Warning{Exchange: id, Op: "init", Message: "exchange not configured"})
			mu.Unlock()
			log.Warn().Str("exchange", id).Msg("exchange not configured, skipped")
			continue
		}
		g.Go(func() error {
			snap, err := s.fetchOne(ctx, id, src)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				w := model.Warning{Exchange: id, Message: err.Error()}
				var se *SourceError
				if errors.As(err, &se) {
					w.Op = se.Op
				}
				res.warnings = append(res.warnings, w)
				log.Warn().Err(err).Str("exchange", id).Str("op", w.Op).Msg("exchange dropped from scan")
				return nil
			}
			res.snapshots[id] = snap
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(res.warnings, func(i, j int) bool { return res.warnings[i].Exchange < res.warnings[j].Exchange })
	return res
}

func (s *Service) fetchOne(ctx context.Context, id string, src port.MarketDataSource) (*service.Snapshot, error) {
	caps := src.Capabilities()

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	cat, err := src.LoadMarkets(cctx)
	cancel()
	if err != nil {
		return nil, &SourceError{Exchange: id, Op: "load_markets", Err: err}
	}
	if cat == nil {
		return nil, &SourceError{Exchange: id, Op: "load_markets", Err: errors.New("empty catalog")}
	}
	cat = normalizeCatalog(cat, caps)

	start := time.Now()
	tickers, err := s.loadTickers(ctx, src, cat, caps)
	if err != nil {
		return nil, &SourceError{Exchange: id, Op: "load_tickers", Err: err}
	}
	log.Debug().
		Str("exchange", id).
		Int("markets", len(cat.Markets)).
		Int("tickers", len(tickers)).
		Dur("took", time.Since(start)).
		Msg("exchange loaded")

	return service.NewSnapshot(id, cat, tickers), nil
}

// loadTickers MaxTickersPerRequest > 0 时按批次拉取
func (s *Service) loadTickers(ctx context.Context, src port.MarketDataSource, cat *model.Catalog, caps port.Capabilities) (map[string]*model.Ticker, error) {
	if caps.MaxTickersPerRequest <= 0 {
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return src.LoadTickers(cctx, nil)
	}

	symbols := make([]string, 0, len(cat.Markets))
	for _, m := range cat.Markets {
		if m.Spot && m.Active {
			symbols = append(symbols, m.Symbol)
		}
	}
	sort.Strings(symbols)

	out := make(map[string]*model.Ticker, len(symbols))
	for i := 0; i < len(symbols); i += caps.MaxTickersPerRequest {
		end := min(i+caps.MaxTickersPerRequest, len(symbols))
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		batch, err := src.LoadTickers(cctx, symbols[i:end])
		cancel()
		if err != nil {
			return nil, fmt.Errorf("chunk %d-%d: %w", i, end, err)
		}
		for k, v := range batch {
			out[k] = v
		}
	}
	return out, nil
}

// normalizeCatalog 应用 SpotOnly 与币种别名，返回新目录
func normalizeCatalog(cat *model.Catalog, caps port.Capabilities) *model.Catalog {
	alias := func(code string) string {
		up := strings.ToUpper(strings.TrimSpace(code))
		if a, ok := caps.Aliases[up]; ok {
			return strings.ToUpper(a)
		}
		return up
	}

	out := &model.Catalog{
		Markets:    make([]model.Market, 0, len(cat.Markets)),
		Currencies: make(map[string]model.Currency, len(cat.Currencies)),
	}
	for _, m := range cat.Markets {
		if caps.SpotOnly && !m.Spot {
			continue
		}
		if m.Base == "" || m.Quote == "" {
			b, q, ok := service.ParseSymbol(m.Symbol)
			if !ok {
				continue
			}
			m.Base, m.Quote = b, q
		}
		m.Base, m.Quote = alias(m.Base), alias(m.Quote)
		out.Markets = append(out.Markets, m)
	}
	for code, c := range cat.Currencies {
		code = alias(code)
		c.Code = code
		out.Currencies[code] = c
	}
	return out
}

// bookCache 本轮扫描内的订单簿缓存，每个 (exchange, symbol) 最多请求一次
type bookCache struct {
	mu      sync.Mutex
	sources map[string]port.MarketDataSource
	timeout time.Duration
	books   map[string]*model.OrderBook
}

func newBookCache(sources map[string]port.MarketDataSource, timeout time.Duration) *bookCache {
	return &bookCache{sources: sources, timeout: timeout, books: make(map[string]*model.OrderBook)}
}

func (c *bookCache) OrderBook(ctx context.Context, exchange, symbol string, depth int) (*model.OrderBook, bool) {
	key := exchange + ":" + symbol
	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.books[key]; ok {
		return b, b != nil
	}
	src, ok := c.sources[exchange]
	if !ok {
		return nil, false
	}
	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	b, err := src.LoadOrderBook(cctx, symbol, depth)
	cancel()
	if err != nil {
		if !errors.Is(err, port.ErrUnsupported) {
			log.Debug().Err(err).Str("exchange", exchange).Str("symbol", symbol).Msg("order book fallback failed")
		}
		b = nil
	}
	c.books[key] = b
	return b, b != nil
}
