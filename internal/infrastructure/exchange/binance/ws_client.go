package binance

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"xscan/internal/domain/model"
	"xscan/internal/infrastructure/exchange"
)

// 推流缓存超过该时间未更新视为过期，退回 REST
const streamMaxAge = 30 * time.Second

const streamPath = "/ws/!miniTicker@arr"

// encoding/json 字段名大小写不敏感，e 必须单独声明，否则会落到 E 上
type miniTicker struct {
	Event       string `json:"e"`
	EventTime   int64  `json:"E"`
	Symbol      string `json:"s"`
	Close       string `json:"c"`
	BaseVolume  string `json:"v"`
	QuoteVolume string `json:"q"`
}

// tickerStream 订阅 !miniTicker@arr，保存每个交易对最近一次推送
type tickerStream struct {
	mu      sync.RWMutex
	tickers map[string]*model.Ticker
	updated time.Time
}

func newTickerStream() *tickerStream {
	return &tickerStream{tickers: make(map[string]*model.Ticker)}
}

func buildStreamURL(base string) (string, error) {
	if base == "" {
		return "", errors.New("binance ws url empty")
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	// RawPath 保留字面量 !，否则 String() 会转义成 %21
	u.Path = streamPath
	u.RawPath = streamPath
	u.RawQuery = ""
	return u.String(), nil
}

// Start 后台连接推流，直到 ctx 结束；重复调用无效
func (s *Source) Start(ctx context.Context) error {
	if s.stream != nil {
		return nil
	}
	wsURL, err := buildStreamURL(s.wsURL)
	if err != nil {
		return err
	}
	s.stream = newTickerStream()
	ws := &exchange.WSHelper{URL: wsURL}
	go ws.RunWS(ctx, exchange.Binance, func(b []byte) {
		s.stream.handle(b, time.Now())
	})
	return nil
}

func (t *tickerStream) handle(b []byte, now time.Time) {
	var msgs []miniTicker
	if err := json.Unmarshal(b, &msgs); err != nil {
		log.Debug().Err(err).Msg("binance miniTicker decode failed")
		return
	}
	if len(msgs) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, m := range msgs {
		if m.Symbol == "" {
			continue
		}
		t.tickers[m.Symbol] = &model.Ticker{
			Symbol:      m.Symbol,
			Last:        model.ParseFloat(m.Close),
			BaseVolume:  model.ParseFloat(m.BaseVolume),
			QuoteVolume: model.ParseFloat(m.QuoteVolume),
			Timestamp:   m.EventTime,
		}
	}
	t.updated = now
}

// Tickers 缓存未预热或已过期时返回 false
func (t *tickerStream) Tickers(symbols []string, now time.Time) (map[string]*model.Ticker, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.tickers) == 0 || now.Sub(t.updated) > streamMaxAge {
		return nil, false
	}
	if len(symbols) == 0 {
		out := make(map[string]*model.Ticker, len(t.tickers))
		for k, v := range t.tickers {
			cp := *v
			out[k] = &cp
		}
		return out, true
	}
	out := make(map[string]*model.Ticker, len(symbols))
	for _, sym := range symbols {
		if v, ok := t.tickers[sym]; ok {
			cp := *v
			out[sym] = &cp
		}
	}
	return out, true
}
