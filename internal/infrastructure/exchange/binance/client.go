package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"xscan/internal/application/port"
	"xscan/internal/domain/model"
	"xscan/internal/infrastructure/exchange"
	"xscan/internal/infrastructure/pricefeed"
)

const (
	defaultBaseURL = "https://api.binance.com"
	// 单次 ticker/24hr 请求的 symbols 上限
	maxTickersPerRequest = 100
)

// Source Binance 现货公开接口，可选用 miniTicker 推流作为行情缓存
type Source struct {
	rest   *exchange.RESTClient
	wsURL  string
	stream *tickerStream
}

func New(opts pricefeed.Options) *Source {
	base := opts.RestURL
	if strings.TrimSpace(base) == "" {
		base = defaultBaseURL
	}
	return &Source{
		rest:  exchange.NewRESTClient(base, opts.Timeout),
		wsURL: strings.TrimSpace(opts.WsURL),
	}
}

func (s *Source) Name() string { return exchange.Binance }

func (s *Source) Capabilities() port.Capabilities {
	return port.Capabilities{
		DisplayName:          exchange.DisplayName(exchange.Binance),
		MaxTickersPerRequest: maxTickersPerRequest,
		SpotOnly:             true,
		NoNetworks:           true,
	}
}

type symbolResp struct {
	Symbol               string `json:"symbol"`
	Status               string `json:"status"`
	BaseAsset            string `json:"baseAsset"`
	QuoteAsset           string `json:"quoteAsset"`
	IsSpotTradingAllowed bool   `json:"isSpotTradingAllowed"`
}

type exchangeInfoResp struct {
	Symbols []symbolResp `json:"symbols"`
}

type tickerResp struct {
	Symbol      string `json:"symbol"`
	LastPrice   string `json:"lastPrice"`
	BidPrice    string `json:"bidPrice"`
	AskPrice    string `json:"askPrice"`
	Volume      string `json:"volume"`
	QuoteVolume string `json:"quoteVolume"`
	CloseTime   int64  `json:"closeTime"`
}

type depthResp struct {
	Bids [][]string `json:"bids"`
	Asks [][]string `json:"asks"`
}

// LoadMarkets 公开接口不提供费率与链信息，TakerFee 留空，Currencies 为空
func (s *Source) LoadMarkets(ctx context.Context) (*model.Catalog, error) {
	var info exchangeInfoResp
	if err := s.rest.GetJSON(ctx, "/api/v3/exchangeInfo", nil, &info); err != nil {
		return nil, fmt.Errorf("exchangeInfo: %w", err)
	}
	cat := &model.Catalog{
		Markets:    make([]model.Market, 0, len(info.Symbols)),
		Currencies: map[string]model.Currency{},
	}
	for _, sy := range info.Symbols {
		cat.Markets = append(cat.Markets, model.Market{
			Symbol: sy.Symbol,
			Base:   strings.ToUpper(sy.BaseAsset),
			Quote:  strings.ToUpper(sy.QuoteAsset),
			Spot:   sy.IsSpotTradingAllowed,
			Active: sy.Status == "TRADING",
		})
	}
	return cat, nil
}

func (s *Source) LoadTickers(ctx context.Context, symbols []string) (map[string]*model.Ticker, error) {
	if s.stream != nil {
		if cached, ok := s.stream.Tickers(symbols, time.Now()); ok {
			return cached, nil
		}
	}

	q := url.Values{}
	if len(symbols) > 0 {
		b, err := json.Marshal(symbols)
		if err != nil {
			return nil, err
		}
		q.Set("symbols", string(b))
	}
	var raw []json.RawMessage
	if err := s.rest.GetJSON(ctx, "/api/v3/ticker/24hr", q, &raw); err != nil {
		return nil, fmt.Errorf("ticker/24hr: %w", err)
	}
	out := make(map[string]*model.Ticker, len(raw))
	exchange.Rows(raw, func(r tickerResp, info *model.Fields) {
		if r.Symbol == "" {
			return
		}
		out[r.Symbol] = &model.Ticker{
			Symbol:      r.Symbol,
			Last:        model.ParseFloat(r.LastPrice),
			Bid:         model.ParseFloat(r.BidPrice),
			Ask:         model.ParseFloat(r.AskPrice),
			BaseVolume:  model.ParseFloat(r.Volume),
			QuoteVolume: model.ParseFloat(r.QuoteVolume),
			Timestamp:   r.CloseTime,
			Info:        info,
		}
	})
	return out, nil
}

func (s *Source) LoadOrderBook(ctx context.Context, symbol string, depth int) (*model.OrderBook, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("limit", strconv.Itoa(depthLimit(depth)))
	var d depthResp
	if err := s.rest.GetJSON(ctx, "/api/v3/depth", q, &d); err != nil {
		return nil, fmt.Errorf("depth: %w", err)
	}
	return &model.OrderBook{
		Symbol:    symbol,
		Bids:      exchange.ParseLevels(d.Bids, depth),
		Asks:      exchange.ParseLevels(d.Asks, depth),
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// depthLimit /api/v3/depth 只接受固定档位
func depthLimit(depth int) int {
	for _, l := range []int{5, 10, 20, 50, 100} {
		if depth <= l {
			return l
		}
	}
	return 100
}
