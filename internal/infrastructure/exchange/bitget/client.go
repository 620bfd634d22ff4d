package bitget

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"xscan/internal/application/port"
	"xscan/internal/domain/model"
	"xscan/internal/infrastructure/exchange"
	"xscan/internal/infrastructure/pricefeed"
)

const defaultBaseURL = "https://api.bitget.com"

// Source Bitget v2 公开现货接口
type Source struct {
	rest *exchange.RESTClient
}

func New(opts pricefeed.Options) *Source {
	base := opts.RestURL
	if strings.TrimSpace(base) == "" {
		base = defaultBaseURL
	}
	return &Source{rest: exchange.NewRESTClient(base, opts.Timeout)}
}

func (s *Source) Name() string { return exchange.Bitget }

func (s *Source) Capabilities() port.Capabilities {
	return port.Capabilities{DisplayName: exchange.DisplayName(exchange.Bitget)}
}

// envelope {"code":"00000","msg":"success","data":...}
type envelope[T any] struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data T      `json:"data"`
}

func get[T any](ctx context.Context, rest *exchange.RESTClient, path string, q url.Values) (T, error) {
	var env envelope[T]
	if err := rest.GetJSON(ctx, path, q, &env); err != nil {
		return env.Data, err
	}
	if env.Code != "00000" {
		return env.Data, fmt.Errorf("bitget code %s: %s", env.Code, env.Msg)
	}
	return env.Data, nil
}

type symbolResp struct {
	Symbol       string `json:"symbol"`
	BaseCoin     string `json:"baseCoin"`
	QuoteCoin    string `json:"quoteCoin"`
	TakerFeeRate string `json:"takerFeeRate"`
	Status       string `json:"status"`
}

type chainResp struct {
	Chain        string `json:"chain"`
	Withdrawable string `json:"withdrawable"`
	Rechargeable string `json:"rechargeable"`
}

type coinResp struct {
	Coin   string      `json:"coin"`
	Chains []chainResp `json:"chains"`
}

type tickerResp struct {
	Symbol      string `json:"symbol"`
	LastPr      string `json:"lastPr"`
	BidPr       string `json:"bidPr"`
	AskPr       string `json:"askPr"`
	BaseVolume  string `json:"baseVolume"`
	QuoteVolume string `json:"quoteVolume"`
	Ts          string `json:"ts"`
}

type bookResp struct {
	Asks [][]string `json:"asks"`
	Bids [][]string `json:"bids"`
	Ts   string     `json:"ts"`
}

func (s *Source) LoadMarkets(ctx context.Context) (*model.Catalog, error) {
	symbols, err := get[[]symbolResp](ctx, s.rest, "/api/v2/spot/public/symbols", nil)
	if err != nil {
		return nil, fmt.Errorf("symbols: %w", err)
	}
	coins, err := get[[]coinResp](ctx, s.rest, "/api/v2/spot/public/coins", nil)
	if err != nil {
		return nil, fmt.Errorf("coins: %w", err)
	}
	return buildCatalog(symbols, coins), nil
}

func buildCatalog(symbols []symbolResp, coins []coinResp) *model.Catalog {
	cat := &model.Catalog{
		Markets:    make([]model.Market, 0, len(symbols)),
		Currencies: make(map[string]model.Currency, len(coins)),
	}
	for _, sy := range symbols {
		cat.Markets = append(cat.Markets, model.Market{
			Symbol:   sy.Symbol,
			Base:     strings.ToUpper(sy.BaseCoin),
			Quote:    strings.ToUpper(sy.QuoteCoin),
			Spot:     true,
			Active:   sy.Status == "online",
			TakerFee: model.ParseFloat(sy.TakerFeeRate),
		})
	}
	for _, c := range coins {
		code := strings.ToUpper(c.Coin)
		cur := model.Currency{Code: code}
		for _, ch := range c.Chains {
			exchange.AddNetwork(&cur, ch.Chain, exchange.Truthy(ch.Withdrawable), exchange.Truthy(ch.Rechargeable))
		}
		cat.Currencies[code] = cur
	}
	return cat
}

func (s *Source) LoadTickers(ctx context.Context, symbols []string) (map[string]*model.Ticker, error) {
	raw, err := get[[]json.RawMessage](ctx, s.rest, "/api/v2/spot/market/tickers", nil)
	if err != nil {
		return nil, fmt.Errorf("tickers: %w", err)
	}
	want := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		want[s] = struct{}{}
	}
	out := make(map[string]*model.Ticker, len(raw))
	exchange.Rows(raw, func(r tickerResp, info *model.Fields) {
		if r.Symbol == "" {
			return
		}
		if len(want) > 0 {
			if _, ok := want[r.Symbol]; !ok {
				return
			}
		}
		ts, _ := strconv.ParseInt(r.Ts, 10, 64)
		out[r.Symbol] = &model.Ticker{
			Symbol:      r.Symbol,
			Last:        model.ParseFloat(r.LastPr),
			Bid:         model.ParseFloat(r.BidPr),
			Ask:         model.ParseFloat(r.AskPr),
			BaseVolume:  model.ParseFloat(r.BaseVolume),
			QuoteVolume: model.ParseFloat(r.QuoteVolume),
			Timestamp:   ts,
			Info:        info,
		}
	})
	return out, nil
}

func (s *Source) LoadOrderBook(ctx context.Context, symbol string, depth int) (*model.OrderBook, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("type", "step0")
	q.Set("limit", strconv.Itoa(max(depth, 1)))
	b, err := get[bookResp](ctx, s.rest, "/api/v2/spot/market/orderbook", q)
	if err != nil {
		return nil, fmt.Errorf("orderbook: %w", err)
	}
	ts, _ := strconv.ParseInt(b.Ts, 10, 64)
	return &model.OrderBook{
		Symbol:    symbol,
		Bids:      exchange.ParseLevels(b.Bids, depth),
		Asks:      exchange.ParseLevels(b.Asks, depth),
		Timestamp: ts,
	}, nil
}
