package kucoin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"xscan/internal/application/port"
	"xscan/internal/domain/model"
	"xscan/internal/infrastructure/exchange"
	"xscan/internal/infrastructure/pricefeed"
)

const defaultBaseURL = "https://api.kucoin.com"

// Source KuCoin 公开现货接口
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

func (s *Source) Name() string { return exchange.KuCoin }

func (s *Source) Capabilities() port.Capabilities {
	return port.Capabilities{
		DisplayName: exchange.DisplayName(exchange.KuCoin),
		Aliases:     map[string]string{"XBT": "BTC"},
	}
}

// envelope KuCoin 统一响应 {"code":"200000","data":...}
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
	if env.Code != "200000" {
		return env.Data, fmt.Errorf("kucoin code %s: %s", env.Code, env.Msg)
	}
	return env.Data, nil
}

type symbolResp struct {
	Symbol        string `json:"symbol"`
	BaseCurrency  string `json:"baseCurrency"`
	QuoteCurrency string `json:"quoteCurrency"`
	EnableTrading bool   `json:"enableTrading"`
	TakerFeeRate  string `json:"takerFeeRate"`
}

type chainResp struct {
	ChainName         string `json:"chainName"`
	IsWithdrawEnabled bool   `json:"isWithdrawEnabled"`
	IsDepositEnabled  bool   `json:"isDepositEnabled"`
}

type currencyResp struct {
	Currency string      `json:"currency"`
	Chains   []chainResp `json:"chains"`
}

type allTickersResp struct {
	Time   int64             `json:"time"`
	Ticker []json.RawMessage `json:"ticker"`
}

type tickerResp struct {
	Symbol       string `json:"symbol"`
	Buy          string `json:"buy"`
	Sell         string `json:"sell"`
	Last         string `json:"last"`
	Vol          string `json:"vol"`
	VolValue     string `json:"volValue"`
	TakerFeeRate string `json:"takerFeeRate"`
}

type bookResp struct {
	Time int64      `json:"time"`
	Bids [][]string `json:"bids"`
	Asks [][]string `json:"asks"`
}

func (s *Source) LoadMarkets(ctx context.Context) (*model.Catalog, error) {
	symbols, err := get[[]symbolResp](ctx, s.rest, "/api/v2/symbols", nil)
	if err != nil {
		return nil, fmt.Errorf("symbols: %w", err)
	}
	currencies, err := get[[]currencyResp](ctx, s.rest, "/api/v3/currencies", nil)
	if err != nil {
		return nil, fmt.Errorf("currencies: %w", err)
	}
	return buildCatalog(symbols, currencies), nil
}

func buildCatalog(symbols []symbolResp, currencies []currencyResp) *model.Catalog {
	cat := &model.Catalog{
		Markets:    make([]model.Market, 0, len(symbols)),
		Currencies: make(map[string]model.Currency, len(currencies)),
	}
	for _, sy := range symbols {
		cat.Markets = append(cat.Markets, model.Market{
			Symbol:   sy.Symbol,
			Base:     strings.ToUpper(sy.BaseCurrency),
			Quote:    strings.ToUpper(sy.QuoteCurrency),
			Spot:     true,
			Active:   sy.EnableTrading,
			TakerFee: model.ParseFloat(sy.TakerFeeRate),
		})
	}
	for _, c := range currencies {
		code := strings.ToUpper(c.Currency)
		cur := model.Currency{Code: code}
		for _, ch := range c.Chains {
			exchange.AddNetwork(&cur, ch.ChainName, ch.IsWithdrawEnabled, ch.IsDepositEnabled)
		}
		cat.Currencies[code] = cur
	}
	return cat
}

func (s *Source) LoadTickers(ctx context.Context, symbols []string) (map[string]*model.Ticker, error) {
	all, err := get[allTickersResp](ctx, s.rest, "/api/v1/market/allTickers", nil)
	if err != nil {
		return nil, fmt.Errorf("allTickers: %w", err)
	}
	return parseTickers(all, symbols), nil
}

func parseTickers(all allTickersResp, symbols []string) map[string]*model.Ticker {
	want := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		want[s] = struct{}{}
	}
	out := make(map[string]*model.Ticker, len(all.Ticker))
	exchange.Rows(all.Ticker, func(r tickerResp, info *model.Fields) {
		if r.Symbol == "" {
			return
		}
		if len(want) > 0 {
			if _, ok := want[r.Symbol]; !ok {
				return
			}
		}
		// vol 为 base 成交量，volValue 为 quote 成交额
		out[r.Symbol] = &model.Ticker{
			Symbol:      r.Symbol,
			Last:        model.ParseFloat(r.Last),
			Bid:         model.ParseFloat(r.Buy),
			Ask:         model.ParseFloat(r.Sell),
			BaseVolume:  model.ParseFloat(r.Vol),
			QuoteVolume: model.ParseFloat(r.VolValue),
			Timestamp:   all.Time,
			Info:        info,
		}
	})
	return out
}

func (s *Source) LoadOrderBook(ctx context.Context, symbol string, depth int) (*model.OrderBook, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	b, err := get[bookResp](ctx, s.rest, "/api/v1/market/orderbook/level2_20", q)
	if err != nil {
		return nil, fmt.Errorf("orderbook: %w", err)
	}
	return &model.OrderBook{
		Symbol:    symbol,
		Bids:      exchange.ParseLevels(b.Bids, depth),
		Asks:      exchange.ParseLevels(b.Asks, depth),
		Timestamp: b.Time,
	}, nil
}
