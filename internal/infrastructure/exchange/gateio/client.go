package gateio

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

const defaultBaseURL = "https://api.gateio.ws/api/v4"

// Source Gate.io v4 公开现货接口
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

func (s *Source) Name() string { return exchange.GateIO }

func (s *Source) Capabilities() port.Capabilities {
	return port.Capabilities{DisplayName: exchange.DisplayName(exchange.GateIO)}
}

type pairResp struct {
	ID          string `json:"id"`
	Base        string `json:"base"`
	Quote       string `json:"quote"`
	Fee         string `json:"fee"` // 百分比，"0.2" = 0.2%
	TradeStatus string `json:"trade_status"`
}

type chainResp struct {
	Name             string `json:"name"`
	WithdrawDisabled bool   `json:"withdraw_disabled"`
	WithdrawDelayed  bool   `json:"withdraw_delayed"`
	DepositDisabled  bool   `json:"deposit_disabled"`
}

type currencyResp struct {
	Currency         string      `json:"currency"`
	Delisted         bool        `json:"delisted"`
	WithdrawDisabled bool        `json:"withdraw_disabled"`
	DepositDisabled  bool        `json:"deposit_disabled"`
	Chain            string      `json:"chain"`
	Chains           []chainResp `json:"chains"`
}

type tickerResp struct {
	CurrencyPair string `json:"currency_pair"`
	Last         string `json:"last"`
	LowestAsk    string `json:"lowest_ask"`
	HighestBid   string `json:"highest_bid"`
	BaseVolume   string `json:"base_volume"`
	QuoteVolume  string `json:"quote_volume"`
}

type bookResp struct {
	Current int64      `json:"current"`
	Asks    [][]string `json:"asks"`
	Bids    [][]string `json:"bids"`
}

func (s *Source) LoadMarkets(ctx context.Context) (*model.Catalog, error) {
	var pairs []pairResp
	if err := s.rest.GetJSON(ctx, "/spot/currency_pairs", nil, &pairs); err != nil {
		return nil, fmt.Errorf("currency_pairs: %w", err)
	}
	var currencies []currencyResp
	if err := s.rest.GetJSON(ctx, "/spot/currencies", nil, &currencies); err != nil {
		return nil, fmt.Errorf("currencies: %w", err)
	}
	return buildCatalog(pairs, currencies), nil
}

func buildCatalog(pairs []pairResp, currencies []currencyResp) *model.Catalog {
	cat := &model.Catalog{
		Markets:    make([]model.Market, 0, len(pairs)),
		Currencies: make(map[string]model.Currency, len(currencies)),
	}
	for _, p := range pairs {
		m := model.Market{
			Symbol: p.ID,
			Base:   strings.ToUpper(p.Base),
			Quote:  strings.ToUpper(p.Quote),
			Spot:   true,
			Active: p.TradeStatus == "tradable",
		}
		if pct := model.ParseFloat(p.Fee); pct != nil {
			m.TakerFee = model.Float(*pct / 100)
		}
		cat.Markets = append(cat.Markets, m)
	}
	for _, c := range currencies {
		if c.Delisted {
			continue
		}
		// 新版返回 USDT_ETH 这类按链拆分的币种，取下划线前的部分
		code := strings.ToUpper(c.Currency)
		if i := strings.IndexByte(code, '_'); i > 0 {
			code = code[:i]
		}
		cur := cat.Currencies[code]
		cur.Code = code
		if len(c.Chains) == 0 && c.Chain != "" {
			exchange.AddNetwork(&cur, c.Chain, !c.WithdrawDisabled, !c.DepositDisabled)
		}
		for _, ch := range c.Chains {
			withdraw := !ch.WithdrawDisabled && !ch.WithdrawDelayed && !c.WithdrawDisabled
			deposit := !ch.DepositDisabled && !c.DepositDisabled
			exchange.AddNetwork(&cur, ch.Name, withdraw, deposit)
		}
		cat.Currencies[code] = cur
	}
	return cat
}

func (s *Source) LoadTickers(ctx context.Context, symbols []string) (map[string]*model.Ticker, error) {
	var raw []json.RawMessage
	if err := s.rest.GetJSON(ctx, "/spot/tickers", nil, &raw); err != nil {
		return nil, fmt.Errorf("tickers: %w", err)
	}
	return parseTickers(raw, symbols), nil
}

func parseTickers(raw []json.RawMessage, symbols []string) map[string]*model.Ticker {
	want := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		want[s] = struct{}{}
	}
	out := make(map[string]*model.Ticker, len(raw))
	exchange.Rows(raw, func(r tickerResp, info *model.Fields) {
		if r.CurrencyPair == "" {
			return
		}
		if len(want) > 0 {
			if _, ok := want[r.CurrencyPair]; !ok {
				return
			}
		}
		out[r.CurrencyPair] = &model.Ticker{
			Symbol:      r.CurrencyPair,
			Last:        model.ParseFloat(r.Last),
			Bid:         model.ParseFloat(r.HighestBid),
			Ask:         model.ParseFloat(r.LowestAsk),
			BaseVolume:  model.ParseFloat(r.BaseVolume),
			QuoteVolume: model.ParseFloat(r.QuoteVolume),
			Info:        info,
		}
	})
	return out
}

func (s *Source) LoadOrderBook(ctx context.Context, symbol string, depth int) (*model.OrderBook, error) {
	q := url.Values{}
	q.Set("currency_pair", symbol)
	q.Set("limit", strconv.Itoa(max(depth, 1)))
	var b bookResp
	if err := s.rest.GetJSON(ctx, "/spot/order_book", q, &b); err != nil {
		return nil, fmt.Errorf("order_book: %w", err)
	}
	return &model.OrderBook{
		Symbol:    symbol,
		Bids:      exchange.ParseLevels(b.Bids, depth),
		Asks:      exchange.ParseLevels(b.Asks, depth),
		Timestamp: b.Current,
	}, nil
}
