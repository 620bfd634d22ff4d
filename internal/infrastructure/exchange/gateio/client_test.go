package gateio

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"xscan/internal/infrastructure/pricefeed"
)

const (
	pairsJSON = `[
		{"id":"BTC_USDT","base":"BTC","quote":"USDT","fee":"0.2","trade_status":"tradable"},
		{"id":"OLD_USDT","base":"OLD","quote":"USDT","fee":"0.2","trade_status":"untradable"}
	]`
	currenciesJSON = `[
		{"currency":"BTC","delisted":false,"chains":[
			{"name":"BTC","withdraw_disabled":false,"withdraw_delayed":false,"deposit_disabled":false},
			{"name":"BSC","withdraw_disabled":true,"withdraw_delayed":false,"deposit_disabled":false}
		]},
		{"currency":"GONE","delisted":true}
	]`
	tickersJSON = `[
		{"currency_pair":"BTC_USDT","last":"65000.1","lowest_ask":"65000.2","highest_bid":"65000","base_volume":"120.5","quote_volume":"7800000"},
		{"currency_pair":"OLD_USDT","last":"","lowest_ask":"","highest_bid":""}
	]`
	bookJSON = `{"current":1700000000123,"asks":[["65000.2","0.5"],["65001","1"]],"bids":[["65000","0.3"]]}`
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v4/spot/currency_pairs", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(pairsJSON)) })
	mux.HandleFunc("/api/v4/spot/currencies", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(currenciesJSON)) })
	mux.HandleFunc("/api/v4/spot/tickers", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(tickersJSON)) })
	mux.HandleFunc("/api/v4/spot/order_book", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("currency_pair") != "BTC_USDT" {
			http.Error(w, `{"label":"INVALID_CURRENCY_PAIR"}`, http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(bookJSON))
	})
	return httptest.NewServer(mux)
}

func TestLoadMarkets(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	src := New(pricefeed.Options{RestURL: srv.URL + "/api/v4", Timeout: 5 * time.Second})

	cat, err := src.LoadMarkets(context.Background())
	if err != nil {
		t.Fatalf("LoadMarkets failed: %v", err)
	}
	if len(cat.Markets) != 2 {
		t.Fatalf("expected 2 markets, got %d", len(cat.Markets))
	}
	btc := cat.Markets[0]
	if btc.Symbol != "BTC_USDT" || !btc.Active || !btc.Spot || btc.TakerFee == nil || math.Abs(*btc.TakerFee-0.002) > 1e-12 {
		t.Errorf("unexpected market %+v", btc)
	}
	if cat.Markets[1].Active {
		t.Error("untradable pair should be inactive")
	}
	cur, ok := cat.Currency("BTC")
	if !ok {
		t.Fatal("BTC currency missing")
	}
	if n := cur.Networks["BEP20"]; n.Withdraw || !n.Deposit {
		t.Errorf("BSC chain should normalise to BEP20 with withdraw disabled, got %+v", cur.Networks)
	}
	if _, ok := cat.Currency("GONE"); ok {
		t.Error("delisted currency should be skipped")
	}
}

func TestLoadTickersAndBook(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	src := New(pricefeed.Options{RestURL: srv.URL + "/api/v4"})

	tickers, err := src.LoadTickers(context.Background(), nil)
	if err != nil {
		t.Fatalf("LoadTickers failed: %v", err)
	}
	btc := tickers["BTC_USDT"]
	if btc == nil || *btc.Last != 65000.1 || *btc.Bid != 65000 || *btc.QuoteVolume != 7800000 {
		t.Fatalf("unexpected ticker %+v", btc)
	}
	if old := tickers["OLD_USDT"]; old == nil || old.Last != nil {
		t.Errorf("empty strings should parse as absent, got %+v", old)
	}

	only, _ := src.LoadTickers(context.Background(), []string{"OLD_USDT"})
	if len(only) != 1 {
		t.Errorf("symbol filter not applied: %d", len(only))
	}

	book, err := src.LoadOrderBook(context.Background(), "BTC_USDT", 1)
	if err != nil {
		t.Fatalf("LoadOrderBook failed: %v", err)
	}
	if len(book.Asks) != 1 || book.Asks[0].Price != 65000.2 || book.Timestamp != 1700000000123 {
		t.Errorf("unexpected book %+v", book)
	}
	if _, err := src.LoadOrderBook(context.Background(), "NOPE_USDT", 5); err == nil {
		t.Error("expected error for bad pair")
	}
}
