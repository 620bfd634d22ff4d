package exchange

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"xscan/internal/domain/model"
	"xscan/internal/domain/service"
	"xscan/internal/infrastructure/config"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/ok":
			if r.URL.Query().Get("symbol") != "BTC-USDT" {
				http.Error(w, "bad symbol", http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(`{"price":"1.5"}`))
		default:
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}
	}))
	defer srv.Close()

	c := NewRESTClient(srv.URL+"/", 0)
	var out struct {
		Price string `json:"price"`
	}
	if err := c.GetJSON(context.Background(), "/api/v1/ok", url.Values{"symbol": {"BTC-USDT"}}, &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if out.Price != "1.5" {
		t.Errorf("unexpected price %q", out.Price)
	}

	err := c.GetJSON(context.Background(), "/missing", nil, &out)
	if err == nil || !strings.HasPrefix(err.Error(), "http 429: rate limited") {
		t.Errorf("expected http 429 error, got %v", err)
	}
}

func TestParseLevels(t *testing.T) {
	levels := ParseLevels([][]string{{"100.5", "2"}, {"bad", "1"}, {"99"}, {"99", "3"}, {"98", "1"}}, 2)
	if len(levels) != 2 || levels[0].Price != 100.5 || levels[1].Qty != 3 {
		t.Errorf("unexpected levels %+v", levels)
	}
}

func TestRowsKeepsInfo(t *testing.T) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(`[{"s":"BTCUSDT","turnover":"123.4","z":1},{"s":1}]`), &raw); err != nil {
		t.Fatal(err)
	}
	type row struct {
		S string `json:"s"`
	}
	var got []string
	var turnover float64
	Rows(raw, func(r row, info *model.Fields) {
		got = append(got, r.S)
		turnover, _ = info.Float("turnover")
	})
	// 第二行类型不匹配被跳过
	if len(got) != 1 || got[0] != "BTCUSDT" || turnover != 123.4 {
		t.Errorf("unexpected rows %v, turnover %v", got, turnover)
	}
}

func TestAddNetwork(t *testing.T) {
	cur := &model.Currency{Code: "USDT"}
	AddNetwork(cur, "TRX", false, true)
	AddNetwork(cur, "TRC20", true, false)
	AddNetwork(cur, " ", true, true)
	if n := cur.Networks["TRC20"]; !n.Withdraw || !n.Deposit || len(cur.Networks) != 1 {
		t.Errorf("expected merged TRC20, got %+v", cur.Networks)
	}
}

func TestConfigExcludeMatchesAdapterNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := "[scan]\nexclude_chains = [\"BSC\", \"Polygon\"]\nchain_priority = [\"ERC20\", \"TRC20\"]\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	opts := service.ChainOptions{Priority: cfg.Scan.ChainPriority, Exclude: cfg.Scan.ExcludeChains}

	// 各交易所原始链名
	buy := &model.Currency{Code: "USDT"}
	AddNetwork(buy, "BSC", true, true)
	AddNetwork(buy, "Polygon", true, true)
	sell := &model.Currency{Code: "USDT"}
	AddNetwork(sell, "BNB Smart Chain", true, true)
	AddNetwork(sell, "POL", true, true)

	if got := service.ResolveChain(buy, sell, opts); got.Status != service.ChainNone {
		t.Fatalf("BEP20/MATIC should be excluded, got %+v", got)
	}

	AddNetwork(buy, "ERC20", true, true)
	AddNetwork(sell, "Ethereum", true, true)
	if got := service.ResolveChain(buy, sell, opts); got.Status != service.ChainOK || got.Network != "ETH" {
		t.Fatalf("aliased priority should pick ETH, got %+v", got)
	}
}
