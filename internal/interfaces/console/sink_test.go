package console

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"time"

	"xscan/internal/domain/model"
)

func sampleReport() *model.ScanReport {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &model.ScanReport{
		ID:           "scan-1",
		StartedAt:    at.Add(-1500 * time.Millisecond),
		FinishedAt:   at,
		Participants: []string{"gateio", "kucoin"},
		Opportunities: []model.OpportunityRecord{
			{
				Pair: "ABC/USDT", BuyExchange: "gateio", SellExchange: "kucoin",
				BuyPrice: 0.012345, SellPrice: 0.0127, SpreadPercent: 2.87, ProfitPercent: 2.67,
				BuyVolumeUSD: 1_234_567, SellVolumeUSD: 350_000,
				Chain: "BEP20", Stability: "new", Expiry: "unknown",
			},
			{
				Pair: "XYZ/USDT", BuyExchange: "kucoin", SellExchange: "gateio",
				BuyPrice: 2, SellPrice: 2.03, SpreadPercent: 1.5, ProfitPercent: 1.3,
				Chain: "TRC20", Stability: "40s observed", Expiry: "~1m left",
			},
		},
		Warnings: []model.Warning{{Exchange: "bitget", Op: "load_markets", Message: "timeout"}},
	}
}

func TestSinkWriteScan(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(Options{
		Out:       &buf,
		Threshold: 2,
		Names:     map[string]string{"gateio": "Gate.io", "kucoin": "KuCoin", "bitget": "Bitget"},
	})
	if err := sink.WriteScan(sampleReport()); err != nil {
		t.Fatalf("WriteScan failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"exchanges: Gate.io, KuCoin",
		"opportunities: 2",
		"took 1.5s",
		"ABC/USDT",
		"Gate.io",
		"0.012345",
		"2.67%",
		"$1.2M/$350K",
		"-/-",
		"40s observed",
		"! Bitget load_markets: timeout",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("colour disabled but escape codes written")
	}
}

func TestSinkNoOpportunities(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(Options{Out: &buf})
	rep := sampleReport()
	rep.Opportunities = nil
	rep.Warnings = nil
	if err := sink.WriteScan(rep); err != nil {
		t.Fatalf("WriteScan failed: %v", err)
	}
	if !strings.Contains(buf.String(), "no opportunities") {
		t.Errorf("unexpected output %s", buf.String())
	}
}

func TestSinkLimitAndColor(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(Options{Out: &buf, Threshold: 2, Color: true, Limit: 1})
	if err := sink.WriteScan(sampleReport()); err != nil {
		t.Fatalf("WriteScan failed: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "XYZ/USDT") {
		t.Error("limit should hide the second row")
	}
	if !strings.Contains(out, "... 1 more") {
		t.Error("expected truncation note")
	}
	if !strings.Contains(out, ansiGreen+"2.67%"+ansiReset) {
		t.Error("profit above threshold should be green")
	}
}

var ansiRe = regexp.MustCompile("\033\\[[0-9;]*m")

func TestSinkColorKeepsAlignment(t *testing.T) {
	rep := sampleReport()
	var plain, colored bytes.Buffer
	if err := NewSink(Options{Out: &plain, Threshold: 2}).WriteScan(rep); err != nil {
		t.Fatalf("WriteScan failed: %v", err)
	}
	if err := NewSink(Options{Out: &colored, Threshold: 2, Color: true}).WriteScan(rep); err != nil {
		t.Fatalf("WriteScan failed: %v", err)
	}
	if !strings.Contains(colored.String(), ansiGreen+"2.67%"+ansiReset) {
		t.Fatal("expected coloured profit cell")
	}
	if got := ansiRe.ReplaceAllString(colored.String(), ""); got != plain.String() {
		t.Errorf("colour changed the layout:\n%s\nwant:\n%s", got, plain.String())
	}

	// 表头与各行的 PROFIT 列起始位置一致
	lines := strings.Split(plain.String(), "\n")
	col := strings.Index(lines[1], "PROFIT")
	for _, want := range []string{"2.67%", "1.30%"} {
		found := false
		for _, l := range lines[2:4] {
			if strings.Index(l, want) == col {
				found = true
			}
		}
		if !found {
			t.Errorf("%s not aligned under PROFIT at column %d:\n%s", want, col, plain.String())
		}
	}
}

func TestFormatVolume(t *testing.T) {
	cases := map[float64]string{
		0:         "-",
		950:       "$950",
		350_000:   "$350K",
		1_234_567: "$1.2M",
		2e9:       "$2G",
	}
	for in, want := range cases {
		if got := FormatVolume(in); got != want {
			t.Errorf("FormatVolume(%v) = %s, want %s", in, got, want)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	if got := FormatPrice(65000.5); got != "65000.5" {
		t.Errorf("FormatPrice = %s", got)
	}
	cases := map[float64]string{
		0.00001234:  "0.00001234",
		0.5:         "0.5",
		0.01234:     "0.01234",
		0.000000987: "0.000000987",
		0:           "0",
	}
	for in, want := range cases {
		if got := FormatPrice(in); got != want {
			t.Errorf("FormatPrice(%v) = %s, want %s", in, got, want)
		}
	}
	// 有真实价差的小价格不能显示成同一个值
	if FormatPrice(0.00001234) == FormatPrice(0.00001239) {
		t.Error("small prices with a real spread should render differently")
	}
}
