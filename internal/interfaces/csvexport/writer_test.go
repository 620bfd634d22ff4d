package csvexport

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"xscan/internal/domain/model"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return rows
}

func TestWriterOverwritesEachScan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "opps.csv")
	w := New(path)

	rep := &model.ScanReport{
		ID: "scan-1",
		Opportunities: []model.OpportunityRecord{
			{Pair: "ABC/USDT", BuyExchange: "gateio", SellExchange: "kucoin", BuyPrice: 1, SellPrice: 1.05,
				SpreadPercent: 5, ProfitPercent: 4.8, Chain: "BEP20", WithdrawOK: true, DepositOK: true,
				Stability: "new", Expiry: "unknown"},
			{Pair: "XYZ/USDT", BuyExchange: "kucoin", SellExchange: "gateio", BuyPrice: 2, SellPrice: 2.05},
		},
	}
	if err := w.WriteScan(rep); err != nil {
		t.Fatalf("WriteScan failed: %v", err)
	}
	rows := readCSV(t, path)
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "pair" || rows[0][13] != "expiry" {
		t.Errorf("unexpected header %v", rows[0])
	}
	if rows[1][0] != "ABC/USDT" || rows[1][6] != "4.8000" || rows[1][10] != "true" {
		t.Errorf("unexpected row %v", rows[1])
	}

	rep.Opportunities = rep.Opportunities[1:]
	if err := w.WriteScan(rep); err != nil {
		t.Fatalf("WriteScan failed: %v", err)
	}
	rows = readCSV(t, path)
	if len(rows) != 2 || rows[1][0] != "XYZ/USDT" {
		t.Errorf("expected overwritten file, got %v", rows)
	}

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}

func TestEncodeEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, nil); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil || len(rows) != 1 || len(rows[0]) != len(model.CSVHeader()) {
		t.Errorf("expected header only, got %v %v", rows, err)
	}
}
