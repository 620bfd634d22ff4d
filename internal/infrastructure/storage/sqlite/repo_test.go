package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"xscan/internal/domain/model"
)

func sampleReport(id string, finished time.Time) *model.ScanReport {
	return &model.ScanReport{
		ID:           id,
		StartedAt:    finished.Add(-2 * time.Second),
		FinishedAt:   finished,
		Participants: []string{"gateio", "kucoin"},
		Warnings:     []model.Warning{{Exchange: "bitget", Op: "load_markets", Message: "timeout"}},
		Opportunities: []model.OpportunityRecord{
			{
				Pair: "ABC/USDT", BuyExchange: "gateio", SellExchange: "kucoin",
				BuyPrice: 1, SellPrice: 1.05, SpreadPercent: 5, ProfitPercent: 4.8,
				BuyVolumeUSD: 200000, SellVolumeUSD: 300000,
				Chain: "BEP20", WithdrawOK: true, DepositOK: true,
				Stability: "new", Expiry: "unknown",
				Key: model.OpportunityKey{Symbol: "ABCUSDT", BuyExchange: "gateio", SellExchange: "kucoin"},
			},
			{
				Pair: "XYZ/USDT", BuyExchange: "kucoin", SellExchange: "gateio",
				BuyPrice: 2, SellPrice: 2.05, SpreadPercent: 2.5, ProfitPercent: 2.3,
				Chain: "TRC20", WithdrawOK: true, DepositOK: true,
				Stability: "40s observed", Expiry: "~1m left",
				Key: model.OpportunityKey{Symbol: "XYZUSDT", BuyExchange: "kucoin", SellExchange: "gateio"},
			},
		},
	}
}

func TestSQLiteRepoSaveScan(t *testing.T) {
	repo, err := New(filepath.Join(t.TempDir(), "data", "xscan.db"))
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	if got, err := repo.LatestScan(ctx); err != nil || got != nil {
		t.Fatalf("expected empty store, got %+v, %v", got, err)
	}

	if err := repo.SaveScan(ctx, sampleReport("scan-1", base)); err != nil {
		t.Fatalf("SaveScan failed: %v", err)
	}
	second := sampleReport("scan-2", base.Add(20*time.Second))
	second.Opportunities = second.Opportunities[:1]
	if err := repo.SaveScan(ctx, second); err != nil {
		t.Fatalf("SaveScan failed: %v", err)
	}

	n, err := repo.CountScans(ctx)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 scans, got %d, %v", n, err)
	}

	latest, err := repo.LatestScan(ctx)
	if err != nil {
		t.Fatalf("LatestScan failed: %v", err)
	}
	if latest.ID != "scan-2" || !latest.FinishedAt.Equal(base.Add(20*time.Second)) {
		t.Errorf("unexpected latest scan %s at %v", latest.ID, latest.FinishedAt)
	}
	if len(latest.Participants) != 2 || len(latest.Warnings) != 1 || latest.Warnings[0].Op != "load_markets" {
		t.Errorf("unexpected metadata %+v %+v", latest.Participants, latest.Warnings)
	}
	if len(latest.Opportunities) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(latest.Opportunities))
	}
	o := latest.Opportunities[0]
	if o.Key.Symbol != "ABCUSDT" || o.Key.BuyExchange != "gateio" || !o.WithdrawOK || o.ProfitPercent != 4.8 {
		t.Errorf("unexpected opportunity %+v", o)
	}
}

func TestSQLiteRepoResaveReplacesOpportunities(t *testing.T) {
	repo, err := New(filepath.Join(t.TempDir(), "xscan.db"))
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	rep := sampleReport("scan-1", time.Now())
	if err := repo.SaveScan(ctx, rep); err != nil {
		t.Fatalf("SaveScan failed: %v", err)
	}
	if err := repo.SaveScan(ctx, rep); err != nil {
		t.Fatalf("second SaveScan failed: %v", err)
	}

	opps, err := repo.Opportunities(ctx, "scan-1")
	if err != nil {
		t.Fatalf("Opportunities failed: %v", err)
	}
	if len(opps) != 2 || opps[0].Pair != "ABC/USDT" || opps[1].Pair != "XYZ/USDT" {
		t.Errorf("unexpected opportunities %+v", opps)
	}
}
