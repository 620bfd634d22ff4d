package service

import (
	"math"
	"testing"
)

func TestSpreadAndProfit(t *testing.T) {
	spread := SpreadPercent(100, 102)
	if math.Abs(spread-2.0) > 1e-9 {
		t.Fatalf("expected spread 2.0, got %v", spread)
	}
	profit := ProfitPercent(spread, 0.001, 0.001)
	if math.Abs(profit-1.8) > 1e-9 {
		t.Errorf("expected profit 1.8, got %v", profit)
	}
	if gap := PriceGap(1, 2); gap != 1 {
		t.Errorf("expected gap 1, got %v", gap)
	}
	if gap := PriceGap(2, 1); gap != 0.5 {
		t.Errorf("expected gap 0.5, got %v", gap)
	}
}

func TestProfitColor(t *testing.T) {
	if ProfitColor(3, 2) != 1 || ProfitColor(1, 2) != 0 || ProfitColor(-0.5, 2) != -1 {
		t.Error("unexpected color bands")
	}
}
