package postgres

import (
	"strings"
	"testing"

	"xscan/internal/domain/model"
)

func TestInsertOpportunitiesPlaceholders(t *testing.T) {
	opps := []model.OpportunityRecord{
		{Pair: "ABC/USDT", Key: model.OpportunityKey{Symbol: "ABCUSDT"}},
		{Pair: "XYZ/USDT", Key: model.OpportunityKey{Symbol: "XYZUSDT"}},
	}
	query, args := insertOpportunities("scan-1", 1700000000000, opps)

	if len(args) != 2*oppColumns {
		t.Fatalf("expected %d args, got %d", 2*oppColumns, len(args))
	}
	if !strings.Contains(query, "($1, $2,") || !strings.Contains(query, "$36)") {
		t.Errorf("unexpected placeholders in %s", query)
	}
	if strings.Contains(query, "$37") {
		t.Error("too many placeholders")
	}
	if args[oppColumns] != "scan-1" || args[oppColumns+1] != 1 || args[oppColumns+2] != "XYZUSDT" {
		t.Errorf("unexpected second row args %v", args[oppColumns:oppColumns+3])
	}
}
