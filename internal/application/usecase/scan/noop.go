package scan

import (
	"context"

	"xscan/internal/application/port"
	"xscan/internal/domain/model"
)

type noopRepo struct{}

func NewNoopRepo() port.OpportunityRepository { return &noopRepo{} }

func (n *noopRepo) SaveScan(ctx context.Context, report *model.ScanReport) error {
	return nil
}
func (n *noopRepo) Close() error { return nil }
