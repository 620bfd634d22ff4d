package port

import (
	"context"

	"xscan/internal/domain/model"
)

// OpportunityRepository 扫描结果仓储
type OpportunityRepository interface {
	// SaveScan 保存一轮扫描及其全部机会
	SaveScan(ctx context.Context, report *model.ScanReport) error

	// Connection management
	Close() error
}

// ScanHistory 读取已保存的扫描，没有记录时返回 nil, nil
type ScanHistory interface {
	LatestScan(ctx context.Context) (*model.ScanReport, error)
}
