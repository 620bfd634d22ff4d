package port

import (
	"time"

	"xscan/internal/domain/model"
)

// Sink 扫描结果输出（控制台、CSV 等）
type Sink interface {
	WriteScan(report *model.ScanReport) error
}

// ScanObserver 扫描完成回调（指标等），不能阻塞
type ScanObserver interface {
	ObserveScan(report *model.ScanReport, took time.Duration)
}
