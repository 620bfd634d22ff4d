package storage

import (
	"context"
	"encoding/json"
	"sync"

	"xscan/internal/application/port"
	"xscan/internal/domain/model"
)

// DefaultMemoryKeep Memory 默认保留的扫描轮数
const DefaultMemoryKeep = 64

// EncodeStrings 以 JSON 数组保存列表字段，nil 写为 []
func EncodeStrings(v []string) string {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return string(b)
}

// EncodeWarnings 以 JSON 数组保存告警
func EncodeWarnings(v []model.Warning) string {
	if v == nil {
		v = []model.Warning{}
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func DecodeStrings(s string) []string {
	var out []string
	_ = json.Unmarshal([]byte(s), &out)
	return out
}

func DecodeWarnings(s string) []model.Warning {
	var out []model.Warning
	_ = json.Unmarshal([]byte(s), &out)
	return out
}

// Memory 进程内仓储，只保留最近 keep 轮
type Memory struct {
	mu      sync.RWMutex
	keep    int
	reports []*model.ScanReport
}

func NewMemory(keep int) *Memory {
	if keep <= 0 {
		keep = DefaultMemoryKeep
	}
	return &Memory{keep: keep}
}

func (m *Memory) SaveScan(ctx context.Context, report *model.ScanReport) error {
	if report == nil {
		return nil
	}
	cp := *report
	cp.Opportunities = append([]model.OpportunityRecord(nil), report.Opportunities...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, &cp)
	if len(m.reports) > m.keep {
		m.reports = m.reports[len(m.reports)-m.keep:]
	}
	return nil
}

// LatestScan 最近一轮，没有时返回 nil
func (m *Memory) LatestScan(ctx context.Context) (*model.ScanReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.reports) == 0 {
		return nil, nil
	}
	return m.reports[len(m.reports)-1], nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.reports)
}

func (m *Memory) Close() error { return nil }

var (
	_ port.OpportunityRepository = (*Memory)(nil)
	_ port.ScanHistory           = (*Memory)(nil)
)
