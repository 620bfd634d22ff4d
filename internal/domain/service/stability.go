package service

import (
	"fmt"
	"sync"
	"time"

	"xscan/internal/domain/model"
)

const (
	// MaxSamples 每个机会保留的最近观测数
	MaxSamples = 30
	// MaxHistory 每个机会保留的历史存活时长数
	MaxHistory = 30
)

// Labels 稳定性/预计到期标签
type Labels struct {
	Stability string
	Expiry    string
}

type sample struct {
	at     time.Time
	profit float64
}

type entry struct {
	samples []sample
}

func (e *entry) observed() time.Duration {
	if len(e.samples) == 0 {
		return 0
	}
	return e.samples[len(e.samples)-1].at.Sub(e.samples[0].at)
}

// Session 跨多次扫描的机会稳定性状态
//
// 剩余时长按同一机会历史存活时长的均值估算，
// 前提是存活时长大致平稳，只是一个近似。
type Session struct {
	mu       sync.Mutex
	entries  map[model.OpportunityKey]*entry
	history  map[model.OpportunityKey][]time.Duration
	lastSeen map[model.OpportunityKey]struct{}
}

// NewSession 创建空会话
func NewSession() *Session {
	return &Session{
		entries:  make(map[model.OpportunityKey]*entry),
		history:  make(map[model.OpportunityKey][]time.Duration),
		lastSeen: make(map[model.OpportunityKey]struct{}),
	}
}

// Apply 记录本轮扫描接受的机会并返回对应标签，每轮扫描只调用一次
// keys 与 profits 一一对应
func (s *Session) Apply(now time.Time, keys []model.OpportunityKey, profits []float64) []Labels {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Labels, len(keys))
	seen := make(map[model.OpportunityKey]struct{}, len(keys))
	done := make(map[model.OpportunityKey]Labels, len(keys))

	for i, k := range keys {
		if l, ok := done[k]; ok {
			out[i] = l
			continue
		}
		profit := 0.0
		if i < len(profits) {
			profit = profits[i]
		}
		seen[k] = struct{}{}

		e, ok := s.entries[k]
		if !ok {
			e = &entry{}
			s.entries[k] = e
		}
		at := now
		if n := len(e.samples); n > 0 && at.Before(e.samples[n-1].at) {
			at = e.samples[n-1].at
		}
		e.samples = append(e.samples, sample{at: at, profit: profit})
		if len(e.samples) > MaxSamples {
			e.samples = e.samples[len(e.samples)-MaxSamples:]
		}

		l := Labels{Stability: "new", Expiry: "unknown"}
		d := e.observed()
		if len(e.samples) > 1 {
			l.Stability = FormatDuration(d) + " observed"
		}
		if h := s.history[k]; len(h) > 0 {
			remaining := meanDuration(h) - d
			if remaining <= 0 {
				l.Expiry = "past average"
			} else {
				l.Expiry = "~" + FormatDuration(remaining) + " left"
			}
		}
		done[k] = l
		out[i] = l
	}

	for k := range s.lastSeen {
		if _, ok := seen[k]; ok {
			continue
		}
		if e, ok := s.entries[k]; ok {
			h := append(s.history[k], e.observed())
			if len(h) > MaxHistory {
				h = h[len(h)-MaxHistory:]
			}
			s.history[k] = h
			delete(s.entries, k)
		}
	}
	s.lastSeen = seen
	return out
}

// History 已归档的存活时长（副本）
func (s *Session) History(k model.OpportunityKey) []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.history[k]...)
}

// Active 是否处于活跃状态
func (s *Session) Active(k model.OpportunityKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[k]
	return ok
}

// Samples 当前保留的观测数
func (s *Session) Samples(k model.OpportunityKey) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[k]; ok {
		return len(e.samples)
	}
	return 0
}

func meanDuration(ds []time.Duration) time.Duration {
	var sum time.Duration
	for _, d := range ds {
		sum += d
	}
	return sum / time.Duration(len(ds))
}

// FormatDuration 45s / 12m / 1.5h
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := d.Seconds()
	switch {
	case sec < 90:
		return fmt.Sprintf("%ds", int(sec+0.5))
	case sec < 90*60:
		return fmt.Sprintf("%dm", int(sec/60+0.5))
	default:
		return fmt.Sprintf("%.1fh", sec/3600)
	}
}
