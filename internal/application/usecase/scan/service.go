package scan

import (
	"context"
	"strings"
	"sync"
	"time"

	"xscan/internal/application/port"
	"xscan/internal/domain/model"
	"xscan/internal/domain/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	defaultWorkers        = 4
	defaultRequestTimeout = 15 * time.Second
)

type ServiceDeps struct {
	Sources        map[string]port.MarketDataSource // key: exchange id
	BuyExchanges   []string
	SellExchanges  []string
	Params         service.ScoreParams
	Workers        int
	RequestTimeout time.Duration
	Repo           port.OpportunityRepository
	Observers      []port.ScanObserver
	Session        *service.Session // nil 时新建
	Now            func() time.Time
}

// Service 一轮扫描：并发拉取 -> 逐对评估 -> 稳定性标注 -> 持久化
type Service struct {
	mu      sync.Mutex // 扫描串行执行
	deps    ServiceDeps
	scorer  *service.Scorer
	session *service.Session
	workers int
	timeout time.Duration
	now     func() time.Time
}

func NewService(deps ServiceDeps) *Service {
	s := &Service{
		deps:    deps,
		session: deps.Session,
		workers: deps.Workers,
		timeout: deps.RequestTimeout,
		now:     deps.Now,
	}
	if s.session == nil {
		s.session = service.NewSession()
	}
	if s.workers <= 0 {
		s.workers = defaultWorkers
	}
	if s.timeout <= 0 {
		s.timeout = defaultRequestTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.deps.Repo == nil {
		s.deps.Repo = NewNoopRepo()
	}
	s.deps.BuyExchanges = normalizeIDs(deps.BuyExchanges)
	s.deps.SellExchanges = normalizeIDs(deps.SellExchanges)
	s.scorer = service.NewScorer(deps.Params, s.now)
	return s
}

// Session 稳定性状态
func (s *Service) Session() *service.Session { return s.session }

// Scan 执行一轮扫描
// 仅在未选择交易所或所有交易所都失败时返回错误，其余问题记入 report.Warnings
func (s *Service) Scan(ctx context.Context) (*model.ScanReport, error) {
	if len(s.deps.BuyExchanges) == 0 || len(s.deps.SellExchanges) == 0 {
		return nil, ErrNoExchangesSelected
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	report := &model.ScanReport{ID: uuid.NewString(), StartedAt: s.now()}
	participants := union(s.deps.BuyExchanges, s.deps.SellExchanges)

	fetched := s.fetchAll(ctx, participants)
	report.Warnings = append(report.Warnings, fetched.warnings...)
	if len(fetched.snapshots) == 0 {
		s.notify(report, ErrNoExchangesAvailable)
		return nil, ErrNoExchangesAvailable
	}
	for _, id := range participants {
		if _, ok := fetched.snapshots[id]; ok {
			report.Participants = append(report.Participants, id)
		}
	}

	books := newBookCache(s.deps.Sources, s.timeout)
	var candidates []service.Candidate
	for _, buyID := range s.deps.BuyExchanges {
		buy, ok := fetched.snapshots[buyID]
		if !ok {
			continue
		}
		for _, sellID := range s.deps.SellExchanges {
			if buyID == sellID {
				continue
			}
			sell, ok := fetched.snapshots[sellID]
			if !ok {
				continue
			}
			candidates = append(candidates, s.scorer.Evaluate(ctx, buy, sell, books)...)
		}
	}
	service.SortCandidates(candidates)

	keys := make([]model.OpportunityKey, len(candidates))
	profits := make([]float64, len(candidates))
	for i := range candidates {
		keys[i] = candidates[i].Key
		profits[i] = candidates[i].ProfitPercent
	}
	labels := s.session.Apply(s.now(), keys, profits)

	report.Opportunities = make([]model.OpportunityRecord, len(candidates))
	for i := range candidates {
		report.Opportunities[i] = candidates[i].Record(labels[i])
	}
	report.FinishedAt = s.now()

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	if err := s.deps.Repo.SaveScan(cctx, report); err != nil {
		report.Warnings = append(report.Warnings, model.Warning{Op: "save", Message: err.Error()})
		log.Warn().Err(err).Str("scan", report.ID).Msg("save scan failed")
	}
	cancel()

	log.Info().
		Str("scan", report.ID).
		Strs("participants", report.Participants).
		Int("opportunities", len(report.Opportunities)).
		Int("warnings", len(report.Warnings)).
		Dur("took", report.FinishedAt.Sub(report.StartedAt)).
		Msg("scan finished")

	s.notify(report, nil)
	return report, nil
}

func (s *Service) notify(report *model.ScanReport, err error) {
	if err != nil {
		report.FinishedAt = s.now()
	}
	took := report.FinishedAt.Sub(report.StartedAt)
	for _, o := range s.deps.Observers {
		o.ObserveScan(report, took)
	}
}

func normalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func union(a, b []string) []string {
	return normalizeIDs(append(append([]string(nil), a...), b...))
}
