package composite

import (
	"context"
	"errors"

	"xscan/internal/application/port"
	"xscan/internal/domain/model"
)

// Repo 依次写入所有后端，单个失败不影响其余
type Repo struct {
	repos []port.OpportunityRepository
}

func New(repos ...port.OpportunityRepository) *Repo {
	out := make([]port.OpportunityRepository, 0, len(repos))
	for _, r := range repos {
		if r != nil {
			out = append(out, r)
		}
	}
	return &Repo{repos: out}
}

func (r *Repo) Len() int { return len(r.repos) }

func (r *Repo) SaveScan(ctx context.Context, report *model.ScanReport) error {
	var errs []error
	for _, repo := range r.repos {
		if err := repo.SaveScan(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Repo) Close() error {
	var errs []error
	for _, repo := range r.repos {
		if err := repo.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ port.OpportunityRepository = (*Repo)(nil)
