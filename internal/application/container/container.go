package container

import (
	"time"

	"xscan/internal/application/port"
	"xscan/internal/application/usecase/scan"
)

// Container 组装扫描服务与定时器
type Container struct {
	deps     scan.ServiceDeps
	interval time.Duration
	sinks    []port.Sink

	scanService *scan.Service
	runner      *scan.Runner
}

func New(deps scan.ServiceDeps, interval time.Duration, sinks ...port.Sink) *Container {
	if deps.Repo == nil {
		deps.Repo = scan.NewNoopRepo()
	}
	return &Container{
		deps:     deps,
		interval: interval,
		sinks:    sinks,
	}
}

func (c *Container) Repository() port.OpportunityRepository {
	return c.deps.Repo
}

func (c *Container) ScanService() *scan.Service {
	if c.scanService == nil {
		c.scanService = scan.NewService(c.deps)
	}
	return c.scanService
}

func (c *Container) Runner() *scan.Runner {
	if c.runner == nil {
		c.runner = scan.NewRunner(c.ScanService(), c.interval, c.sinks...)
	}
	return c.runner
}

func (c *Container) Close() error {
	return c.deps.Repo.Close()
}
