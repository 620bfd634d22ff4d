package container

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"xscan/internal/application/port"
	"xscan/internal/domain/model"
	"xscan/internal/infrastructure/config"
	"xscan/internal/infrastructure/factory"
	"xscan/internal/infrastructure/metrics"
	"xscan/internal/infrastructure/storage"
	"xscan/internal/infrastructure/storage/composite"
	pgrepo "xscan/internal/infrastructure/storage/postgres"
	redisrepo "xscan/internal/infrastructure/storage/redis"
	sqliterepo "xscan/internal/infrastructure/storage/sqlite"
)

// Container 包含所有基础设施依赖
type Container struct {
	cfg         *config.Config
	sources     map[string]port.MarketDataSource
	repo        *composite.Repo
	history     *storage.Memory  // 本进程最近的扫描
	durable     port.ScanHistory // 跨进程可读的存储，目前为 SQLite
	metrics     *metrics.Metrics
	redisClient *redis.Client
	closeOnce   sync.Once
	closerChain []func() error
}

// New 创建新的容器实例，任一存储初始化失败即返回错误
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	c, err := NewStorage(cfg)
	if err != nil {
		return nil, err
	}

	c.sources = factory.NewSources(ctx, cfg)

	if cfg.Metrics.Addr != "" {
		c.metrics = metrics.New()
	}
	return c, nil
}

// NewStorage 只初始化存储层，不创建交易所数据源，也不启动推流
// 用于只读取已保存扫描结果的场景
func NewStorage(cfg *config.Config) (*Container, error) {
	c := &Container{
		cfg:         cfg,
		closerChain: make([]func() error, 0),
	}

	c.history = storage.NewMemory(0)
	repos := []port.OpportunityRepository{c.history}
	if err := c.initStorage(&repos); err != nil {
		// 清理已初始化的资源
		_ = c.Close()
		return nil, err
	}
	c.repo = composite.New(repos...)
	return c, nil
}

// initStorage 初始化存储层（Redis、SQLite、Postgres），未配置的跳过
func (c *Container) initStorage(repos *[]port.OpportunityRepository) error {
	st := c.cfg.Storage

	if st.SQLitePath != "" {
		repo, err := sqliterepo.New(st.SQLitePath)
		if err != nil {
			return fmt.Errorf("sqlite init failed: %w", err)
		}
		c.closerChain = append(c.closerChain, func() error {
			log.Info().Msg("closing sqlite connection")
			return repo.Close()
		})
		*repos = append(*repos, repo)
		c.durable = repo
		n, err := repo.CountScans(context.Background())
		if err != nil {
			return fmt.Errorf("sqlite count failed: %w", err)
		}
		log.Info().Str("path", st.SQLitePath).Int("scans", n).Msg("sqlite initialized")
	}

	if st.PostgresDSN != "" {
		repo, err := pgrepo.New(st.PostgresDSN)
		if err != nil {
			return fmt.Errorf("postgres init failed: %w", err)
		}
		c.closerChain = append(c.closerChain, func() error {
			log.Info().Msg("closing postgres connection")
			return repo.Close()
		})
		*repos = append(*repos, repo)
		log.Info().Msg("postgres initialized")
	}

	if st.RedisAddr != "" {
		if err := c.initRedis(); err != nil {
			return fmt.Errorf("redis init failed: %w", err)
		}
		*repos = append(*repos, redisrepo.New(c.redisClient, st.RedisPrefix, c.cfg.RedisTTL()))
	}
	return nil
}

// initRedis 初始化 Redis 连接
func (c *Container) initRedis() error {
	st := c.cfg.Storage
	rdb := redis.NewClient(&redis.Options{
		Addr:     st.RedisAddr,
		Password: st.RedisPassword,
		DB:       st.RedisDB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("redis ping failed: %w", err)
	}

	c.redisClient = rdb
	c.closerChain = append(c.closerChain, func() error {
		log.Info().Msg("closing redis connection")
		return rdb.Close()
	})

	log.Info().
		Str("addr", st.RedisAddr).
		Int("db", st.RedisDB).
		Msg("redis initialized")
	return nil
}

// Config 获取配置
func (c *Container) Config() *config.Config {
	return c.cfg
}

// Sources 已启用的交易所数据源，NewStorage 创建的容器为空
func (c *Container) Sources() map[string]port.MarketDataSource {
	return c.sources
}

// Repository 进程内历史加上所有已配置存储的组合
func (c *Container) Repository() port.OpportunityRepository {
	return c.repo
}

// LatestScan 优先取本进程最近一轮，尚未扫描时回落到 SQLite 中保存的上一轮
func (c *Container) LatestScan(ctx context.Context) (*model.ScanReport, error) {
	if rep, err := c.history.LatestScan(ctx); err != nil || rep != nil {
		return rep, err
	}
	if c.durable == nil {
		return nil, nil
	}
	return c.durable.LatestScan(ctx)
}

// Metrics 未配置 metrics.addr 时为 nil
func (c *Container) Metrics() *metrics.Metrics {
	return c.metrics
}

// Close 关闭所有资源（按后进先出顺序）
func (c *Container) Close() error {
	var err error
	c.closeOnce.Do(func() {
		for i := len(c.closerChain) - 1; i >= 0; i-- {
			if e := c.closerChain[i](); e != nil {
				log.Error().Err(e).Msg("error closing resource")
				if err == nil {
					err = e
				}
			}
		}
		log.Info().Int("scans_in_memory", c.history.Len()).Msg("container closed")
	})
	return err
}
