package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"xscan/internal/domain/service"
)

type ExchangeConfig struct {
	Enabled bool   `toml:"enabled"`
	RestURL string `toml:"rest_url"`
	WsURL   string `toml:"ws_url"` // 为空则不启用推送缓存
}

type Config struct {
	App struct {
		LogLevel        string `toml:"log_level"`
		ScanIntervalSec int    `toml:"scan_interval_sec"`
		Once            bool   `toml:"once"`
	} `toml:"app"`

	Scan struct {
		BuyExchanges      []string `toml:"buy_exchanges"`
		SellExchanges     []string `toml:"sell_exchanges"`
		MinProfitPct      float64  `toml:"min_profit_pct"`
		MaxProfitPct      float64  `toml:"max_profit_pct"`
		MinVolumeUSD      float64  `toml:"min_volume_usd"`
		ExcludeChains     []string `toml:"exclude_chains"`
		IncludeAllChains  bool     `toml:"include_all_chains"`
		ChainPriority     []string `toml:"chain_priority"`
		FreshnessSec      int      `toml:"freshness_sec"`
		MaxPriceGap       float64  `toml:"max_price_gap"`
		MaxSymbolsPerPair int      `toml:"max_symbols_per_pair"`
		DefaultTakerFee   float64  `toml:"default_taker_fee"`
		OrderbookDepth    int      `toml:"orderbook_depth"`
		Workers           int      `toml:"workers"`
		RequestTimeoutSec int      `toml:"request_timeout_sec"`
	} `toml:"scan"`

	Exchanges map[string]ExchangeConfig `toml:"exchanges"`

	Storage struct {
		SQLitePath    string `toml:"sqlite_path"`
		PostgresDSN   string `toml:"postgres_dsn"`
		RedisAddr     string `toml:"redis_addr"`
		RedisPassword string `toml:"redis_password"`
		RedisDB       int    `toml:"redis_db"`
		RedisPrefix   string `toml:"redis_prefix"`
		RedisTTLSec   int    `toml:"redis_ttl_sec"`
	} `toml:"storage"`

	Output struct {
		Console *bool  `toml:"console"` // 未设置时默认开启
		CSVPath string `toml:"csv_path"`
	} `toml:"output"`

	Metrics struct {
		Addr string `toml:"addr"` // 如 ":9102"，为空不启动
	} `toml:"metrics"`

	meta toml.MetaData
}

func Load(path string) (*Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	cfg.meta = md
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Parse 从字符串加载，便于测试
func Parse(data string) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return nil, err
	}
	cfg.meta = md
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) defined(key ...string) bool {
	return c.meta.IsDefined(key...)
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.App.LogLevel) == "" {
		cfg.App.LogLevel = "info"
	}
	if cfg.App.ScanIntervalSec <= 0 {
		cfg.App.ScanIntervalSec = 20
	}

	s := &cfg.Scan
	if !cfg.defined("scan", "min_profit_pct") {
		s.MinProfitPct = 1.0
	}
	if !cfg.defined("scan", "max_profit_pct") {
		s.MaxProfitPct = 20.0
	}
	if !cfg.defined("scan", "min_volume_usd") {
		s.MinVolumeUSD = 100_000
	}
	if !cfg.defined("scan", "exclude_chains") {
		s.ExcludeChains = []string{"ETH"}
	}
	if s.FreshnessSec <= 0 {
		s.FreshnessSec = 300
	}
	if s.MaxPriceGap == 0 {
		s.MaxPriceGap = 0.5
	}
	if !cfg.defined("scan", "default_taker_fee") {
		s.DefaultTakerFee = 0.001
	}
	if s.OrderbookDepth <= 0 {
		s.OrderbookDepth = 10
	}
	if s.Workers <= 0 {
		s.Workers = 4
	}
	if s.RequestTimeoutSec <= 0 {
		s.RequestTimeoutSec = 15
	}

	if strings.TrimSpace(cfg.Storage.RedisPrefix) == "" {
		cfg.Storage.RedisPrefix = "xscan"
	}
	if cfg.Storage.RedisTTLSec <= 0 {
		cfg.Storage.RedisTTLSec = 300
	}
	if cfg.Output.Console == nil {
		on := true
		cfg.Output.Console = &on
	}
}

func validate(cfg *Config) error {
	s := &cfg.Scan
	s.BuyExchanges = normalizeIDs(s.BuyExchanges)
	s.SellExchanges = normalizeIDs(s.SellExchanges)
	s.ExcludeChains = normalizeChains(s.ExcludeChains)
	s.ChainPriority = normalizeChains(s.ChainPriority)

	if s.MinProfitPct > s.MaxProfitPct {
		return fmt.Errorf("scan.min_profit_pct %.4f > scan.max_profit_pct %.4f", s.MinProfitPct, s.MaxProfitPct)
	}
	if s.MaxPriceGap <= 0 {
		return errors.New("scan.max_price_gap must be > 0")
	}
	if s.DefaultTakerFee < 0 || s.DefaultTakerFee >= 1 {
		return errors.New("scan.default_taker_fee must be in [0, 1)")
	}
	if s.MinVolumeUSD < 0 {
		return errors.New("scan.min_volume_usd must be >= 0")
	}
	if s.MaxSymbolsPerPair < 0 {
		return errors.New("scan.max_symbols_per_pair must be >= 0")
	}

	ex := make(map[string]ExchangeConfig, len(cfg.Exchanges))
	for raw, e := range cfg.Exchanges {
		id := strings.ToLower(strings.TrimSpace(raw))
		if id == "" {
			continue
		}
		// 只写了 rest_url/ws_url 的交易所视为启用
		if !cfg.defined("exchanges", raw, "enabled") {
			e.Enabled = true
		}
		ex[id] = e
	}
	cfg.Exchanges = ex
	return nil
}

// Exchange 返回交易所配置，未配置时视为启用且使用默认地址
func (c *Config) Exchange(id string) ExchangeConfig {
	id = strings.ToLower(strings.TrimSpace(id))
	if e, ok := c.Exchanges[id]; ok {
		return e
	}
	return ExchangeConfig{Enabled: true}
}

func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.App.ScanIntervalSec) * time.Second
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Scan.RequestTimeoutSec) * time.Second
}

func (c *Config) Freshness() time.Duration {
	return time.Duration(c.Scan.FreshnessSec) * time.Second
}

func (c *Config) RedisTTL() time.Duration {
	return time.Duration(c.Storage.RedisTTLSec) * time.Second
}

func normalizeIDs(in []string) []string {
	return normalize(in, strings.ToLower)
}

// normalizeChains 链名按交易所适配器的统一名称折叠，BSC 与 BEP20 视为同一条链
func normalizeChains(in []string) []string {
	return normalize(in, service.NormalizeNetwork)
}

func normalize(in []string, fold func(string) string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		u := fold(strings.TrimSpace(s))
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
