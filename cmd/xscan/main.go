package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"xscan/internal/application/container"
	"xscan/internal/application/port"
	"xscan/internal/application/usecase/scan"
	"xscan/internal/domain/service"
	"xscan/internal/infrastructure/config"
	infracontainer "xscan/internal/infrastructure/container"
	"xscan/internal/infrastructure/exchange"
	"xscan/internal/infrastructure/logger"
	"xscan/internal/interfaces/console"
	"xscan/internal/interfaces/csvexport"
	"xscan/internal/interfaces/httpapi"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	once := flag.Bool("once", false, "scan once and exit")
	buy := flag.String("buy", "", "comma separated buy exchanges, overrides config")
	sell := flag.String("sell", "", "comma separated sell exchanges, overrides config")
	last := flag.Bool("last", false, "print the most recent stored scan and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Setup("info")
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	logger.Setup(cfg.App.LogLevel)

	if *buy != "" {
		cfg.Scan.BuyExchanges = splitIDs(*buy)
	}
	if *sell != "" {
		cfg.Scan.SellExchanges = splitIDs(*sell)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *last {
		// 只读存储，不连接交易所
		store, err := infracontainer.NewStorage(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("init storage failed")
		}
		defer store.Close()
		out := console.NewSink(console.Options{
			Threshold: cfg.Scan.MinProfitPct,
			Color:     true,
			Names:     exchange.DisplayNames,
		})
		if err := printLatest(ctx, store, out); err != nil {
			log.Fatal().Err(err).Msg("read latest scan failed")
		}
		return
	}

	infra, err := infracontainer.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init infrastructure failed")
	}
	defer infra.Close()

	var observers []port.ScanObserver
	if m := infra.Metrics(); m != nil {
		observers = append(observers, m)
		m.Mount("/scans/latest", httpapi.LatestHandler(infra))
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.Addr); err != nil {
				log.Error().Err(err).Msg("metrics server exited")
			}
		}()
	}

	var sinks []port.Sink
	if *cfg.Output.Console {
		sinks = append(sinks, console.NewSink(console.Options{
			Threshold: cfg.Scan.MinProfitPct,
			Color:     true,
			Names:     exchange.DisplayNames,
		}))
	}
	if cfg.Output.CSVPath != "" {
		sinks = append(sinks, csvexport.New(cfg.Output.CSVPath))
	}

	app := container.New(scan.ServiceDeps{
		Sources:        infra.Sources(),
		BuyExchanges:   cfg.Scan.BuyExchanges,
		SellExchanges:  cfg.Scan.SellExchanges,
		Params:         scoreParams(cfg),
		Workers:        cfg.Scan.Workers,
		RequestTimeout: cfg.RequestTimeout(),
		Repo:           infra.Repository(),
		Observers:      observers,
	}, cfg.ScanInterval(), sinks...)

	log.Info().
		Str("config", *configPath).
		Strs("buy", cfg.Scan.BuyExchanges).
		Strs("sell", cfg.Scan.SellExchanges).
		Float64("min_profit_pct", cfg.Scan.MinProfitPct).
		Dur("interval", cfg.ScanInterval()).
		Msg("xscan started")

	runner := app.Runner()
	if *once || cfg.App.Once {
		if err := runner.Once(ctx); err != nil {
			log.Fatal().Err(err).Msg("scan failed")
		}
		return
	}

	// SIGHUP 手动触发一次扫描
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				runner.Trigger()
			}
		}
	}()

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("scanner exited")
	}
}

// printLatest 输出已保存的最近一轮扫描
func printLatest(ctx context.Context, h port.ScanHistory, out port.Sink) error {
	rep, err := h.LatestScan(ctx)
	if err != nil {
		return err
	}
	if rep == nil {
		return errors.New("no stored scan, set storage.sqlite_path and run a scan first")
	}
	return out.WriteScan(rep)
}

func scoreParams(cfg *config.Config) service.ScoreParams {
	s := cfg.Scan
	p := service.DefaultScoreParams()
	p.MinProfitPct = s.MinProfitPct
	p.MaxProfitPct = s.MaxProfitPct
	p.MinVolumeUSD = s.MinVolumeUSD
	p.Freshness = cfg.Freshness()
	p.MaxPriceGap = s.MaxPriceGap
	p.MaxSymbolsPerPair = s.MaxSymbolsPerPair
	p.DefaultTakerFee = s.DefaultTakerFee
	p.BookDepth = s.OrderbookDepth
	p.Chains.Exclude = s.ExcludeChains
	p.Chains.IncludeAll = s.IncludeAllChains
	if len(s.ChainPriority) > 0 {
		p.Chains.Priority = s.ChainPriority
	}
	return p
}

func splitIDs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}
