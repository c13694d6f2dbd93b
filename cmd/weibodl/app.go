package main

import (
	"errors"
	"fmt"

	"weibodl/internal/downloader"
	"weibodl/pkg/auth"
	"weibodl/pkg/config"
	"weibodl/pkg/logger"
	"weibodl/pkg/metrics"
	"weibodl/pkg/naming"
	"weibodl/pkg/ratelimit"
	"weibodl/pkg/resolver"
	"weibodl/pkg/storage"
	"weibodl/pkg/trigger"
	"weibodl/pkg/ui"
	"weibodl/pkg/weibo"
)

// app bundles the components shared by every download command
type app struct {
	cfg     *config.Config
	log     logger.Logger
	client  *weibo.Client
	saver   *storage.Saver
	metrics *metrics.Collector
	handler *trigger.Handler
}

// newApp loads configuration and wires the download pipeline. With
// fileLogOnly set, logs go to the configured log file only so that a full
// screen dashboard keeps the terminal.
func newApp(flags map[string]interface{}, fileLogOnly bool) (*app, error) {
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if fileLogOnly {
		l, err := logger.NewFileOnly(&cfg.Logging)
		if err != nil {
			return nil, err
		}
		logger.SetLogger(l)
	} else if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, err
	}
	log := logger.GetLogger()
	log.WithField("version", version).Debug("weibodl starting")

	loadSession(cfg, log)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	client := weibo.NewClient(cfg.Weibo, log)

	saver, err := storage.NewSaver(storage.Options{
		OutputDir: cfg.Output.BaseDirectory,
		Timeout:   cfg.Download.Timeout,
		Overwrite: cfg.Output.OverwriteExisting,
	}, log)
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector()

	orchestrator := downloader.NewOrchestrator(saver, downloader.Options{
		Concurrency: cfg.Download.ConcurrentDownloads,
		MaxAttempts: cfg.Download.MaxAttempts,
		RetryDelay:  cfg.Download.RetryDelay,
		Headers:     mediaHeaders(cfg.Weibo),
	}, collector, log)

	deps := trigger.Deps{
		Fetcher:    client,
		Resolver:   resolver.New(log),
		Namer:      naming.NewGenerator(loc),
		Downloader: orchestrator,
		Limiter:    ratelimit.New(cfg.RateLimit.RequestsPerMinute),
		Sidecar:    saver,
		Metrics:    collector,
		Logger:     log,
	}
	if cfg.Notifications.Enabled {
		if fileLogOnly {
			deps.Notifier = ui.NewNotifierWithSender(ui.PlatformSender(), nil)
		} else {
			deps.Notifier = ui.NewNotifier()
		}
	}

	handler := trigger.NewHandler(deps, trigger.Options{
		SaveMetadata:     cfg.Output.SaveMetadata,
		SkipImages:       cfg.Download.SkipImages,
		SkipVideos:       cfg.Download.SkipVideos,
		NotifyOnComplete: cfg.Notifications.OnComplete,
		NotifyOnError:    cfg.Notifications.OnError,
	})

	return &app{
		cfg:     cfg,
		log:     log,
		client:  client,
		saver:   saver,
		metrics: collector,
		handler: handler,
	}, nil
}

// loadSession fills in the cookie from the credential store when the
// configuration does not carry one. Public posts still resolve without it.
func loadSession(cfg *config.Config, log logger.Logger) {
	if cfg.Weibo.Cookie != "" {
		log.Debug("using cookie from configuration")
		return
	}

	manager, err := auth.NewManager()
	if err != nil {
		log.WithError(err).Warn("credential store unavailable")
		return
	}

	account, err := manager.Retrieve(cfg.Weibo.Account)
	if err != nil {
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			log.Warn("no stored session, continuing without cookie")
		} else {
			log.WithError(err).Warn("failed to load stored session")
		}
		return
	}

	cfg.Weibo.Cookie = account.Cookie
	if account.UserAgent != "" {
		cfg.Weibo.UserAgent = account.UserAgent
	}
	log.WithField("account", account.Name).Info("using stored session")
}

// mediaHeaders are sent with every media download. The image hosts reject
// requests without a weibo.com referer.
func mediaHeaders(cfg config.WeiboConfig) map[string]string {
	headers := map[string]string{}
	if cfg.Referer != "" {
		headers["Referer"] = cfg.Referer
	}
	if cfg.UserAgent != "" {
		headers["User-Agent"] = cfg.UserAgent
	}
	return headers
}
