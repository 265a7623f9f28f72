package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reportit/backend/internal/analysis"
	"reportit/backend/internal/api/handler"
	"reportit/backend/internal/auth"
	"reportit/backend/internal/complaint"
	"reportit/backend/internal/config"
	"reportit/backend/internal/localization"
	"reportit/backend/internal/metrics"
	"reportit/backend/internal/screen"
	"reportit/backend/internal/storage"
	"reportit/backend/internal/telegram"
	"reportit/backend/internal/telemetry"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/automaxprocs/maxprocs"
)

const shutdownTimeout = 10 * time.Second

func setupStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, func(), error) {
	if cfg.Database.Driver == config.DriverMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		return storage.NewMemoryStore(), func() {}, nil
	}

	db, err := storage.Open(cfg.Database, cfg.Tracing.Enabled)
	if err != nil {
		return nil, nil, err
	}
	s := storage.NewStorageService(db, logger)
	if err := s.Migrate(); err != nil {
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	logger.Info("database connected, migrations complete", "driver", cfg.Database.Driver)
	return s, closeDB, nil
}

func setupSessions(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (auth.SessionStore, func(), error) {
	if cfg.Addr == "" {
		logger.Warn("redis address not set, sessions are kept in process")
		return auth.NewMemorySessionStore(), func() {}, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	return auth.NewRedisSessionStore(rdb), func() { _ = rdb.Close() }, nil
}

func setupAnalyzer(cfg config.GeminiConfig, m *metrics.Metrics, logger *slog.Logger) *analysis.Analyzer {
	var model analysis.Model
	gemini, err := analysis.NewGemini(analysis.GeminiConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
	}, &http.Client{Timeout: 60 * time.Second})
	if err != nil {
		logger.Warn("photo analysis disabled", "error", err)
		model = analysis.Unavailable{}
	} else {
		model = gemini
	}
	return analysis.NewAnalyzer(model, logger, m.ObserveAnalysis)
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	shutdownTracing, err := telemetry.Setup(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error("tracer shutdown failed", "error", err)
		}
	}()

	store, closeStore, err := setupStorage(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	sessions, closeSessions, err := setupSessions(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer closeSessions()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	complaints := complaint.NewService(store, m, logger)
	provider := auth.NewProvider(store, sessions, cfg.Auth, logger)
	analyzer := setupAnalyzer(cfg.Gemini, m, logger)
	deps := screen.Deps{Logger: logger, Metrics: m}

	if cfg.Telegram.BotToken != "" {
		stop, err := startBot(ctx, cfg.Telegram, store, complaints, analyzer, deps)
		if err != nil {
			return err
		}
		defer stop()
	} else {
		logger.Info("telegram bot token not set, bot disabled")
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	h := handler.NewHandler(complaints, analyzer, provider, deps)
	server := &http.Server{
		Addr:           cfg.ListenAddr,
		Handler:        handler.NewRouter(h, reg, logger),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   70 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func startBot(
	ctx context.Context,
	cfg config.TelegramConfig,
	users telegram.Users,
	complaints screen.Complaints,
	analyzer screen.Analyzer,
	deps screen.Deps,
) (func(), error) {
	api, err := telegram.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("start telegram bot: %w", err)
	}
	localizer, err := localization.Default()
	if err != nil {
		return nil, err
	}
	client := telegram.NewClient(api, &http.Client{Timeout: 30 * time.Second}, deps.Logger)
	bot := telegram.NewBotService(client, users, complaints, analyzer, localizer, deps)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	botCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		bot.Run(botCtx, updates)
	}()
	deps.Logger.Info("telegram bot started", "username", api.Self.UserName)

	return func() {
		cancel()
		<-done
		api.StopReceivingUpdates()
	}, nil
}

func main() {
	cfg, err := config.Load(os.Getenv("REPORTIT_CONFIG_FILE"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: cfg.Debug,
		Level:     cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, v ...any) {
		logger.Info(fmt.Sprintf(format, v...), "component", "maxprocs")
	})); err != nil {
		logger.Error("failed to set GOMAXPROCS", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting ReportIt backend")
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		stop()
		os.Exit(1)
	}
}
