// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telegram-itmo-schedule/internal/application"
	"telegram-itmo-schedule/internal/config"
	"telegram-itmo-schedule/internal/domain/model"
	"telegram-itmo-schedule/internal/domain/ports/adapter"
	"telegram-itmo-schedule/internal/domain/ports/repository"
	"telegram-itmo-schedule/internal/infra/adapters/schedule"
	tele "telegram-itmo-schedule/internal/infra/adapters/telegram"
	pg "telegram-itmo-schedule/internal/infra/db/postgres"
	"telegram-itmo-schedule/internal/infra/logging"
	"telegram-itmo-schedule/internal/infra/memory"
	"telegram-itmo-schedule/internal/infra/metrics"
	red "telegram-itmo-schedule/internal/infra/redis"
	"telegram-itmo-schedule/internal/infra/scheduler"
	"telegram-itmo-schedule/internal/infra/security"
	"telegram-itmo-schedule/internal/infra/web"
	"telegram-itmo-schedule/internal/infra/worker"
	"telegram-itmo-schedule/internal/usecase"

	"github.com/rs/zerolog"
)

// Build metadata, injected with -ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	log := logger.With().Str("component", "main").Logger()
	if cfg.Runtime.Dev {
		log.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres (optional) ----
	var (
		userRepo repository.UserRepository
		txMgr    repository.TransactionManager
	)
	if cfg.Database.URL != "" {
		pool, err := pg.Connect(ctx, &cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres connect failed")
		}
		defer pool.Close()
		go pg.ReportPoolStats(ctx, pool, 15*time.Second)
		userRepo = pg.NewUserRepo(pool)
		txMgr = pg.NewTxManager(pool)
		log.Info().Msg("postgres connected")
	} else {
		userRepo = memory.NewUserRepo()
		txMgr = memory.NewTxManager()
		log.Warn().Msg("DATABASE_URL not set, users live in memory and reset on deploy")
	}

	// ---- Redis (optional) ----
	var (
		rateLimiter *red.RateLimiter
		states      repository.DialogStateRepository
		sessions    repository.SessionStore
		dayCache    repository.ScheduleCache
		locker      scheduler.Locker
	)
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connect failed")
		}
		defer redisClient.Close()
		rateLimiter = red.NewRateLimiter(redisClient)
		states = red.NewDialogStateRepo(redisClient, cfg.Redis.StateTTL)
		dayCache = red.NewScheduleCache(redisClient, cfg.Schedule.CacheTTL)
		locker = red.NewLocker(redisClient)
		if key := cfg.Security.EncryptionKey; key != "" {
			enc, err := security.NewEncryptionService(key)
			if err != nil {
				log.Fatal().Err(err).Msg("session encryption key rejected")
			}
			sessions = red.NewSessionStore(redisClient, enc)
		}
		log.Info().Msg("redis connected")
	} else {
		states = memory.NewDialogStateRepo(cfg.Redis.StateTTL)
		log.Warn().Msg("REDIS_URL not set, dialog state in memory, rate limiting disabled")
	}
	if sessions == nil {
		sessions = memory.NewSessionStore()
	}

	// ---- Schedule source ----
	source, err := pickSource(cfg, sessions, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("schedule source setup failed")
	}
	if dayCache != nil {
		source = schedule.NewCachedSource(source, dayCache, logger)
	}
	log.Info().Str("source", source.Name()).Msg("schedule source selected")

	// ---- Use cases ----
	scheduleUC := usecase.NewScheduleUseCase(source, logger)
	userUC := usecase.NewUserUseCase(userRepo, txMgr, logger)

	// ---- Facade ----
	facade := application.NewBotFacade(scheduleUC, userUC, states, logger)

	// ---- Telegram ----
	botAdapter, err := tele.NewRealTelegramBotAdapter(&cfg.Bot, facade, rateLimiter, logger)
	if err != nil {
		log.Fatal().Err(err).Str("token", logging.RedactToken(cfg.Bot.Token)).Msg("telegram auth failed")
	}
	botAdapter.StartProcessor(ctx)

	env := model.EnvReport{
		TokenPresent:  cfg.Bot.Token != "",
		RenderAppName: os.Getenv("RENDER_APP_NAME") != "",
		Schedule:      source.Name(),
	}
	statusUC := usecase.NewStatusUseCase(botAdapter, env, logger)

	pool := worker.NewPool(4, logger)
	pool.Start(ctx)
	broadcastUC := usecase.NewBroadcastUseCase(userRepo, botAdapter, pool, logger)

	// ---- Web server ----
	var auth *web.AuthManager
	if cfg.Admin.Key != "" {
		auth = web.NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, cfg.Admin.SessionTTL)
	}
	srv := web.NewServer(cfg, botAdapter, statusUC, userUC, scheduleUC, broadcastUC, auth, logger)
	serverErr := make(chan error, 1)
	go func() { serverErr <- srv.Start() }()

	// ---- Update delivery: webhook or polling ----
	if cfg.Bot.Mode == "polling" {
		if err := botAdapter.StartPolling(ctx); err != nil {
			log.Fatal().Err(err).Msg("polling start failed")
		}
	} else {
		registerWebhook(ctx, cfg, botAdapter, statusUC, &log)
	}

	// ---- Cache warm loop ----
	var refresher *scheduler.RefreshWorker
	if cfg.Schedule.RefreshInterval > 0 {
		refresher = scheduler.NewRefreshWorker(cfg.Schedule.RefreshInterval, scheduleUC, locker, logger)
		refresher.Start(ctx)
	}

	statusUC.MarkRunning()
	log.Info().
		Str("version", version).
		Str("mode", cfg.Bot.Mode).
		Int("port", cfg.Bot.Port).
		Msg("bot is up")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
		}
	}

	// Stop taking updates first, then drain what is queued.
	statusUC.MarkStopped()
	if refresher != nil {
		refresher.Stop()
	}
	if cfg.Bot.Mode == "polling" {
		botAdapter.StopPolling()
	}
	botAdapter.Stop()
	pool.Stop()

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown incomplete")
	}
	log.Info().Msg("bye")
}

// pickSource resolves the timetable backend. An explicit schedule.source
// wins; auto takes the richest thing that is actually configured.
func pickSource(cfg *config.Config, sessions repository.SessionStore, logger *zerolog.Logger) (adapter.ScheduleSource, error) {
	portal := &cfg.Schedule.Portal
	hasPortal := portal.Login != "" && portal.Password != ""
	hasStatic := cfg.Schedule.StaticJSON != "" || cfg.Schedule.StaticFile != ""

	switch {
	case cfg.Schedule.Source == "portal" || (cfg.Schedule.Source == "auto" && hasPortal):
		return schedule.NewPortalSource(portal, sessions, logger)
	case cfg.Schedule.Source == "static" || (cfg.Schedule.Source == "auto" && hasStatic):
		return schedule.NewStaticSource(&cfg.Schedule)
	default:
		logger.Warn().Msg("no schedule configured, serving empty days")
		return schedule.NewEmptySource(), nil
	}
}

// registerWebhook binds the public URL on Telegram's side. Failure does not
// abort the boot: the ops endpoints keep serving and /status shows
// webhook_set=false until a later deploy fixes the URL.
func registerWebhook(ctx context.Context, cfg *config.Config, bot *tele.RealTelegramBotAdapter, statusUC usecase.StatusUseCase, log *zerolog.Logger) {
	url := cfg.Bot.WebhookURL()
	if url == "" {
		log.Warn().Msg("no public URL configured, webhook not registered")
		return
	}
	if err := bot.SetWebhook(ctx, url, cfg.Bot.WebhookSecret); err != nil {
		log.Error().Err(err).Str("url", url).Msg("webhook registration failed")
		return
	}
	if info, err := bot.WebhookInfo(ctx); err != nil {
		log.Warn().Err(err).Msg("webhook verification failed")
	} else if info.URL != url {
		log.Warn().Str("want", url).Str("got", info.URL).Msg("telegram reports a different webhook url")
	}
	statusUC.MarkWebhook(true)
	log.Info().Str("url", url).Msg("webhook bound")
}
