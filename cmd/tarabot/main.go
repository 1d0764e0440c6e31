package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/tarabot/internal/bot"
	"github.com/iamwavecut/tarabot/internal/cli"
	"github.com/iamwavecut/tarabot/internal/config"
	"github.com/iamwavecut/tarabot/internal/db/sqlite"
	adminHandlers "github.com/iamwavecut/tarabot/internal/handlers/admin"
	chatHandlers "github.com/iamwavecut/tarabot/internal/handlers/chat"
	"github.com/iamwavecut/tarabot/internal/infra"
	"github.com/iamwavecut/tarabot/internal/ledger"
	"github.com/iamwavecut/tarabot/internal/lifecycle"
	"github.com/iamwavecut/tarabot/internal/moderation"
	"github.com/iamwavecut/tarabot/internal/notify"
	"github.com/iamwavecut/tarabot/internal/observability"
	"github.com/iamwavecut/tarabot/internal/policy/permissions"
)

const shutdownTimeout = 15 * time.Second

func main() {
	log.SetFormatter(&config.NbFormatter{})
	log.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		log.WithField("error", err.Error()).Fatal("cant load config")
	}
	log.SetLevel(log.Level(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithField("error", err.Error()).Error("exiting")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	client, err := sqlite.NewSQLiteClient(ctx, cfg.Storage.DotPath, cfg.Storage.DBName)
	if err != nil {
		return errors.WithMessage(err, "open database")
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.WithField("error", err.Error()).Warn("cant close database")
		}
	}()

	lists, err := config.LoadAllowLists(cfg.ACLFile)
	if err != nil {
		return err
	}
	if seeded, err := cli.SeedAllowLists(ctx, client, lists); err != nil {
		return errors.WithMessage(err, "seed allow-lists")
	} else if seeded > 0 {
		log.WithField("count", seeded).Info("allow-lists seeded")
	}

	botAPI, err := api.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		return errors.WithMessage(err, "cant initialize bot api")
	}
	if log.Level(cfg.LogLevel) == log.TraceLevel {
		botAPI.Debug = true
	}
	log.WithField("bot", botAPI.Self.UserName).Info("authorized")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)
	tracerProvider := observability.InitTracing()

	service := bot.NewService(botAPI, client)
	warnings := ledger.New(client)
	notifier := notify.NewTelegram(botAPI)
	engine := moderation.NewEngine(moderation.Dependencies{
		Groups:     client,
		Identities: client,
		Reviewers:  client,
		Ledger:     warnings,
		Notifier:   notifier,
	}, moderation.Config{
		NotifyTimeout:    cfg.Moderation.NotifyTimeout,
		MaxParallelSends: cfg.Moderation.MaxParallelSends,
	}, moderation.WithMetrics(metrics))

	resolver := permissions.NewResolver(cfg.SuperAdminID, client)
	admin := adminHandlers.NewAdmin(service, warnings, resolver, notifier, cfg.Admin.PendingTTL)
	moderator := chatHandlers.NewModerator(service, engine)

	bot.RegisterUpdateHandler("admin", admin)
	bot.RegisterUpdateHandler("moderator", moderator)
	poller := bot.NewPoller(botAPI, bot.NewUpdateProcessor(cfg.EnabledHandlers), botAPI.Buffer)

	runtime := lifecycle.NewRuntime()
	runtime.Register("metrics", observability.NewServer(cfg.MetricsAddr, registry, tracerProvider))
	runtime.Register("admin", admin)
	runtime.Register("poller", poller)

	if err := runtime.Start(ctx); err != nil {
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-poller.Errors():
		runErr = err
	case <-infra.WatchExecutable(ctx):
		log.Warn("executable file was modified, restarting")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := runtime.Stop(stopCtx); err != nil {
		log.WithField("error", err.Error()).Warn("unclean shutdown")
	}
	return runErr
}
