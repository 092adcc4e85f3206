package main

import (
	"context"
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/campus-job-board/internal/api"
	"github.com/maxaizer/campus-job-board/internal/bot"
	"github.com/maxaizer/campus-job-board/internal/config"
	"github.com/maxaizer/campus-job-board/internal/logger"
	"github.com/maxaizer/campus-job-board/internal/metrics"
	"github.com/maxaizer/campus-job-board/internal/repositories"
	"github.com/maxaizer/campus-job-board/internal/services"
	log "github.com/sirupsen/logrus"
	"os/signal"
	"syscall"
)

type dataStore interface {
	services.Store
	Load(ctx context.Context) error
	Close() error
}

func openStore(ctx context.Context, cfg config.StorageConfig) dataStore {

	var store dataStore
	var err error

	switch cfg.Driver {
	case config.DriverSqlite:
		store, err = repositories.NewSqliteStore(cfg.ConnectionString)
	default:
		store, err = repositories.NewSnapshotStore(cfg.DataDir)
	}
	if err != nil {
		log.Fatalf("can't open %s store: %v", cfg.Driver, err)
	}

	if err = store.Load(ctx); err != nil {
		log.Fatalf("can't load %s store: %v", cfg.Driver, err)
	}
	log.Infof("%s store loaded", cfg.Driver)
	return store
}

func runModerationBot(ctx context.Context, cfg config.NotifierConfig, bus EventBus.Bus, store dataStore) *bot.Bot {

	if !cfg.Enabled() {
		log.Info("moderation bot disabled: telegram token or admin chat id is not set")
		return nil
	}

	tgbot, err := bot.NewBot(cfg.TelegramToken, cfg.AdminChatID, bus, store)
	if err != nil {
		log.Errorf("can't create moderation bot, continuing without it: %v", err)
		return nil
	}
	go tgbot.Run(ctx)
	return tgbot
}

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()

	logger.Setup(ctx, cfg.Logger)
	defer logger.Cleanup()

	metrics.Register()

	store := openStore(ctx, cfg.Storage)
	defer store.Close()

	bus := EventBus.New()

	if _, err := services.NewEventRecorder(bus); err != nil {
		log.Fatalf("can't create event recorder: %v", err)
	}

	tgbot := runModerationBot(ctx, cfg.Notifier, bus, store)

	if cfg.Backup.Enabled {
		scheduler, err := services.NewBackupScheduler(store, cfg.Backup.Schedule)
		if err != nil {
			log.Fatalf("can't create backup scheduler: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	board, err := services.NewJobBoard(store, services.NewMemorySessions(), bus)
	if err != nil {
		log.Fatalf("can't create job board: %v", err)
	}

	server, err := api.NewServer(board, cfg.Server)
	if err != nil {
		log.Fatalf("can't create http server: %v", err)
	}

	if err = server.Listen(ctx); err != nil {
		log.Errorf("http server stopped with error: %v", err)
	}

	log.Info("Shutting down services...")
	if tgbot != nil {
		tgbot.Stop()
	}
	log.Info("Services stopped.")
}
