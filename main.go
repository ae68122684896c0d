package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/Brawl345/prayerbot/bot"
	"github.com/Brawl345/prayerbot/config"
	"github.com/Brawl345/prayerbot/logger"
	"github.com/Brawl345/prayerbot/metrics"
	"github.com/Brawl345/prayerbot/model"
	"github.com/Brawl345/prayerbot/model/file"
	"github.com/Brawl345/prayerbot/model/redis"
	"github.com/Brawl345/prayerbot/model/sql"
	"github.com/Brawl345/prayerbot/plugin"
	"github.com/Brawl345/prayerbot/plugin/prayertimes"
	"github.com/Brawl345/prayerbot/status"
	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	_ "github.com/joho/godotenv/autoload"
)

var log = logger.New("main")

func readVersionInfo() {
	var (
		Revision   = "unknown"
		LastCommit time.Time
	)
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, kv := range info.Settings {
		switch kv.Key {
		case "vcs.revision":
			Revision = kv.Value
		case "vcs.time":
			LastCommit, _ = time.Parse(time.RFC3339, kv.Value)
		}
	}
	log.Info().Msgf("Prayerbot-%s, %v", Revision, LastCommit)
}

func openStore(ctx context.Context, cfg *config.Config) (model.PrayerStore, error) {
	switch cfg.StorageDriver {
	case config.StorageMySQL:
		db, err := sql.New(cfg.MySQL)
		if err != nil {
			return nil, err
		}
		return sql.NewPrayerStore(db), nil
	case config.StorageRedis:
		store, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StorageFile:
		store, err := file.New(cfg.StoragePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func main() {
	readVersionInfo()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("Failed to open storage")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Err(err).Msg("Failed to close storage")
		}
	}()
	log.Info().Str("driver", cfg.StorageDriver).Msg("Storage ready")

	b, err := gotgbot.NewBot(cfg.BotToken, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}
	log.Info().Msgf("Logged in as @%s (%d)", b.Username, b.Id)

	metrics.MustRegister()

	fetcher := prayertimes.NewAladhanClient(cfg.Aladhan)
	service := prayertimes.NewService(store, fetcher)

	plugins := []plugin.Plugin{
		prayertimes.New(service, cfg.Reminder.Lead),
	}

	for i, plg := range plugins {
		log.Info().Msgf("Registering plugin (%d/%d): %s", i+1, len(plugins), plg.Name())
	}

	if err := bot.RegisterCommands(b, plugins); err != nil {
		log.Err(err).Msg("Failed to register commands")
	}

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Processor: bot.NewProcessor(plugins, cfg.PrintMessages),
		Error: func(b *gotgbot.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			log.Err(err).Msg("Error while handling update")
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	updater := ext.NewUpdater(dispatcher, nil)

	var statusServer *status.Server
	if cfg.StatusAddr != "" {
		statusServer = status.New(cfg.StatusAddr, status.PingFunc(func(ctx context.Context) error {
			_, err := store.All(ctx)
			return err
		}))
		statusServer.Start()
	}

	reminder := prayertimes.NewReminder(store, fetcher, b, cfg.Reminder)
	reminderDone := make(chan struct{})
	go func() {
		defer close(reminderDone)
		reminder.Run(ctx)
	}()

	err = updater.StartPolling(b, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &gotgbot.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &gotgbot.RequestOpts{
				Timeout: 10 * time.Second,
			},
			AllowedUpdates: []string{"message", "edited_message"},
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start polling")
	}
	log.Info().Msg("Polling for updates")

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down")
		if err := updater.Stop(); err != nil {
			log.Err(err).Msg("Failed to stop updater")
		}
	}()

	updater.Idle()
	stop()
	<-reminderDone

	if statusServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := statusServer.Shutdown(shutdownCtx); err != nil {
			log.Err(err).Msg("Failed to shut down status server")
		}
	}
}
