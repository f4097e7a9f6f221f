package main

import (
	"context"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/hamed0406/alerthub/internal/channel"
	"github.com/hamed0406/alerthub/internal/config"
	"github.com/hamed0406/alerthub/internal/directory"
	"github.com/hamed0406/alerthub/internal/domain"
	"github.com/hamed0406/alerthub/internal/engine"
	"github.com/hamed0406/alerthub/internal/httpapi"
	apimw "github.com/hamed0406/alerthub/internal/httpapi/middleware"
	"github.com/hamed0406/alerthub/internal/logging"
	"github.com/hamed0406/alerthub/internal/repo"
	"github.com/hamed0406/alerthub/internal/repo/memory"
	"github.com/hamed0406/alerthub/internal/repo/postgres"
	"github.com/hamed0406/alerthub/internal/scheduler"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	var (
		alerts     repo.AlertStore
		prefs      repo.PreferenceStore
		deliveries repo.DeliveryStore
		stats      repo.StatsStore
	)
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			log.Fatal(err)
		}
		defer pg.Close()
		alerts, prefs, deliveries, stats = pg, pg, pg, pg
		logger.Info("store_postgres")
	} else {
		mem := memory.New()
		alerts, prefs, deliveries, stats = mem, mem, mem, mem
		logger.Info("store_memory")
	}

	// Directory backend is an external collaborator; the built-in fixture
	// keeps dev and demo setups self-contained.
	dir := directory.DevFixture()

	channels := channel.Registry{
		domain.DeliveryInApp: channel.NewInApp(prefs, deliveries),
		domain.DeliveryEmail: &channel.Email{Log: logger},
		domain.DeliverySMS:   &channel.SMS{Log: logger},
	}

	eng := engine.New(logger, alerts, prefs, deliveries, stats, dir, channels, engine.Config{
		MaxConcurrentSends: cfg.MaxConcurrentSends,
		SendTimeout:        cfg.SendTimeout,
	})

	sweeper := scheduler.NewSweeper(logger, eng.ReminderSweep, cfg.SweepInterval)
	go sweeper.Run(ctx)

	api := httpapi.NewServer(logger, eng)
	keys := apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}
	router := api.Router(keys, cfg.AllowedOrigins, cfg.PublicRPM, cfg.PublicBurst, cfg.AdminRPM, cfg.AdminBurst)

	logger.Info("api_listen", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatal(err)
	}
}
