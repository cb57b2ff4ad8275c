// @title Habit-tracker API
// @description API for tracking per-day habit statuses
// @BasePath /api/v1
// @schemes http
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/limbo/habitrack/internal/api"
	"github.com/limbo/habitrack/internal/recommendation"
	"github.com/limbo/habitrack/internal/repository"
	"github.com/limbo/habitrack/internal/rollover"
	"github.com/limbo/habitrack/internal/service"
	"github.com/limbo/habitrack/pkg/cleanup"
	"github.com/limbo/habitrack/pkg/config"
	"github.com/limbo/habitrack/pkg/daykey"
	jwtservice "github.com/limbo/habitrack/pkg/jwt_service"
	"golang.org/x/sync/errgroup"
)

func init() {
	service.InitValidator()
}

func setupLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}

func main() {
	cfg := config.New()
	setupLogger(cfg.GetStringOr("LOG_LEVEL", "info"))
	defer cleanup.CleanUp()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		usersRepo   repository.UsersRepositoryI
		habitsRepo  repository.HabitsRepositoryI
		checkpoints repository.RolloverCheckpointRepositoryI
	)
	switch driver := cfg.GetStringOr("STORAGE_DRIVER", "postgres"); driver {
	case "memory":
		storage := repository.NewMemoryStorage()
		usersRepo, habitsRepo, checkpoints = storage, storage.Habits(), storage
		slog.Warn("using in-memory storage, data is lost on exit")
	case "postgres":
		pool, err := repository.NewPool(ctx, &repository.PGCfg{
			Address:  cfg.GetString("POSTGRES_DB_ADDRESS"),
			Username: cfg.GetString("POSTGRES_USER"),
			Password: cfg.GetString("POSTGRES_PASSWORD"),
			DB:       cfg.GetString("POSTGRES_DB"),
		})
		if err != nil {
			log.Fatal("connecting to postgres error: ", err)
		}
		if err = repository.Migrate(ctx, pool); err != nil {
			cleanup.CleanUp()
			log.Fatal("migration error: ", err)
		}
		usersRepo, habitsRepo = repository.NewUsersRepo(pool), repository.NewHabitsRepo(pool)
		checkpoints = repository.NewRolloverCheckpointRepo(pool)
	default:
		log.Fatal("unknown storage driver: ", driver)
	}

	clock := daykey.SystemClock{}
	habitsService := service.NewHabitsService(habitsRepo, clock)
	recommender := recommendation.NewClient(recommendation.Config{
		URL:     cfg.GetString("RECOMMENDATION_URL"),
		Timeout: cfg.GetDuration("RECOMMENDATION_TIMEOUT", recommendation.DefaultTimeout),
	})
	serv := api.New(&api.ServicesList{
		UserService:           service.NewUserService(usersRepo),
		HabitsService:         habitsService,
		RecommendationService: service.NewRecommendationService(usersRepo, habitsRepo, recommender),
		JwtService:            jwtservice.New(cfg.GetString("JWT_SECRET")),
	})
	job := rollover.New(habitsRepo, checkpoints, clock, slog.Default(), rollover.Config{
		Interval: cfg.GetDuration("ROLLOVER_POLL_INTERVAL", rollover.DefaultInterval),
		Workers:  cfg.GetInt("ROLLOVER_WORKERS", rollover.DefaultWorkers),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return serv.Run(gctx, cfg.GetStringOr("API_ADDRESS", ":8080"))
	})
	g.Go(func() error {
		return job.Run(gctx)
	})
	if err := g.Wait(); err != nil {
		slog.Error("server error", slog.String("error", err.Error()))
	}
}
