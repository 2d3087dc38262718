package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"postura/internal/bootstrap/config"
	"postura/internal/bootstrap/database"
	"postura/internal/bootstrap/logging"
	cacheinfra "postura/internal/infrastructure/cache"
	"postura/internal/infrastructure/messaging"
	sqliterepo "postura/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "postura/internal/infrastructure/persistence/sqlite/uow"
	"postura/internal/ports"
	"postura/internal/usecase/execution"
	"postura/internal/usecase/registry"
	"postura/internal/usecase/review"
	"postura/internal/usecase/scheduler"
	"postura/internal/usecase/scoring"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(provideEventPublisher),
	fx.Provide(
		fx.Annotate(sqliterepo.NewCheckRepository, fx.As(new(ports.CheckRepository))),
		fx.Annotate(sqliterepo.NewControlRepository, fx.As(new(ports.ControlRepository))),
		fx.Annotate(sqliterepo.NewResultRepository, fx.As(new(ports.ResultRepository))),
		fx.Annotate(sqliterepo.NewReviewRepository, fx.As(new(ports.ReviewRepository))),
		fx.Annotate(sqliterepo.NewScoreRepository, fx.As(new(ports.ScoreRepository))),
		fx.Annotate(sqliteuow.NewUnitOfWork, fx.As(new(ports.UnitOfWork))),
		fx.Annotate(cacheinfra.NewSQLiteCache, fx.As(new(ports.Cache))),
	),
	fx.Provide(registry.NewService),
	fx.Provide(execution.NewService),
	fx.Provide(review.NewService),
	fx.Provide(scoring.NewService),
	fx.Provide(scheduler.NewService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideEventPublisher(lc fx.Lifecycle, cfg config.Config) (ports.EventPublisher, error) {
	if cfg.Events.Driver != "nats" {
		return messaging.NewMemoryPublisher(), nil
	}

	publisher, err := messaging.NewNATSPublisher(cfg.Events.URL)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			publisher.Close()
			return nil
		},
	})
	return publisher, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}
