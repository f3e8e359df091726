package bootstrap

import (
	"context"
	"errors"
	"net/http"

	"billing-service/internal/application"
	"billing-service/internal/config"
	httpserver "billing-service/internal/infrastructure/http"
	"billing-service/internal/infrastructure/logx"
	"billing-service/internal/infrastructure/metrics"
	"billing-service/internal/infrastructure/pg"
)

var ErrMissingDBURL = errors.New("DATABASE_URL is required")

// App holds the wired services shared by the API and the update command.
type App struct {
	Config  config.Config
	DB      *pg.DB
	Metrics *metrics.Metrics
	Rates   *application.ExchangeRateService
	Updater *application.Updater
	Lock    application.UpdateLock
}

// Build wires every dependency from cfg. The returned cleanup closes them in
// reverse order and is safe to call after a failed Build.
func Build(ctx context.Context, cfg config.Config) (*App, func(), error) {
	log := logx.L()
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	db, closeDB, err := ProvideDB(ctx, log, cfg)
	if err != nil {
		return nil, cleanup, err
	}
	cleanups = append(cleanups, closeDB)

	rdb, closeRedis := ProvideRedisClient(cfg)
	cleanups = append(cleanups, closeRedis)

	m := metrics.New()
	repos := ProvideRepos(db)
	app := &App{
		Config:  cfg,
		DB:      db,
		Metrics: m,
		Rates:   ProvideExchangeRateService(repos, ProvideRateDriver(cfg), m, log),
		Updater: ProvideUpdater(cfg, db, repos, ProvideReleaseClient(cfg), ProvideEventSink(rdb, log), log),
		Lock:    ProvideUpdateLock(rdb, cfg),
	}
	return app, cleanup, nil
}

// Handler builds the API router. Metrics middleware runs before the rate
// limiter so throttled requests are still counted.
func (a *App) Handler() http.Handler {
	srv := httpserver.NewServer(a.Rates, a.Updater)
	srv.SetReadyCheck(a.DB.Ping)
	srv.SetStepObserver(a.Metrics.UpdateStep)
	return httpserver.NewRouter(srv,
		httpserver.WithMiddleware(a.Metrics.Middleware),
		httpserver.WithRateLimit(a.Config.RateLimitRPS, a.Config.RateLimitBurst),
		httpserver.WithMetricsHandler(a.Metrics.Handler()),
	)
}

// UpdateCommand builds the console update run.
func (a *App) UpdateCommand(console application.Console, assumeYes bool) *application.UpdateCommand {
	return application.NewUpdateCommand(a.Updater, console,
		application.WithAssumeYes(assumeYes),
		application.WithUpdateLock(a.Lock),
		application.WithStepObserver(a.Metrics.UpdateStep),
		application.WithCommandLogger(logx.L()),
	)
}
