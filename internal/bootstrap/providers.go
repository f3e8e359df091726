package bootstrap

import (
	"context"
	"net/http"

	"billing-service/internal/application"
	"billing-service/internal/config"
	infraconfig "billing-service/internal/infrastructure/config"
	"billing-service/internal/infrastructure/events"
	"billing-service/internal/infrastructure/fsx"
	"billing-service/internal/infrastructure/host"
	"billing-service/internal/infrastructure/metrics"
	"billing-service/internal/infrastructure/pg"
	"billing-service/internal/infrastructure/provider"
	redisstore "billing-service/internal/infrastructure/redis"
	"billing-service/internal/infrastructure/release"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// FakeDriver is the driver name served by the fixed-rate fake.
const FakeDriver = "fake"

type Repos struct {
	Settings   *pg.SettingsRepo
	Currencies *pg.CurrencyRepo
	Providers  *pg.ProviderRepo
	RateLogs   *pg.RateLogRepo
}

func ProvideDB(ctx context.Context, log *zap.Logger, cfg config.Config) (*pg.DB, func(), error) {
	if cfg.DatabaseURL == "" {
		return nil, func() {}, ErrMissingDBURL
	}
	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, func() {}, err
	}
	if err := pg.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, func() {}, err
	}
	cleanup := func() {
		log.Info("closing pg")
		db.Close()
	}
	return db, cleanup, nil
}

func ProvideRepos(db *pg.DB) Repos {
	return Repos{
		Settings:   pg.NewSettingsRepo(db),
		Currencies: pg.NewCurrencyRepo(db),
		Providers:  pg.NewProviderRepo(db),
		RateLogs:   pg.NewRateLogRepo(db),
	}
}

// ProvideRedisClient returns nil when no feature is configured to use redis.
func ProvideRedisClient(cfg config.Config) (*redis.Client, func()) {
	if cfg.UpdateLockBackend != "redis" {
		return nil, func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return client, func() { _ = client.Close() }
}

func ProvideUpdateLock(client *redis.Client, cfg config.Config) application.UpdateLock {
	if client == nil {
		return application.NoopLock{}
	}
	return redisstore.NewUpdateLock(client, infraconfig.UpdateLockKey, cfg.UpdateLockTTL)
}

// ProvideEventSink always logs the finished update and also publishes it when
// redis is available.
func ProvideEventSink(client *redis.Client, log *zap.Logger) application.EventSink {
	sinks := events.Multi{events.LogSink{Log: log}}
	if client != nil {
		sinks = append(sinks, redisstore.NewPublisher(client, infraconfig.UpdateFinishedChannel))
	}
	return sinks
}

func ProvideRateDriver(cfg config.Config) *provider.Registry {
	var opts []provider.Option
	if cfg.FakeProviderRate > 0 {
		opts = append(opts, provider.WithDriver(FakeDriver, provider.NewFake(cfg.FakeProviderRate)))
	}
	return provider.NewRegistry(&http.Client{Timeout: cfg.RequestTimeout}, opts...)
}

func ProvideExchangeRateService(r Repos, driver application.RateDriver, m *metrics.Metrics, log *zap.Logger) *application.ExchangeRateService {
	return application.NewExchangeRateService(r.Settings, r.Currencies, r.Providers, r.RateLogs, driver,
		application.WithResolverLogger(log),
		application.WithOutcomeObserver(m.ResolverOutcome),
	)
}

func ProvideReleaseClient(cfg config.Config) *release.Client {
	return release.New(cfg.UpdateServerURL, cfg.IsDev(), infraconfig.DefaultReleaseCheckTimeout, &http.Client{})
}

func ProvideUpdater(cfg config.Config, db *pg.DB, r Repos, rc application.ReleaseClient, sink application.EventSink, log *zap.Logger) *application.Updater {
	return application.NewUpdater(
		application.UpdaterConfig{
			StoragePath: cfg.StoragePath,
			InstallRoot: cfg.InstallRoot,
			ReleaseDir:  cfg.ReleaseDirName,
		},
		r.Settings,
		rc,
		host.NewPlatform(cfg.PlatformExtensions, cfg.PlatformRuntimeVersion),
		fsx.OS{},
		fsx.ZipExtractor{},
		pg.NewSchemaMigrator(db, cfg.InstallRoot),
		sink,
		application.WithUpdaterLogger(log),
	)
}
