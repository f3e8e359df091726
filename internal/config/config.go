package config

import (
	"strings"
	"time"

	infraconfig "billing-service/internal/infrastructure/config"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Common
	Env      string
	LogLevel string
	// API
	Port           string
	RequestTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	// FakeProviderRate, when positive, registers a "fake" driver answering
	// with this rate. For local setups without provider credentials.
	FakeProviderRate float64
	// Storage
	DatabaseURL string
	// Self-update
	UpdateServerURL string
	InstallRoot     string
	StoragePath     string
	ReleaseDirName  string
	// Platform reported to the release server's requirement check
	PlatformExtensions     []string
	PlatformRuntimeVersion string
	// Redis (update lock, update events)
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	UpdateLockBackend string
	UpdateLockTTL     time.Duration
}

// IsDev reports whether the release server should offer development builds.
func (c Config) IsDev() bool {
	return c.Env == "development" || c.Env == "local"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", infraconfig.DefaultHTTPPort)
	v.SetDefault("REQUEST_TIMEOUT_MS", infraconfig.DefaultRequestTimeout.Milliseconds())
	v.SetDefault("RATE_LIMIT_RPS", infraconfig.DefaultRateLimitRPS)
	v.SetDefault("RATE_LIMIT_BURST", infraconfig.DefaultRateLimitBurst)
	v.SetDefault("FAKE_PROVIDER_RATE", 0)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("UPDATE_SERVER_URL", infraconfig.DefaultUpdateServerURL)
	v.SetDefault("INSTALL_ROOT", ".")
	v.SetDefault("STORAGE_PATH", "storage")
	v.SetDefault("RELEASE_DIR_NAME", infraconfig.DefaultReleaseDir)
	v.SetDefault("PLATFORM_EXTENSIONS", "")
	v.SetDefault("PLATFORM_RUNTIME_VERSION", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("UPDATE_LOCK_BACKEND", "none")
	v.SetDefault("UPDATE_LOCK_TTL_MS", infraconfig.DefaultUpdateLockTTL.Milliseconds())
}

// Load reads .env (if present) and the environment, applying defaults.
func Load() Config {
	_ = godotenv.Load()
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Env:                    v.GetString("ENV"),
		LogLevel:               v.GetString("LOG_LEVEL"),
		Port:                   v.GetString("PORT"),
		RequestTimeout:         time.Duration(v.GetInt64("REQUEST_TIMEOUT_MS")) * time.Millisecond,
		RateLimitRPS:           v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:         v.GetInt("RATE_LIMIT_BURST"),
		FakeProviderRate:       v.GetFloat64("FAKE_PROVIDER_RATE"),
		DatabaseURL:            v.GetString("DATABASE_URL"),
		UpdateServerURL:        v.GetString("UPDATE_SERVER_URL"),
		InstallRoot:            v.GetString("INSTALL_ROOT"),
		StoragePath:            v.GetString("STORAGE_PATH"),
		ReleaseDirName:         v.GetString("RELEASE_DIR_NAME"),
		PlatformExtensions:     splitList(v.GetString("PLATFORM_EXTENSIONS")),
		PlatformRuntimeVersion: v.GetString("PLATFORM_RUNTIME_VERSION"),
		RedisAddr:              v.GetString("REDIS_ADDR"),
		RedisPassword:          v.GetString("REDIS_PASSWORD"),
		RedisDB:                v.GetInt("REDIS_DB"),
		UpdateLockBackend:      strings.ToLower(v.GetString("UPDATE_LOCK_BACKEND")),
		UpdateLockTTL:          time.Duration(v.GetInt64("UPDATE_LOCK_TTL_MS")) * time.Millisecond,
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
