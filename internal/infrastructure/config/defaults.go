package config

import "time"

const (
	DefaultHTTPPort        = "8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultRequestTimeout  = 3 * time.Second
	DefaultRateLimitRPS    = 20
	DefaultRateLimitBurst  = 40
	DefaultPGMaxConns      = 5
	DefaultPGMinConns      = 1
	DefaultUpdateServerURL = "https://craterapp.com"
	DefaultReleaseDir      = "Crater"
	DefaultUpdateLockTTL   = 10 * time.Minute

	// The release check is slow on the server side.
	DefaultReleaseCheckTimeout = 100 * time.Second
	UpdateFinishedChannel      = "billing:update-finished"
	UpdateLockKey              = "billing:update-lock"
)
