package application

import (
	"context"
	"io"

	"billing-service/internal/domain"

	"github.com/shopspring/decimal"
)

// SettingsRepo reads company-scoped and global key/value settings. Missing
// keys return ErrNotFound.
type SettingsRepo interface {
	GetCompanySetting(ctx context.Context, companyID int64, key string) (string, error)
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

type CurrencyRepo interface {
	GetByID(ctx context.Context, id int64) (domain.Currency, error)
}

type ProviderRepo interface {
	// ListActiveSupporting returns active providers whose currency list
	// contains code, ordered by id ascending.
	ListActiveSupporting(ctx context.Context, companyID int64, code string) ([]domain.ExchangeRateProvider, error)
}

type RateLogRepo interface {
	// LatestRate returns the newest rate for the exact (baseID, currencyID)
	// pair or ErrNotFound.
	LatestRate(ctx context.Context, baseID, currencyID int64) (decimal.Decimal, error)
}

// RateDriver calls the external API behind a provider.
type RateDriver interface {
	ExchangeRate(ctx context.Context, p domain.ExchangeRateProvider, from, to string) (domain.RateResult, error)
	// SupportedCurrencies validates the provider key and lists the codes it
	// can quote. Failures come back as 400 payloads.
	SupportedCurrencies(ctx context.Context, p domain.ExchangeRateProvider) domain.RateResult
}

type ReleaseClient interface {
	CheckLatest(ctx context.Context, installed string) (domain.ReleaseCheck, error)
	Download(ctx context.Context, version string, fromCommand bool, dst io.Writer) error
}

// Platform describes the host the installation runs on.
type Platform interface {
	HasExtension(name string) bool
	RuntimeVersion() string
}

type FileSystem interface {
	Exists(path string) bool
	MkdirAll(path string) error
	Create(path string) (io.WriteCloser, error)
	// Remove deletes a single file; a missing file is not an error.
	Remove(path string) error
	RemoveAll(path string) error
	CopyDir(src, dst string) error
}

type ArchiveExtractor interface {
	Extract(ctx context.Context, archive, dest string) error
}

type SchemaMigrator interface {
	Migrate(ctx context.Context) error
}

type EventSink interface {
	UpdateFinished(ctx context.Context, ev domain.UpdateFinished) error
}

// Console is the operator-facing side of the update command.
type Console interface {
	Info(msg string)
	Error(msg string)
	Line()
	Confirm(question string) bool
}
