package pg_test

import (
	"context"
	"testing"
	"time"

	"billing-service/internal/application"
	"billing-service/internal/domain"
	"billing-service/internal/infrastructure/pg"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestSettingsRepo(t *testing.T) {
	db, teardown := withPostgres(t)
	defer teardown()
	ctx := context.Background()
	repo := pg.NewSettingsRepo(db)

	v, err := repo.GetSetting(ctx, "version")
	require.NoError(t, err)
	require.Equal(t, "1.0.0", v)

	require.NoError(t, repo.SetSetting(ctx, "version", "1.1.0"))
	v, err = repo.GetSetting(ctx, "version")
	require.NoError(t, err)
	require.Equal(t, "1.1.0", v)

	_, err = repo.GetCompanySetting(ctx, 1, "currency")
	require.ErrorIs(t, err, application.ErrNotFound)
	seedCompany(t, db, 1, 1)
	v, err = repo.GetCompanySetting(ctx, 1, "currency")
	require.NoError(t, err)
	require.Equal(t, "1", v)
}

func TestCurrencyRepo(t *testing.T) {
	db, teardown := withPostgres(t)
	defer teardown()
	ctx := context.Background()
	repo := pg.NewCurrencyRepo(db)

	var eurID int64
	require.NoError(t, db.Pool.QueryRow(ctx, `SELECT id FROM currencies WHERE code='EUR'`).Scan(&eurID))

	eur, err := repo.GetByID(ctx, eurID)
	require.NoError(t, err)
	require.Equal(t, "Euro", eur.Name)
	require.Equal(t, "EUR", eur.Code)

	_, err = repo.GetByID(ctx, 9999)
	require.ErrorIs(t, err, application.ErrNotFound)
}

func TestProviderRepo_ActiveSupportingOrderedByID(t *testing.T) {
	db, teardown := withPostgres(t)
	defer teardown()
	ctx := context.Background()
	repo := pg.NewProviderRepo(db)

	mk := func(company int64, currencies []string, active bool) int64 {
		return insertProvider(t, db, domain.ExchangeRateProvider{
			CompanyID:    company,
			Key:          "k",
			Driver:       domain.DriverCurrencyConverter,
			Currencies:   currencies,
			DriverConfig: map[string]string{"type": "FREE"},
			Active:       active,
		})
	}
	first := mk(1, []string{"EUR", "GBP"}, true)
	mk(1, []string{"EUR"}, false)
	mk(2, []string{"EUR"}, true)
	second := mk(1, []string{"EUR"}, true)
	mk(1, []string{"INR"}, true)

	got, err := repo.ListActiveSupporting(ctx, 1, "EUR")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, first, got[0].ID)
	require.Equal(t, second, got[1].ID)
	require.Equal(t, map[string]string{"type": "FREE"}, got[0].DriverConfig)
	require.Equal(t, []string{"EUR", "GBP"}, got[0].Currencies)

	got, err = repo.ListActiveSupporting(ctx, 1, "JPY")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestRateLogRepo_LatestExactPair(t *testing.T) {
	db, teardown := withPostgres(t)
	defer teardown()
	ctx := context.Background()
	repo := pg.NewRateLogRepo(db)
	now := time.Now().UTC()

	add := func(base, cur int64, rate string, at time.Time) {
		insertRateLog(t, db, domain.ExchangeRateLog{
			CompanyID: 1, BaseCurrencyID: base, CurrencyID: cur,
			ExchangeRate: decimal.RequireFromString(rate), CreatedAt: at,
		})
	}
	add(1, 2, "1.10", now.Add(-2*time.Hour))
	add(1, 2, "1.23", now.Add(-time.Hour))
	add(2, 1, "0.80", now)

	rate, err := repo.LatestRate(ctx, 1, 2)
	require.NoError(t, err)
	require.True(t, decimal.RequireFromString("1.23").Equal(rate))

	_, err = repo.LatestRate(ctx, 1, 3)
	require.ErrorIs(t, err, application.ErrNotFound)
}

func TestRateLogRepo_SameTimestampNewestIDWins(t *testing.T) {
	db, teardown := withPostgres(t)
	defer teardown()
	ctx := context.Background()
	repo := pg.NewRateLogRepo(db)
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, r := range []string{"1.5", "1.6"} {
		insertRateLog(t, db, domain.ExchangeRateLog{CompanyID: 1, BaseCurrencyID: 1, CurrencyID: 4, ExchangeRate: decimal.RequireFromString(r), CreatedAt: at})
	}
	rate, err := repo.LatestRate(ctx, 1, 4)
	require.NoError(t, err)
	require.Equal(t, "1.6", rate.String())
}
