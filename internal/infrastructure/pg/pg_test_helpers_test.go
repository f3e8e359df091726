package pg_test

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"billing-service/internal/domain"
	"billing-service/internal/infrastructure/pg"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func withPostgres(t *testing.T) (*pg.DB, func()) {
	t.Helper()
	if os.Getenv("TESTCONTAINERS") == "" {
		t.Skip("set TESTCONTAINERS=1 to run containerized PG tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	container, err := postgres.RunContainer(ctx,
		postgres.WithDatabase("billing"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
	)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := pg.Connect(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, pg.RunMigrations(ctx, db))

	teardown := func() {
		db.Close()
		_ = container.Terminate(context.Background())
	}
	return db, teardown
}

func seedCompany(t *testing.T, db *pg.DB, companyID, baseCurrencyID int64) {
	t.Helper()
	_, err := db.Pool.Exec(context.Background(),
		`INSERT INTO company_settings(company_id, option, value) VALUES ($1, 'currency', $2)`,
		companyID, strconv.FormatInt(baseCurrencyID, 10))
	require.NoError(t, err)
}

// insertProvider stores a provider the way the provider settings screen
// would and returns its id.
func insertProvider(t *testing.T, db *pg.DB, p domain.ExchangeRateProvider) int64 {
	t.Helper()
	if p.Currencies == nil {
		p.Currencies = []string{}
	}
	var id int64
	err := db.Pool.QueryRow(context.Background(), `
        INSERT INTO exchange_rate_providers(company_id, key, driver, currencies, driver_config, active)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id`,
		p.CompanyID, p.Key, p.Driver, p.Currencies, p.DriverConfig, p.Active).Scan(&id)
	require.NoError(t, err)
	return id
}

// insertRateLog records a rate; a zero CreatedAt means now.
func insertRateLog(t *testing.T, db *pg.DB, l domain.ExchangeRateLog) {
	t.Helper()
	var createdAt any
	if !l.CreatedAt.IsZero() {
		createdAt = l.CreatedAt
	}
	_, err := db.Pool.Exec(context.Background(), `
        INSERT INTO exchange_rate_logs(company_id, base_currency_id, currency_id, exchange_rate, created_at)
        VALUES ($1, $2, $3, $4::numeric, COALESCE($5, NOW()))`,
		l.CompanyID, l.BaseCurrencyID, l.CurrencyID, l.ExchangeRate.String(), createdAt)
	require.NoError(t, err)
}
