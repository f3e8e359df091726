package pg

import (
	"context"
	"errors"
	"fmt"

	"billing-service/internal/application"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type RateLogRepo struct{ db *DB }

func NewRateLogRepo(db *DB) *RateLogRepo { return &RateLogRepo{db: db} }

// LatestRate never inverts: a row for (currency, base) does not answer
// (base, currency).
func (r *RateLogRepo) LatestRate(ctx context.Context, baseID, currencyID int64) (decimal.Decimal, error) {
	const q = `
        SELECT exchange_rate::text
        FROM exchange_rate_logs
        WHERE base_currency_id=$1 AND currency_id=$2
        ORDER BY created_at DESC, id DESC
        LIMIT 1`
	log := opLog("rate_log", "LatestRate", q, zap.Int64("base_currency_id", baseID), zap.Int64("currency_id", currencyID))
	log.Debug("sql.query_start")
	var raw string
	err := r.db.Pool.QueryRow(ctx, q, baseID, currencyID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		log.Info("sql.query_no_rows")
		return decimal.Decimal{}, application.ErrNotFound
	}
	if err != nil {
		log.Error("sql.query_failed", zap.Error(err))
		return decimal.Decimal{}, err
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("exchange_rate %q: %w", raw, err)
	}
	return d, nil
}
