package pg

import (
	"context"
	"errors"

	"billing-service/internal/application"
	"billing-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type CurrencyRepo struct{ db *DB }

func NewCurrencyRepo(db *DB) *CurrencyRepo { return &CurrencyRepo{db: db} }

const currencyCols = `id, name, code, symbol, precision, thousand_separator, decimal_separator, swap_currency_symbol`

func (r *CurrencyRepo) GetByID(ctx context.Context, id int64) (domain.Currency, error) {
	const q = `SELECT ` + currencyCols + ` FROM currencies WHERE id=$1`
	log := opLog("currency", "GetByID", q, zap.Int64("id", id))
	log.Debug("sql.query_start")
	var c domain.Currency
	err := r.db.Pool.QueryRow(ctx, q, id).Scan(
		&c.ID, &c.Name, &c.Code, &c.Symbol, &c.Precision,
		&c.ThousandSeparator, &c.DecimalSeparator, &c.SwapCurrencySymbol,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		log.Info("sql.query_no_rows")
		return domain.Currency{}, application.ErrNotFound
	}
	if err != nil {
		log.Error("sql.query_failed", zap.Error(err))
		return domain.Currency{}, err
	}
	return c, nil
}
