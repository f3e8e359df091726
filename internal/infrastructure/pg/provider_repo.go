package pg

import (
	"context"

	"billing-service/internal/domain"

	"go.uber.org/zap"
)

type ProviderRepo struct{ db *DB }

func NewProviderRepo(db *DB) *ProviderRepo { return &ProviderRepo{db: db} }

func (r *ProviderRepo) ListActiveSupporting(ctx context.Context, companyID int64, code string) ([]domain.ExchangeRateProvider, error) {
	const q = `
        SELECT id, company_id, key, driver, currencies, COALESCE(driver_config, '{}'::jsonb), active
        FROM exchange_rate_providers
        WHERE company_id=$1 AND active AND currencies @> to_jsonb($2::text)
        ORDER BY id ASC`
	log := opLog("provider", "ListActiveSupporting", q, zap.Int64("company_id", companyID), zap.String("code", code))
	log.Debug("sql.query_start")
	rows, err := r.db.Pool.Query(ctx, q, companyID, code)
	if err != nil {
		log.Error("sql.query_failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()
	var out []domain.ExchangeRateProvider
	for rows.Next() {
		var p domain.ExchangeRateProvider
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.Key, &p.Driver, &p.Currencies, &p.DriverConfig, &p.Active); err != nil {
			log.Error("sql.scan_failed", zap.Error(err))
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	log.Debug("sql.query_success", zap.Int("rows", len(out)))
	return out, nil
}
