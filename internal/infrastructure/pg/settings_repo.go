package pg

import (
	"context"
	"errors"

	"billing-service/internal/application"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type SettingsRepo struct{ db *DB }

func NewSettingsRepo(db *DB) *SettingsRepo { return &SettingsRepo{db: db} }

func (r *SettingsRepo) GetCompanySetting(ctx context.Context, companyID int64, key string) (string, error) {
	const q = `SELECT value FROM company_settings WHERE company_id=$1 AND option=$2`
	log := opLog("settings", "GetCompanySetting", q, zap.Int64("company_id", companyID), zap.String("option", key))
	return r.scalar(ctx, log, q, companyID, key)
}

func (r *SettingsRepo) GetSetting(ctx context.Context, key string) (string, error) {
	const q = `SELECT value FROM settings WHERE option=$1`
	log := opLog("settings", "GetSetting", q, zap.String("option", key))
	return r.scalar(ctx, log, q, key)
}

func (r *SettingsRepo) SetSetting(ctx context.Context, key, value string) error {
	const up = `
        INSERT INTO settings(option, value)
        VALUES ($1, $2)
        ON CONFLICT (option) DO UPDATE SET value=EXCLUDED.value`
	log := opLog("settings", "SetSetting", up, zap.String("option", key), zap.String("value", value))
	log.Info("sql.exec_start")
	tag, err := r.db.Pool.Exec(ctx, up, key, value)
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return err
	}
	log.Info("sql.exec_success", zap.Int64("rows_affected", tag.RowsAffected()))
	return nil
}

func (r *SettingsRepo) scalar(ctx context.Context, log *zap.Logger, q string, args ...any) (string, error) {
	log.Debug("sql.query_start")
	var v string
	err := r.db.Pool.QueryRow(ctx, q, args...).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		log.Info("sql.query_no_rows")
		return "", application.ErrNotFound
	}
	if err != nil {
		log.Error("sql.query_failed", zap.Error(err))
		return "", err
	}
	return v, nil
}
