package pg

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"billing-service/internal/infrastructure/logx"

	"github.com/golang-migrate/migrate/v4"
	pgdriver "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var embedded embed.FS

// RunMigrations applies the schema bundled with this binary.
func RunMigrations(ctx context.Context, db *DB) error {
	return migrateUp(ctx, db, embedded, "migrations")
}

// SchemaMigrator applies the migrations shipped inside an installed release,
// found under <root>/migrations. It is the MIGRATE step of a self-update.
type SchemaMigrator struct {
	db   *DB
	root string
}

func NewSchemaMigrator(db *DB, installRoot string) *SchemaMigrator {
	return &SchemaMigrator{db: db, root: installRoot}
}

func (m *SchemaMigrator) Migrate(ctx context.Context) error {
	fsys := os.DirFS(m.root)
	if _, err := fs.Stat(fsys, "migrations"); err != nil {
		return fmt.Errorf("release migrations: %w", err)
	}
	return migrateUp(ctx, m.db, fsys, "migrations")
}

func migrateUp(ctx context.Context, db *DB, fsys fs.FS, dir string) error {
	src, err := iofs.New(fsys, dir)
	if err != nil {
		return fmt.Errorf("migrate src: %w", err)
	}
	dsn := db.Pool.Config().ConnString()
	sqldb, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open sql db: %w", err)
	}
	defer sqldb.Close()
	// Retry ping; container might not accept connections immediately
	var pingErr error
	for i := 0; i < 30; i++ {
		pingErr = sqldb.PingContext(ctx)
		if pingErr == nil {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("ping db: %w", ctx.Err())
		case <-time.After(500 * time.Millisecond):
		}
	}
	if pingErr != nil {
		return fmt.Errorf("ping db: %w", pingErr)
	}
	driver, err := pgdriver.WithInstance(sqldb, &pgdriver.Config{})
	if err != nil {
		return fmt.Errorf("migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logx.L().Info("migrate.no_change")
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}
	v, dirty, _ := m.Version()
	logx.L().Info("migrate.applied", zap.Uint("version", v), zap.Bool("dirty", dirty))
	return nil
}
