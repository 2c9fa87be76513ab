package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/httpfs"
	"github.com/jmoiron/sqlx"
)

//go:embed migrations
var migrations embed.FS

// Migrate leva o schema do banco até a última migration embutida.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if err := StatusCheck(ctx, db); err != nil {
		return fmt.Errorf("db status check: %w", err)
	}

	dir := "migrations/" + db.DriverName()

	source, err := httpfs.New(http.FS(migrations), dir)
	if err != nil {
		return fmt.Errorf("invalid source instance: %w", err)
	}

	var (
		target  migratedb.Driver
		release func()
	)
	switch db.DriverName() {
	case DriverSQLite:
		// o Close do driver sqlite fecharia o *sql.DB compartilhado
		target, err = sqlite.WithInstance(db.DB, &sqlite.Config{})
		release = func() { _ = source.Close() }
	default:
		// conexão própria, devolvida ao pool no fim
		var conn *sql.Conn
		conn, err = db.Conn(ctx)
		if err != nil {
			_ = source.Close()
			return fmt.Errorf("acquiring migration conn: %w", err)
		}
		var pg *postgres.Postgres
		pg, err = postgres.WithConnection(ctx, conn, &postgres.Config{})
		if err != nil {
			_ = conn.Close()
			break
		}
		target = pg
		release = func() {
			_ = source.Close()
			_ = pg.Close()
		}
	}
	if err != nil {
		_ = source.Close()
		return fmt.Errorf("invalid target %s instance: %w", db.DriverName(), err)
	}
	defer release()

	m, err := migrate.NewWithInstance("httpfs", source, db.DriverName(), target)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
