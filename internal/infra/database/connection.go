package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.nhat.io/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config são as propriedades necessárias para abrir o banco.
type Config struct {
	Driver       string
	URL          string
	User         string
	Password     string
	Host         string
	Name         string
	DisableTLS   bool
	MaxIdleConns int
	MaxOpenConns int
}

// NormalizeURL aceita o formato postgresql:// que alguns provedores exportam.
func NormalizeURL(raw string) string {
	if strings.HasPrefix(raw, "postgresql://") {
		return "postgres://" + strings.TrimPrefix(raw, "postgresql://")
	}
	return raw
}

// DSN monta a string de conexão: usa URL quando vier pronta, senão compõe a
// partir de usuário, senha, host e nome do banco.
func (cfg Config) DSN() string {
	if cfg.Driver == DriverSQLite {
		if cfg.URL != "" {
			return cfg.URL
		}
		return "file:" + cfg.Name + ".db?_pragma=busy_timeout(5000)"
	}

	if cfg.URL != "" {
		return NormalizeURL(cfg.URL)
	}

	sslMode := "require"
	if cfg.DisableTLS {
		sslMode = "disable"
	}

	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host,
		Path:     cfg.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Open abre a conexão, configura o pool e testa o Ping.
func Open(cfg Config) (*sqlx.DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverPostgres
	}
	cfg.Driver = driver

	system := semconv.DBSystemPostgreSQL
	if driver == DriverSQLite {
		system = semconv.DBSystemSqlite
	}

	driverName, err := otelsql.Register(driver,
		otelsql.AllowRoot(),
		otelsql.TraceQueryWithoutArgs(),
		otelsql.TraceRowsClose(),
		otelsql.TraceRowsAffected(),
		otelsql.WithDatabaseName(cfg.Name),
		otelsql.WithSystem(system),
	)
	if err != nil {
		return nil, fmt.Errorf("registering otelsql driver: %w", err)
	}

	db, err := sqlx.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, err
	}
	// o nome original define o estilo de placeholder do Rebind
	db = sqlx.NewDb(db.DB, driver)

	if driver == DriverSQLite {
		// SQLite aceita um escritor por vez; uma conexão só evita SQLITE_BUSY
		// e mantém vivo um banco em memória.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := otelsql.RecordStats(db.DB); err != nil {
		db.Close()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// StatusCheck retorna nil se conseguir falar com o banco.
func StatusCheck(ctx context.Context, db *sqlx.DB) error {
	const q = `SELECT 1`
	var tmp int
	return db.QueryRowContext(ctx, q).Scan(&tmp)
}
