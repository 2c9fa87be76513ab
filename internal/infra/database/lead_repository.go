package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/fsrviagens/leads-api/internal/entity"
)

// lib/pq errorCodeNames
// https://github.com/lib/pq/blob/master/error.go#L178
const (
	uniqueViolation      = "23505"
	serializationFailure = "40001"
)

const leadColumns = `id, nome, email, whatsapp, preferencia, destino, data_ida, data_volta, origem, created_at`

type LeadRepository struct {
	DB sqlx.ExtContext
}

// NewLeadRepository aceita tanto *sqlx.DB quanto *sqlx.Tx.
func NewLeadRepository(db sqlx.ExtContext) *LeadRepository {
	return &LeadRepository{DB: db}
}

func (r *LeadRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := r.DB.Rebind(`SELECT EXISTS (SELECT 1 FROM clientes WHERE email = ?)`)

	var exists bool
	if err := r.DB.QueryRowxContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking email: %w", err)
	}
	return exists, nil
}

func (r *LeadRepository) CountByEmail(ctx context.Context, email string) (int, error) {
	query := r.DB.Rebind(`SELECT COUNT(*) FROM clientes WHERE email = ?`)

	var n int
	if err := sqlx.GetContext(ctx, r.DB, &n, query, email); err != nil {
		return 0, fmt.Errorf("counting email: %w", err)
	}
	return n, nil
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	query := `
		INSERT INTO clientes (` + leadColumns + `)
		VALUES (:id, :nome, :email, :whatsapp, :preferencia, :destino, :data_ida, :data_volta, :origem, :created_at)
	`

	if _, err := sqlx.NamedExecContext(ctx, r.DB, query, lead); err != nil {
		if isUniqueViolation(err) {
			return entity.ErrEmailAlreadyExists
		}
		return fmt.Errorf("inserting lead: %w", err)
	}
	return nil
}

func (r *LeadRepository) ListRecent(ctx context.Context, limit int) ([]*entity.Lead, error) {
	query := r.DB.Rebind(`SELECT ` + leadColumns + ` FROM clientes ORDER BY created_at DESC LIMIT ?`)

	leads := []*entity.Lead{}
	if err := sqlx.SelectContext(ctx, r.DB, &leads, query, limit); err != nil {
		return nil, fmt.Errorf("listing leads: %w", err)
	}
	return leads, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			(code == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE"))
	}
	return false
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == serializationFailure
}
