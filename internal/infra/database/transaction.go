package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fsrviagens/leads-api/internal/entity"
)

const defaultTxAttempts = 3

// LeadStoreTx abre uma transação serializável por chamada. Falhas de
// serialização do Postgres repetem a função inteira.
type LeadStoreTx struct {
	DB          *sqlx.DB
	MaxAttempts int
}

func NewLeadStoreTx(db *sqlx.DB) *LeadStoreTx {
	return &LeadStoreTx{DB: db, MaxAttempts: defaultTxAttempts}
}

func (s *LeadStoreTx) RunInTx(ctx context.Context, fn func(repo entity.LeadRepositoryInterface) error) error {
	attempts := s.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		err = s.runOnce(ctx, fn)
		if err == nil || !isSerializationFailure(err) {
			return err
		}
	}
	return fmt.Errorf("transaction aborted after %d attempts: %w", attempts, err)
}

func (s *LeadStoreTx) runOnce(ctx context.Context, fn func(repo entity.LeadRepositoryInterface) error) error {
	opts := &sql.TxOptions{}
	if s.DB.DriverName() == DriverPostgres {
		opts.Isolation = sql.LevelSerializable
	}

	tx, err := s.DB.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(NewLeadRepository(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return entity.ErrEmailAlreadyExists
		}
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
