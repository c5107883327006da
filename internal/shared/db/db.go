package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

func ConnectPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// BeginLocked abre uma transação com lock_timeout limitado.
// Qualquer FOR UPDATE dentro dela espera no máximo o timeout configurado;
// estourando, o Postgres devolve 55P03 (ver IsLockTimeout).
func BeginLocked(ctx context.Context, db *sql.DB, timeout time.Duration) (*sql.Tx, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", timeout.Milliseconds())); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	return tx, nil
}

// IsLockTimeout identifica erro de espera de lock esgotada (55P03)
func IsLockTimeout(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "55P03"
	}
	return false
}

// IsUniqueViolation identifica violação de constraint UNIQUE (23505)
func IsUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
