package testutil

import (
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"

	"github.com/bolaohub/contest-ledger-poc/internal/persistence"
)

// SetupTestDB abre o Postgres de teste e aplica o esquema.
// Testes de integração são pulados quando TEST_POSTGRES_DSN não está setado.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping integration test")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("ping postgres: %v", err)
	}
	if err := persistence.Apply(db); err != nil {
		t.Fatalf("apply schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// Truncate limpa as tabelas do ledger entre testes
func Truncate(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec(`TRUNCATE audit_log, idempotency_keys, withdrawal_requests,
		deposit_events, contest_entries, contests, transactions, wallets, users CASCADE`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
}
