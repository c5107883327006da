package idempotency_test

import (
	"context"
	"testing"

	"github.com/bolaohub/contest-ledger-poc/internal/idempotency"
	"github.com/bolaohub/contest-ledger-poc/internal/testutil"
)

func TestClaim_OncePerKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.Truncate(t, db)
	ctx := context.Background()

	tx1, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := idempotency.Claim(ctx, tx1, "deposit", "evt-1"); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if err := tx1.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	tx2, _ := db.BeginTx(ctx, nil)
	defer tx2.Rollback()
	if err := idempotency.Claim(ctx, tx2, "deposit", "evt-1"); err != idempotency.ErrAlreadyProcessed {
		t.Errorf("replay: got %v, want ErrAlreadyProcessed", err)
	}
}

func TestClaim_KindsAreIndependent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.Truncate(t, db)
	ctx := context.Background()

	tx, _ := db.BeginTx(ctx, nil)
	if err := idempotency.Claim(ctx, tx, "deposit", "k"); err != nil {
		t.Fatalf("claim deposit: %v", err)
	}
	if err := idempotency.Claim(ctx, tx, "withdrawal_final", "k"); err != nil {
		t.Errorf("same key under another kind must be free: %v", err)
	}
	tx.Rollback()
}

func TestClaim_RollbackReleasesKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.Truncate(t, db)
	ctx := context.Background()

	tx1, _ := db.BeginTx(ctx, nil)
	if err := idempotency.Claim(ctx, tx1, "deposit", "evt-crash"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	// crash antes do commit: o claim não pode sobreviver
	if err := tx1.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	tx2, _ := db.BeginTx(ctx, nil)
	if err := idempotency.Claim(ctx, tx2, "deposit", "evt-crash"); err != nil {
		t.Errorf("key must be reclaimable after rollback: %v", err)
	}
	if err := tx2.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	ok, err := idempotency.Claimed(ctx, db, "deposit", "evt-crash")
	if err != nil || !ok {
		t.Errorf("claimed lookup: got (%v, %v), want (true, nil)", ok, err)
	}
}
