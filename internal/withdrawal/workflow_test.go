package withdrawal_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bolaohub/contest-ledger-poc/internal/ledger"
	"github.com/bolaohub/contest-ledger-poc/internal/testutil"
	"github.com/bolaohub/contest-ledger-poc/internal/withdrawal"
)

func newTestWorkflow(t *testing.T) (*withdrawal.Workflow, *ledger.Ledger) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	testutil.Truncate(t, db)
	led := ledger.New(db, nil, "USDT", 3*time.Second)
	return withdrawal.NewWorkflow(led), led
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seededUser(t *testing.T, led *ledger.Ledger, depositAmt, winningAmt string) string {
	t.Helper()
	ctx := context.Background()
	userID, err := led.CreateUserWithWallet(ctx, "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := led.Adjust(ctx, userID, ledger.BucketDeposit, dec(depositAmt), ledger.TypeDeposit, "", nil); err != nil {
		t.Fatalf("seed deposit: %v", err)
	}
	if _, err := led.Adjust(ctx, userID, ledger.BucketWinning, dec(winningAmt), ledger.TypeContestPayout, "", nil); err != nil {
		t.Fatalf("seed winning: %v", err)
	}
	return userID
}

func TestRequest_DrainsWinningFirst(t *testing.T) {
	wf, led := newTestWorkflow(t)
	ctx := context.Background()

	userID := seededUser(t, led, "50", "30")

	req, err := wf.Request(ctx, userID, dec("60"), "dest-addr")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if !req.FromWinning.Equal(dec("30")) || !req.FromDeposit.Equal(dec("30")) {
		t.Errorf("split: winning=%s deposit=%s, want 30/30", req.FromWinning, req.FromDeposit)
	}

	b, _ := led.Balances(ctx, userID)
	if !b.Winning.IsZero() || !b.Deposit.Equal(dec("20")) || !b.Held.Equal(dec("60")) {
		t.Errorf("got winning=%s deposit=%s held=%s, want 0/20/60", b.Winning, b.Deposit, b.Held)
	}
}

func TestRequest_BonusNotWithdrawable(t *testing.T) {
	wf, led := newTestWorkflow(t)
	ctx := context.Background()

	userID, _ := led.CreateUserWithWallet(ctx, "")
	if _, err := led.Adjust(ctx, userID, ledger.BucketBonus, dec("100"), ledger.TypeDeposit, "", nil); err != nil {
		t.Fatalf("seed bonus: %v", err)
	}

	if _, err := wf.Request(ctx, userID, dec("1"), "dest"); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Errorf("bonus must not fund withdrawals: got %v", err)
	}
}

func TestRequest_InsufficientFunds(t *testing.T) {
	wf, led := newTestWorkflow(t)
	ctx := context.Background()

	userID := seededUser(t, led, "10", "5")

	if _, err := wf.Request(ctx, userID, dec("16"), "dest"); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("got %v, want ErrInsufficientFunds", err)
	}

	// reserva parcial não pode persistir
	b, _ := led.Balances(ctx, userID)
	if !b.Held.IsZero() || !b.Deposit.Equal(dec("10")) || !b.Winning.Equal(dec("5")) {
		t.Errorf("got held=%s deposit=%s winning=%s, want 0/10/5", b.Held, b.Deposit, b.Winning)
	}
}

func TestApprove_ReleasesHeld(t *testing.T) {
	wf, led := newTestWorkflow(t)
	ctx := context.Background()

	userID := seededUser(t, led, "50", "0")
	req, err := wf.Request(ctx, userID, dec("40"), "dest")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	got, err := wf.Approve(ctx, req.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got.Status != withdrawal.StatusApproved {
		t.Errorf("status: got %s, want approved", got.Status)
	}

	// fundos saíram do sistema: held zera e nada volta
	b, _ := led.Balances(ctx, userID)
	if !b.Held.IsZero() || !b.Deposit.Equal(dec("10")) {
		t.Errorf("got held=%s deposit=%s, want 0/10", b.Held, b.Deposit)
	}
}

func TestReject_RestoresOriginBuckets(t *testing.T) {
	wf, led := newTestWorkflow(t)
	ctx := context.Background()

	userID := seededUser(t, led, "50", "30")
	req, err := wf.Request(ctx, userID, dec("60"), "dest")
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	got, err := wf.Reject(ctx, req.ID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got.Status != withdrawal.StatusRejected {
		t.Errorf("status: got %s, want rejected", got.Status)
	}

	b, _ := led.Balances(ctx, userID)
	if !b.Winning.Equal(dec("30")) || !b.Deposit.Equal(dec("50")) || !b.Held.IsZero() {
		t.Errorf("got winning=%s deposit=%s held=%s, want 30/50/0", b.Winning, b.Deposit, b.Held)
	}
}

func TestFinalize_Replay(t *testing.T) {
	wf, led := newTestWorkflow(t)
	ctx := context.Background()

	userID := seededUser(t, led, "50", "0")
	req, _ := wf.Request(ctx, userID, dec("20"), "dest")

	if _, err := wf.Approve(ctx, req.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := wf.Approve(ctx, req.ID); !errors.Is(err, withdrawal.ErrNotPending) {
		t.Errorf("approve replay: got %v, want ErrNotPending", err)
	}
	if _, err := wf.Reject(ctx, req.ID); !errors.Is(err, withdrawal.ErrNotPending) {
		t.Errorf("reject after approve: got %v, want ErrNotPending", err)
	}

	// saldo não pode ter sido mexido duas vezes
	b, _ := led.Balances(ctx, userID)
	if !b.Deposit.Equal(dec("30")) || !b.Held.IsZero() {
		t.Errorf("got deposit=%s held=%s, want 30/0", b.Deposit, b.Held)
	}
}

func TestFinalize_RequestNotFound(t *testing.T) {
	wf, _ := newTestWorkflow(t)

	if _, err := wf.Approve(context.Background(), "00000000-0000-0000-0000-000000000000"); !errors.Is(err, withdrawal.ErrRequestNotFound) {
		t.Errorf("got %v, want ErrRequestNotFound", err)
	}
}
