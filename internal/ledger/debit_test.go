package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/bolaohub/contest-ledger-poc/internal/ledger"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func balances(dep, win, bon, held string) ledger.Balances {
	return ledger.Balances{
		Deposit: dec(dep), Winning: dec(win), Bonus: dec(bon), Held: dec(held),
	}
}

func TestPlanDebits_SingleBucket(t *testing.T) {
	legs, err := ledger.PlanDebits(balances("100", "0", "0", "0"), dec("40"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(legs) != 1 {
		t.Fatalf("legs: got %d, want 1", len(legs))
	}
	if legs[0].Bucket != ledger.BucketDeposit || !legs[0].Amount.Equal(dec("40")) {
		t.Errorf("got %s %s, want deposit 40", legs[0].Bucket, legs[0].Amount)
	}
}

func TestPlanDebits_DrainsInPriorityOrder(t *testing.T) {
	// deposit esgota, bonus cobre parte, winning fecha a conta
	legs, err := ledger.PlanDebits(balances("10", "50", "5", "0"), dec("30"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(legs) != 3 {
		t.Fatalf("legs: got %d, want 3", len(legs))
	}

	wantBuckets := []ledger.Bucket{ledger.BucketDeposit, ledger.BucketBonus, ledger.BucketWinning}
	wantAmounts := []string{"10", "5", "15"}
	total := decimal.Zero
	for i, leg := range legs {
		if leg.Bucket != wantBuckets[i] || !leg.Amount.Equal(dec(wantAmounts[i])) {
			t.Errorf("leg %d: got %s %s, want %s %s", i, leg.Bucket, leg.Amount, wantBuckets[i], wantAmounts[i])
		}
		total = total.Add(leg.Amount)
	}
	if !total.Equal(dec("30")) {
		t.Errorf("legs must sum exactly the amount: got %s", total)
	}
}

func TestPlanDebits_HeldNeverTouched(t *testing.T) {
	_, err := ledger.PlanDebits(balances("0", "0", "0", "100"), dec("1"), nil)
	if err != ledger.ErrInsufficientFunds {
		t.Errorf("held must not be spendable: got %v, want ErrInsufficientFunds", err)
	}
}

func TestPlanDebits_InsufficientFunds(t *testing.T) {
	_, err := ledger.PlanDebits(balances("10", "10", "5", "0"), dec("26"), nil)
	if err != ledger.ErrInsufficientFunds {
		t.Errorf("got %v, want ErrInsufficientFunds", err)
	}
}

func TestPlanDebits_CustomOrder(t *testing.T) {
	order := []ledger.Bucket{ledger.BucketWinning, ledger.BucketDeposit}
	legs, err := ledger.PlanDebits(balances("50", "20", "90", "0"), dec("60"), order)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// bonus fora da ordem não entra
	if len(legs) != 2 || legs[0].Bucket != ledger.BucketWinning || legs[1].Bucket != ledger.BucketDeposit {
		t.Fatalf("custom order not honored: %+v", legs)
	}
	if !legs[0].Amount.Equal(dec("20")) || !legs[1].Amount.Equal(dec("40")) {
		t.Errorf("amounts: got %s/%s, want 20/40", legs[0].Amount, legs[1].Amount)
	}
}

func TestPlanDebits_ZeroAmount(t *testing.T) {
	legs, err := ledger.PlanDebits(balances("10", "0", "0", "0"), decimal.Zero, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(legs) != 0 {
		t.Errorf("zero amount should touch no bucket, got %d legs", len(legs))
	}
}

func TestPlanDebits_NegativeAmount(t *testing.T) {
	_, err := ledger.PlanDebits(balances("10", "0", "0", "0"), dec("-1"), nil)
	if err != ledger.ErrInvalidAmount {
		t.Errorf("got %v, want ErrInvalidAmount", err)
	}
}
