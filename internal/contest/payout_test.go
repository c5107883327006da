package contest_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/bolaohub/contest-ledger-poc/internal/contest"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeSettlement_SingleWinner(t *testing.T) {
	// 2 entradas de 25, comissão 15%, vencedor único leva 100%
	st := contest.ComputeSettlement(dec("25"), 2, dec("15"),
		contest.PrizeStructure{{Rank: 1, Pct: dec("100")}})

	if !st.Pool.Equal(dec("50")) {
		t.Errorf("pool: got %s, want 50", st.Pool)
	}
	if !st.Commission.Equal(dec("7.5")) {
		t.Errorf("commission: got %s, want 7.5", st.Commission)
	}
	if len(st.Tiers) != 1 {
		t.Fatalf("tiers: got %d, want 1", len(st.Tiers))
	}
	if !st.Tiers[0].Amount.Equal(dec("42.5")) {
		t.Errorf("winner payout: got %s, want 42.5", st.Tiers[0].Amount)
	}
}

func TestComputeSettlement_MultipleTiers(t *testing.T) {
	// 10 entradas de 10, comissão 10%, prêmios 50/30/20
	st := contest.ComputeSettlement(dec("10"), 10, dec("10"), contest.PrizeStructure{
		{Rank: 1, Pct: dec("50")},
		{Rank: 2, Pct: dec("30")},
		{Rank: 3, Pct: dec("20")},
	})

	if !st.Distributable.Equal(dec("90")) {
		t.Fatalf("distributable: got %s, want 90", st.Distributable)
	}
	want := []string{"45", "27", "18"}
	for i, tier := range st.Tiers {
		if !tier.Amount.Equal(dec(want[i])) {
			t.Errorf("rank %d: got %s, want %s", tier.Rank, tier.Amount, want[i])
		}
	}
}

func TestComputeSettlement_ZeroCommission(t *testing.T) {
	st := contest.ComputeSettlement(dec("5"), 4, decimal.Zero,
		contest.PrizeStructure{{Rank: 1, Pct: dec("100")}})

	if !st.Commission.IsZero() {
		t.Errorf("commission: got %s, want 0", st.Commission)
	}
	if !st.Tiers[0].Amount.Equal(dec("20")) {
		t.Errorf("payout: got %s, want 20", st.Tiers[0].Amount)
	}
}

func TestComputeSettlement_NoEntries(t *testing.T) {
	st := contest.ComputeSettlement(dec("25"), 0, dec("15"),
		contest.PrizeStructure{{Rank: 1, Pct: dec("100")}})

	if !st.Pool.IsZero() || !st.Commission.IsZero() {
		t.Errorf("empty contest should have zero pool/commission, got %s/%s", st.Pool, st.Commission)
	}
}

func TestComputeSettlement_Deterministic(t *testing.T) {
	prizes := contest.PrizeStructure{
		{Rank: 1, Pct: dec("62.5")},
		{Rank: 2, Pct: dec("37.5")},
	}
	a := contest.ComputeSettlement(dec("3.33"), 7, dec("12.5"), prizes)
	b := contest.ComputeSettlement(dec("3.33"), 7, dec("12.5"), prizes)

	if !a.Commission.Equal(b.Commission) {
		t.Errorf("commission not deterministic: %s vs %s", a.Commission, b.Commission)
	}
	for i := range a.Tiers {
		if !a.Tiers[i].Amount.Equal(b.Tiers[i].Amount) {
			t.Errorf("tier %d not deterministic: %s vs %s", i, a.Tiers[i].Amount, b.Tiers[i].Amount)
		}
	}
}

func TestPrizeStructureValidate(t *testing.T) {
	ok := contest.PrizeStructure{{Rank: 1, Pct: dec("70")}, {Rank: 2, Pct: dec("30")}}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid structure rejected: %v", err)
	}

	dupRank := contest.PrizeStructure{{Rank: 1, Pct: dec("50")}, {Rank: 1, Pct: dec("50")}}
	if err := dupRank.Validate(); err != contest.ErrInvalidPrizes {
		t.Errorf("duplicate rank: got %v, want ErrInvalidPrizes", err)
	}

	overflow := contest.PrizeStructure{{Rank: 1, Pct: dec("80")}, {Rank: 2, Pct: dec("30")}}
	if err := overflow.Validate(); err != contest.ErrInvalidPrizes {
		t.Errorf("sum over 100: got %v, want ErrInvalidPrizes", err)
	}

	zeroPct := contest.PrizeStructure{{Rank: 1, Pct: decimal.Zero}}
	if err := zeroPct.Validate(); err != contest.ErrInvalidPrizes {
		t.Errorf("zero pct: got %v, want ErrInvalidPrizes", err)
	}
}
