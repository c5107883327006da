package contest

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status do ciclo de vida do contest
const (
	StatusScheduled = "scheduled"
	StatusOpen      = "open"
	StatusClosed    = "closed"
	StatusSettled   = "settled"
	StatusCancelled = "cancelled"
)

var (
	ErrContestNotFound    = errors.New("contest not found")
	ErrContestNotJoinable = errors.New("contest not joinable")
	ErrContestFull        = errors.New("contest full")
	ErrAlreadyJoined      = errors.New("already joined")
	ErrAlreadySettled     = errors.New("already settled")
	ErrInvalidWinnerRank  = errors.New("invalid winner rank")
	ErrInvalidPrizes      = errors.New("invalid prize structure")
)

// PrizeTier é uma faixa da estrutura de prêmios: rank → percentual do pool distribuível
type PrizeTier struct {
	Rank int             `json:"rank"`
	Pct  decimal.Decimal `json:"pct"`
}

// PrizeStructure é a lista ordenada de faixas, persistida como JSONB
type PrizeStructure []PrizeTier

func (p PrizeStructure) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *PrizeStructure) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	case nil:
		*p = nil
		return nil
	}
	return fmt.Errorf("prize structure: unsupported scan type %T", src)
}

// Validate checa faixas: ranks únicos >= 1, percentuais > 0 somando no máximo 100
func (p PrizeStructure) Validate() error {
	seen := make(map[int]bool, len(p))
	sum := decimal.Zero
	for _, t := range p {
		if t.Rank < 1 || seen[t.Rank] || !t.Pct.IsPositive() {
			return ErrInvalidPrizes
		}
		seen[t.Rank] = true
		sum = sum.Add(t.Pct)
	}
	if sum.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidPrizes
	}
	return nil
}

// Contest é o modelo persistido no Postgres
type Contest struct {
	ID            string
	Code          string
	MatchID       string
	EntryFee      decimal.Decimal
	MaxPlayers    int // 0 = ilimitado
	Prizes        PrizeStructure
	CommissionPct decimal.Decimal
	JoinCutoff    time.Time
	Status        string
	CreatedAt     time.Time
}

// Entry é o registro de participação: único por (contest, user)
type Entry struct {
	ID            string
	ContestID     string
	UserID        string
	AmountDebited decimal.Decimal
	WinnerRank    int // 0 = sem rank
	CreatedAt     time.Time
}

// WinnerRank é o par (entry, rank) informado pelo admin no settlement
type WinnerRank struct {
	EntryID string
	Rank    int
}

// Payout é o crédito de prêmio de um vencedor
type Payout struct {
	EntryID string
	UserID  string
	Rank    int
	Amount  decimal.Decimal
}

// SettlementReport resume o resultado da liquidação
type SettlementReport struct {
	ContestID  string
	Pool       decimal.Decimal
	Commission decimal.Decimal
	Payouts    []Payout
}

// RefundResult é o status do estorno de uma entry no cancelamento
type RefundResult struct {
	EntryID string
	UserID  string
	Amount  decimal.Decimal
	Status  string // "refunded" | "failed"
	Reason  string
}

// CancelReport resume o cancelamento: um resultado por entry
type CancelReport struct {
	ContestID string
	Refunds   []RefundResult
}
