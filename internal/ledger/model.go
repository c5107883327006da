package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bucket é uma das quatro partições de saldo da carteira
type Bucket string

const (
	BucketDeposit Bucket = "deposit" // aportado pelo usuário, sacável
	BucketWinning Bucket = "winning" // prêmios de contest, sacável
	BucketBonus   Bucket = "bonus"   // crédito promocional, só entra em contest
	BucketHeld    Bucket = "held"    // reservado contra saque pendente
)

// DefaultDebitOrder é a prioridade de drenagem pra cobrar taxa de entrada
var DefaultDebitOrder = []Bucket{BucketDeposit, BucketBonus, BucketWinning}

// Tipos de transação do ledger
const (
	TypeDeposit       = "deposit"
	TypeWithdrawal    = "withdrawal"
	TypeContestEntry  = "contest_entry"
	TypeContestPayout = "contest_payout"
	TypeContestRefund = "contest_refund"
	TypeCommission    = "commission"
)

// Wallet é o modelo persistido no Postgres (uma por usuário)
type Wallet struct {
	ID        string
	UserID    string
	Deposit   decimal.Decimal
	Winning   decimal.Decimal
	Bonus     decimal.Decimal
	Held      decimal.Decimal
	Version   int64
	UpdatedAt time.Time
}

// Transaction é um lançamento imutável do ledger: um por mutação de bucket.
// UserID vazio indica lançamento de sistema (ex: comissão).
type Transaction struct {
	ID        string
	UserID    string
	Type      string
	Bucket    Bucket
	Amount    decimal.Decimal // assinado: crédito positivo, débito negativo
	Currency  string
	RelatedID string
	Metadata  map[string]any
	CreatedAt time.Time
}

// Balances é a visão de leitura dos quatro buckets
type Balances struct {
	Deposit decimal.Decimal `json:"deposit"`
	Winning decimal.Decimal `json:"winning"`
	Bonus   decimal.Decimal `json:"bonus"`
	Held    decimal.Decimal `json:"held"`
}

// Spendable soma o que pode ser drenado na ordem de débito padrão
func (b Balances) Spendable() decimal.Decimal {
	return b.Deposit.Add(b.Bonus).Add(b.Winning)
}

// Get retorna o valor do bucket pedido
func (b Balances) Get(bucket Bucket) decimal.Decimal {
	switch bucket {
	case BucketDeposit:
		return b.Deposit
	case BucketWinning:
		return b.Winning
	case BucketBonus:
		return b.Bonus
	case BucketHeld:
		return b.Held
	}
	return decimal.Zero
}
