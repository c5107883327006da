package deposit

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status do registro de evento de depósito
const (
	StatusCredited  = "credited"
	StatusUnmatched = "unmatched" // usuário desconhecido; aguarda reconciliação manual
)

var (
	ErrEventNotFound = errors.New("deposit event not found")
	ErrNotUnmatched  = errors.New("deposit event not pending reconciliation")
)

// Record é a linha persistida por evento externo (chave: event_id)
type Record struct {
	EventID       string
	UserID        string // vazio enquanto unmatched
	UserRef       string
	Amount        decimal.Decimal
	Currency      string
	Confirmations int
	Status        string
	CreatedAt     time.Time
	CreditedAt    *time.Time
}

// CreditResult é o desfecho da ingestão de um evento
type CreditResult struct {
	OK               bool // crédito aplicado neste processamento
	AlreadyProcessed bool // replay barrado pelo gate
	Unmatched        bool // registrado pra reconciliação
	BelowThreshold   bool // confirmações insuficientes, no-op
}
