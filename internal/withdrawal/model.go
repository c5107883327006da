package withdrawal

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status do pedido de saque
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

var (
	ErrRequestNotFound = errors.New("withdrawal request not found")
	ErrNotPending      = errors.New("withdrawal request not pending")
)

// Request é o pedido de saque persistido. FromWinning/FromDeposit guardam de
// onde o valor reservado saiu, pra devolver ao bucket de origem num reject.
type Request struct {
	ID          string
	UserID      string
	Amount      decimal.Decimal
	FromWinning decimal.Decimal
	FromDeposit decimal.Decimal
	Destination string
	Status      string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}
