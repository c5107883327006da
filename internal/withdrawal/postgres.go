package withdrawal

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bolaohub/contest-ledger-poc/internal/audit"
	"github.com/bolaohub/contest-ledger-poc/internal/idempotency"
	"github.com/bolaohub/contest-ledger-poc/internal/ledger"
)

// gateKind da chave de idempotência das transições finais (approve/reject)
const gateKind = "withdrawal_final"

// Workflow implementa o fluxo de saque em três atos: reserva (held),
// aprovação (fundos saem do sistema) ou rejeição (held volta pra origem)
type Workflow struct {
	led *ledger.Ledger
}

func NewWorkflow(led *ledger.Ledger) *Workflow {
	return &Workflow{led: led}
}

// Request reserva amount movendo winning → held e depois deposit → held.
// Bonus não é sacável e nunca entra aqui. ErrInsufficientFunds se os buckets
// sacáveis não cobrem o valor.
func (w *Workflow) Request(ctx context.Context, userID string, amount decimal.Decimal, destination string) (Request, error) {
	if !amount.IsPositive() {
		return Request{}, ledger.ErrInvalidAmount
	}

	tx, err := w.led.Begin(ctx)
	if err != nil {
		return Request{}, err
	}
	defer tx.Rollback()

	bal, err := w.led.BalancesForUpdate(ctx, tx, userID)
	if err != nil {
		return Request{}, err
	}

	legs, err := ledger.PlanDebits(bal, amount, []ledger.Bucket{ledger.BucketWinning, ledger.BucketDeposit})
	if err != nil {
		return Request{}, err
	}

	req := Request{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      amount,
		Destination: destination,
		Status:      StatusPending,
	}
	for _, leg := range legs {
		if _, err = w.led.AdjustInTx(ctx, tx, userID, leg.Bucket, leg.Amount.Neg(),
			ledger.TypeWithdrawal, req.ID, map[string]any{"stage": "hold"}); err != nil {
			return Request{}, err
		}
		if _, err = w.led.AdjustInTx(ctx, tx, userID, ledger.BucketHeld, leg.Amount,
			ledger.TypeWithdrawal, req.ID, map[string]any{"stage": "hold"}); err != nil {
			return Request{}, err
		}
		switch leg.Bucket {
		case ledger.BucketWinning:
			req.FromWinning = leg.Amount
		case ledger.BucketDeposit:
			req.FromDeposit = leg.Amount
		}
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO withdrawal_requests (id, user_id, amount, from_winning, from_deposit, destination, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		req.ID, userID, amount, req.FromWinning, req.FromDeposit, destination, StatusPending); err != nil {
		return Request{}, err
	}

	if err = audit.Append(ctx, tx, "user:"+userID, "withdrawal_request", map[string]any{
		"request_id":  req.ID,
		"amount":      amount.String(),
		"destination": destination,
	}); err != nil {
		return Request{}, err
	}

	if err = tx.Commit(); err != nil {
		return Request{}, err
	}
	w.led.InvalidateBalances(ctx, userID)
	return req, nil
}

// Approve libera o held e registra a saída definitiva dos fundos.
// Idempotente via gate: replay devolve ErrAlreadyProcessed, sem efeito duplo.
func (w *Workflow) Approve(ctx context.Context, requestID string) (Request, error) {
	return w.finalize(ctx, requestID, StatusApproved)
}

// Reject devolve o held aos buckets de origem, sem perda pro usuário
func (w *Workflow) Reject(ctx context.Context, requestID string) (Request, error) {
	return w.finalize(ctx, requestID, StatusRejected)
}

func (w *Workflow) finalize(ctx context.Context, requestID, target string) (Request, error) {
	tx, err := w.led.Begin(ctx)
	if err != nil {
		return Request{}, err
	}
	defer tx.Rollback()

	req, err := lockRequest(ctx, tx, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusPending {
		return Request{}, ErrNotPending
	}

	if err = idempotency.Claim(ctx, tx, gateKind, requestID); err != nil {
		if errors.Is(err, idempotency.ErrAlreadyProcessed) {
			return Request{}, idempotency.ErrAlreadyProcessed
		}
		return Request{}, err
	}

	// held sempre é liberado; no reject o valor volta pros buckets de origem
	if _, err = w.led.AdjustInTx(ctx, tx, req.UserID, ledger.BucketHeld, req.Amount.Neg(),
		ledger.TypeWithdrawal, requestID, map[string]any{"stage": stageFor(target)}); err != nil {
		return Request{}, err
	}
	if target == StatusRejected {
		if req.FromWinning.IsPositive() {
			if _, err = w.led.AdjustInTx(ctx, tx, req.UserID, ledger.BucketWinning, req.FromWinning,
				ledger.TypeWithdrawal, requestID, map[string]any{"stage": "release"}); err != nil {
				return Request{}, err
			}
		}
		if req.FromDeposit.IsPositive() {
			if _, err = w.led.AdjustInTx(ctx, tx, req.UserID, ledger.BucketDeposit, req.FromDeposit,
				ledger.TypeWithdrawal, requestID, map[string]any{"stage": "release"}); err != nil {
				return Request{}, err
			}
		}
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE withdrawal_requests SET status=$1, processed_at=NOW() WHERE id=$2`,
		target, requestID); err != nil {
		return Request{}, err
	}

	if err = audit.Append(ctx, tx, "admin", "withdrawal_"+target, map[string]any{
		"request_id": requestID,
		"user_id":    req.UserID,
		"amount":     req.Amount.String(),
	}); err != nil {
		return Request{}, err
	}

	if err = tx.Commit(); err != nil {
		return Request{}, err
	}
	w.led.InvalidateBalances(ctx, req.UserID)

	req.Status = target
	return req, nil
}

func stageFor(target string) string {
	if target == StatusApproved {
		return "finalize"
	}
	return "release"
}

// lockRequest adquire o lock da linha do pedido (FOR UPDATE)
func lockRequest(ctx context.Context, tx *sql.Tx, requestID string) (Request, error) {
	var req Request
	err := tx.QueryRowContext(ctx, `
		SELECT id, user_id, amount, from_winning, from_deposit, destination, status
		FROM withdrawal_requests WHERE id=$1 FOR UPDATE`, requestID).
		Scan(&req.ID, &req.UserID, &req.Amount, &req.FromWinning, &req.FromDeposit, &req.Destination, &req.Status)
	if err == sql.ErrNoRows {
		return Request{}, ErrRequestNotFound
	}
	return req, err
}
