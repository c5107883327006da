package deposit

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bolaohub/contest-ledger-poc/internal/audit"
	"github.com/bolaohub/contest-ledger-poc/internal/idempotency"
	"github.com/bolaohub/contest-ledger-poc/internal/ledger"
	"github.com/bolaohub/contest-ledger-poc/internal/shared/metrics"
	"github.com/bolaohub/contest-ledger-poc/pkg/contracts/events"
)

// gateKind da chave de idempotência dos créditos de depósito
const gateKind = "deposit"

// Notifier avisa o canal externo do usuário que o crédito entrou.
// Chamado uma vez por evento (o gate barra replays antes de chegar aqui).
type Notifier interface {
	NotifyCredited(ctx context.Context, ev events.DepositCredited) error
}

// Service consome eventos de pagamento confirmados e credita o bucket deposit
// através do gate de idempotência
type Service struct {
	log              *zap.Logger
	led              *ledger.Ledger
	notifier         Notifier // opcional
	minConfirmations int
}

func NewService(log *zap.Logger, led *ledger.Ledger, notifier Notifier, minConfirmations int) *Service {
	return &Service{log: log, led: led, notifier: notifier, minConfirmations: minConfirmations}
}

// Credit processa um evento externo. Redelivery e duplicata produzem no
// máximo um crédito (chave = event_id). Usuário desconhecido vira registro
// unmatched pra reconciliação manual — nunca derruba o caller.
func (s *Service) Credit(ctx context.Context, ev events.DepositEvent) (CreditResult, error) {
	amount, err := decimal.NewFromString(ev.Amount)
	if err != nil || !amount.IsPositive() {
		return CreditResult{}, ledger.ErrInvalidAmount
	}

	if ev.Confirmations < s.minConfirmations {
		s.log.Info("deposit below confirmation threshold",
			zap.String("eventId", ev.EventID), zap.Int("confirmations", ev.Confirmations))
		return CreditResult{BelowThreshold: true}, nil
	}

	userID, err := s.led.ResolveUserByRef(ctx, ev.UserRef)
	if errors.Is(err, ledger.ErrUnknownUserRef) {
		return s.recordUnmatched(ctx, ev, amount)
	}
	if err != nil {
		return CreditResult{}, err
	}

	res, err := s.creditUser(ctx, ev, userID, amount, "system:deposit-worker")
	if err != nil || !res.OK {
		return res, err
	}

	s.notify(ctx, ev.EventID, userID, amount)
	return res, nil
}

// Reconcile re-executa o crédito de um evento unmatched depois que o
// operador vinculou o usuário. Ação manual; nada de replay automático.
func (s *Service) Reconcile(ctx context.Context, eventID, userID string) (CreditResult, error) {
	var ev events.DepositEvent
	var status string
	err := s.led.DB().QueryRowContext(ctx, `
		SELECT event_id, user_ref, amount::text, currency, confirmations, status
		FROM deposit_events WHERE event_id=$1`, eventID).
		Scan(&ev.EventID, &ev.UserRef, &ev.Amount, &ev.Currency, &ev.Confirmations, &status)
	if err == sql.ErrNoRows {
		return CreditResult{}, ErrEventNotFound
	}
	if err != nil {
		return CreditResult{}, err
	}
	if status != StatusUnmatched {
		return CreditResult{}, ErrNotUnmatched
	}

	amount, err := decimal.NewFromString(ev.Amount)
	if err != nil {
		return CreditResult{}, ledger.ErrInvalidAmount
	}

	res, err := s.creditUser(ctx, ev, userID, amount, "admin")
	if err != nil || !res.OK {
		return res, err
	}
	s.notify(ctx, eventID, userID, amount)
	return res, nil
}

// creditUser aplica o crédito numa transação só: claim do gate, registro do
// evento, mutação do bucket e auditoria — duráveis juntos ou nenhum
func (s *Service) creditUser(ctx context.Context, ev events.DepositEvent, userID string, amount decimal.Decimal, actor string) (CreditResult, error) {
	tx, err := s.led.Begin(ctx)
	if err != nil {
		return CreditResult{}, err
	}
	defer tx.Rollback()

	if err = idempotency.Claim(ctx, tx, gateKind, ev.EventID); err != nil {
		if errors.Is(err, idempotency.ErrAlreadyProcessed) {
			metrics.DepositsDuplicated.Inc()
			s.log.Info("deposit already processed", zap.String("eventId", ev.EventID))
			return CreditResult{AlreadyProcessed: true}, nil
		}
		return CreditResult{}, err
	}

	// upsert cobre o caso de registro unmatched criado numa entrega anterior
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO deposit_events (event_id, user_id, user_ref, amount, currency, confirmations, status, credited_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
		ON CONFLICT (event_id) DO UPDATE
		SET user_id=EXCLUDED.user_id, status=EXCLUDED.status, credited_at=NOW()`,
		ev.EventID, userID, ev.UserRef, amount, s.led.Currency(), ev.Confirmations, StatusCredited); err != nil {
		return CreditResult{}, err
	}

	if _, err = s.led.AdjustInTx(ctx, tx, userID, ledger.BucketDeposit, amount,
		ledger.TypeDeposit, ev.EventID, map[string]any{"user_ref": ev.UserRef}); err != nil {
		return CreditResult{}, err
	}

	if err = audit.Append(ctx, tx, actor, "deposit_credit", map[string]any{
		"event_id": ev.EventID,
		"user_id":  userID,
		"amount":   amount.String(),
	}); err != nil {
		return CreditResult{}, err
	}

	if err = tx.Commit(); err != nil {
		return CreditResult{}, err
	}
	s.led.InvalidateBalances(ctx, userID)
	metrics.DepositsCredited.Inc()
	return CreditResult{OK: true}, nil
}

// recordUnmatched guarda o evento sem usuário correspondente pra reconciliação
func (s *Service) recordUnmatched(ctx context.Context, ev events.DepositEvent, amount decimal.Decimal) (CreditResult, error) {
	_, err := s.led.DB().ExecContext(ctx, `
		INSERT INTO deposit_events (event_id, user_ref, amount, currency, confirmations, status)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (event_id) DO NOTHING`,
		ev.EventID, ev.UserRef, amount, s.led.Currency(), ev.Confirmations, StatusUnmatched)
	if err != nil {
		return CreditResult{}, err
	}
	metrics.DepositsUnmatched.Inc()
	s.log.Warn("deposit without matching user, recorded for reconciliation",
		zap.String("eventId", ev.EventID), zap.String("userRef", ev.UserRef))
	return CreditResult{Unmatched: true}, nil
}

// notify publica a notificação pós-commit; falha aqui não desfaz o crédito
func (s *Service) notify(ctx context.Context, eventID, userID string, amount decimal.Decimal) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.NotifyCredited(ctx, events.DepositCredited{
		EventID:  eventID,
		UserID:   userID,
		Amount:   amount.String(),
		Currency: s.led.Currency(),
		TsUnixMs: time.Now().UnixMilli(),
	})
	if err != nil {
		s.log.Warn("deposit credited notify", zap.String("eventId", eventID), zap.Error(err))
	}
}
