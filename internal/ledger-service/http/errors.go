package http

import (
	"errors"
	"net/http"

	"github.com/bolaohub/contest-ledger-poc/internal/contest"
	"github.com/bolaohub/contest-ledger-poc/internal/deposit"
	"github.com/bolaohub/contest-ledger-poc/internal/idempotency"
	"github.com/bolaohub/contest-ledger-poc/internal/ledger"
	"github.com/bolaohub/contest-ledger-poc/internal/withdrawal"
)

// kindOf traduz o erro tipado pro kind da taxonomia + status HTTP.
// Todo front end faz branch nesse kind; nada de erro genérico.
func kindOf(err error) (int, string) {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusConflict, "insufficient_funds"
	case errors.Is(err, contest.ErrContestFull):
		return http.StatusConflict, "contest_full"
	case errors.Is(err, contest.ErrAlreadyJoined):
		return http.StatusConflict, "already_joined"
	case errors.Is(err, contest.ErrAlreadySettled):
		return http.StatusConflict, "already_settled"
	case errors.Is(err, idempotency.ErrAlreadyProcessed):
		return http.StatusConflict, "already_processed"
	case errors.Is(err, contest.ErrContestNotJoinable):
		return http.StatusUnprocessableEntity, "contest_not_joinable"
	case errors.Is(err, contest.ErrInvalidWinnerRank):
		return http.StatusUnprocessableEntity, "invalid_winner_rank"
	case errors.Is(err, contest.ErrInvalidPrizes):
		return http.StatusUnprocessableEntity, "invalid_prize_structure"
	case errors.Is(err, withdrawal.ErrNotPending):
		return http.StatusUnprocessableEntity, "not_pending"
	case errors.Is(err, deposit.ErrNotUnmatched):
		return http.StatusUnprocessableEntity, "not_unmatched"
	case errors.Is(err, ledger.ErrUnknownUserRef):
		return http.StatusNotFound, "unknown_user_reference"
	case errors.Is(err, ledger.ErrWalletNotFound):
		return http.StatusNotFound, "wallet_not_found"
	case errors.Is(err, contest.ErrContestNotFound):
		return http.StatusNotFound, "contest_not_found"
	case errors.Is(err, withdrawal.ErrRequestNotFound):
		return http.StatusNotFound, "request_not_found"
	case errors.Is(err, deposit.ErrEventNotFound):
		return http.StatusNotFound, "event_not_found"
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrInvalidBucket):
		return http.StatusBadRequest, "invalid_amount"
	case errors.Is(err, ledger.ErrLockTimeout):
		// único kind que o caller pode repetir às cegas
		return http.StatusServiceUnavailable, "lock_timeout"
	}
	return http.StatusInternalServerError, "internal"
}
