package http

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/bolaohub/contest-ledger-poc/internal/contest"
	"github.com/bolaohub/contest-ledger-poc/internal/idempotency"
	"github.com/bolaohub/contest-ledger-poc/internal/ledger"
	"github.com/bolaohub/contest-ledger-poc/internal/withdrawal"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{ledger.ErrInsufficientFunds, http.StatusConflict, "insufficient_funds"},
		{contest.ErrContestFull, http.StatusConflict, "contest_full"},
		{contest.ErrAlreadyJoined, http.StatusConflict, "already_joined"},
		{contest.ErrAlreadySettled, http.StatusConflict, "already_settled"},
		{idempotency.ErrAlreadyProcessed, http.StatusConflict, "already_processed"},
		{contest.ErrContestNotJoinable, http.StatusUnprocessableEntity, "contest_not_joinable"},
		{contest.ErrInvalidWinnerRank, http.StatusUnprocessableEntity, "invalid_winner_rank"},
		{withdrawal.ErrNotPending, http.StatusUnprocessableEntity, "not_pending"},
		{ledger.ErrUnknownUserRef, http.StatusNotFound, "unknown_user_reference"},
		{withdrawal.ErrRequestNotFound, http.StatusNotFound, "request_not_found"},
		{ledger.ErrLockTimeout, http.StatusServiceUnavailable, "lock_timeout"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tc := range cases {
		status, kind := kindOf(tc.err)
		if status != tc.status || kind != tc.kind {
			t.Errorf("%v: got (%d, %q), want (%d, %q)", tc.err, status, kind, tc.status, tc.kind)
		}
	}
}

func TestKindOf_WrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("join contest: %w", ledger.ErrInsufficientFunds)
	status, kind := kindOf(wrapped)
	if status != http.StatusConflict || kind != "insufficient_funds" {
		t.Errorf("wrapped error lost its kind: got (%d, %q)", status, kind)
	}
}
