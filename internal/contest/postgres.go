package contest

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bolaohub/contest-ledger-poc/internal/audit"
	"github.com/bolaohub/contest-ledger-poc/internal/ledger"
	sdb "github.com/bolaohub/contest-ledger-poc/internal/shared/db"
)

// Engine executa entrada, liquidação e cancelamento de contests.
// Toda operação segura o lock da linha do contest pela duração da transação:
// joins concorrentes e settlement serializam nesse lock.
type Engine struct {
	log *zap.Logger
	led *ledger.Ledger
}

func NewEngine(log *zap.Logger, led *ledger.Ledger) *Engine {
	return &Engine{log: log, led: led}
}

// Create insere um contest autorado pelo admin
func (e *Engine) Create(ctx context.Context, c Contest) (string, error) {
	if c.EntryFee.IsNegative() {
		return "", ledger.ErrInvalidAmount
	}
	if c.CommissionPct.IsNegative() || c.CommissionPct.GreaterThan(decimal.NewFromInt(100)) {
		return "", ErrInvalidPrizes
	}
	if err := c.Prizes.Validate(); err != nil {
		return "", err
	}
	status := c.Status
	if status == "" {
		status = StatusOpen
	}

	id := uuid.NewString()
	_, err := e.led.DB().ExecContext(ctx, `
		INSERT INTO contests (id, code, match_id, entry_fee, max_players, prize_structure, commission_pct, join_cutoff, status)
		VALUES ($1,$2,$3,$4,NULLIF($5,0),$6,$7,$8,$9)`,
		id, c.Code, c.MatchID, c.EntryFee, c.MaxPlayers, c.Prizes, c.CommissionPct, c.JoinCutoff, status)
	if err != nil {
		return "", err
	}
	return id, nil
}

// Join entra o usuário no contest: valida status/cutoff/capacidade, debita a
// taxa na ordem de prioridade e insere a entry — tudo numa transação só,
// segurando o lock da linha do contest.
func (e *Engine) Join(ctx context.Context, contestID, userID string) (Entry, error) {
	tx, err := e.led.Begin(ctx)
	if err != nil {
		return Entry{}, err
	}
	defer tx.Rollback()

	c, err := lockContest(ctx, tx, contestID)
	if err != nil {
		return Entry{}, err
	}

	if c.Status != StatusOpen || time.Now().After(c.JoinCutoff) {
		return Entry{}, ErrContestNotJoinable
	}

	// duplicata: checa antes de debitar pra falhar rápido sem tocar a carteira
	var one int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM contest_entries WHERE contest_id=$1 AND user_id=$2`, contestID, userID).Scan(&one)
	if err == nil {
		return Entry{}, ErrAlreadyJoined
	}
	if err != sql.ErrNoRows {
		return Entry{}, err
	}

	if c.MaxPlayers > 0 {
		var count int
		if err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM contest_entries WHERE contest_id=$1`, contestID).Scan(&count); err != nil {
			return Entry{}, err
		}
		if count >= c.MaxPlayers {
			return Entry{}, ErrContestFull
		}
	}

	if _, err = e.led.DebitOrderedInTx(ctx, tx, userID, c.EntryFee, ledger.TypeContestEntry, contestID, nil); err != nil {
		return Entry{}, err
	}

	entry := Entry{
		ID:            uuid.NewString(),
		ContestID:     contestID,
		UserID:        userID,
		AmountDebited: c.EntryFee,
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO contest_entries (id, contest_id, user_id, amount_debited)
		VALUES ($1,$2,$3,$4)`,
		entry.ID, contestID, userID, c.EntryFee); err != nil {
		// backstop da constraint UNIQUE (contest_id, user_id)
		if sdb.IsUniqueViolation(err) {
			return Entry{}, ErrAlreadyJoined
		}
		return Entry{}, err
	}

	if err = audit.Append(ctx, tx, "user:"+userID, "contest_join", map[string]any{
		"contest_id": contestID,
		"entry_id":   entry.ID,
		"amount":     c.EntryFee.String(),
	}); err != nil {
		return Entry{}, err
	}

	if err = tx.Commit(); err != nil {
		return Entry{}, wrapLockErr(err)
	}
	e.led.InvalidateBalances(ctx, userID)
	return entry, nil
}

// Settle liquida o contest: grava ranks, calcula pool/comissão e credita os
// vencedores no bucket winning — tudo ou nada. Replays recebem
// ErrAlreadySettled; faixa de prêmio sem vencedor correspondente derruba a
// operação inteira com ErrInvalidWinnerRank.
func (e *Engine) Settle(ctx context.Context, contestID string, ranks []WinnerRank) (SettlementReport, error) {
	tx, err := e.led.Begin(ctx)
	if err != nil {
		return SettlementReport{}, err
	}
	defer tx.Rollback()

	c, err := lockContest(ctx, tx, contestID)
	if err != nil {
		return SettlementReport{}, err
	}
	if c.Status == StatusSettled || c.Status == StatusCancelled {
		return SettlementReport{}, ErrAlreadySettled
	}
	if c.Status != StatusOpen && c.Status != StatusClosed {
		return SettlementReport{}, ErrContestNotJoinable
	}

	entries, err := loadEntries(ctx, tx, contestID)
	if err != nil {
		return SettlementReport{}, err
	}
	userByEntry := make(map[string]string, len(entries))
	for _, en := range entries {
		userByEntry[en.ID] = en.UserID
	}

	// valida ranks: toda entry pertence ao contest, sem repetição de entry nem de rank
	entryByRank := make(map[int]string, len(ranks))
	seenEntry := make(map[string]bool, len(ranks))
	for _, r := range ranks {
		if _, ok := userByEntry[r.EntryID]; !ok || r.Rank < 1 || seenEntry[r.EntryID] {
			return SettlementReport{}, ErrInvalidWinnerRank
		}
		if _, dup := entryByRank[r.Rank]; dup {
			return SettlementReport{}, ErrInvalidWinnerRank
		}
		seenEntry[r.EntryID] = true
		entryByRank[r.Rank] = r.EntryID

		if _, err = tx.ExecContext(ctx,
			`UPDATE contest_entries SET winner_rank=$1 WHERE id=$2`, r.Rank, r.EntryID); err != nil {
			return SettlementReport{}, err
		}
	}

	st := ComputeSettlement(c.EntryFee, len(entries), c.CommissionPct, c.Prizes)

	report := SettlementReport{
		ContestID:  contestID,
		Pool:       st.Pool,
		Commission: st.Commission,
	}
	for _, tier := range st.Tiers {
		entryID, ok := entryByRank[tier.Rank]
		if !ok {
			// faixa configurada sem vencedor: erro de configuração, nada persiste
			return SettlementReport{}, ErrInvalidWinnerRank
		}
		winnerID := userByEntry[entryID]
		if _, err = e.led.AdjustInTx(ctx, tx, winnerID, ledger.BucketWinning, tier.Amount,
			ledger.TypeContestPayout, contestID, map[string]any{"rank": tier.Rank, "entry_id": entryID}); err != nil {
			return SettlementReport{}, err
		}
		report.Payouts = append(report.Payouts, Payout{
			EntryID: entryID, UserID: winnerID, Rank: tier.Rank, Amount: tier.Amount,
		})
	}

	if _, err = e.led.RecordSystemTx(ctx, tx, ledger.TypeCommission, st.Commission, contestID,
		map[string]any{"commission_pct": c.CommissionPct.String()}); err != nil {
		return SettlementReport{}, err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE contests SET status=$1, settled_at=NOW() WHERE id=$2`, StatusSettled, contestID); err != nil {
		return SettlementReport{}, err
	}

	if err = audit.Append(ctx, tx, "admin", "contest_settle", map[string]any{
		"contest_id": contestID,
		"pool":       st.Pool.String(),
		"commission": st.Commission.String(),
		"winners":    len(report.Payouts),
	}); err != nil {
		return SettlementReport{}, err
	}

	if err = tx.Commit(); err != nil {
		return SettlementReport{}, wrapLockErr(err)
	}
	for _, p := range report.Payouts {
		e.led.InvalidateBalances(ctx, p.UserID)
	}
	return report, nil
}

// Cancel marca o contest como cancelado e estorna cada entry pro bucket
// deposit. O estorno de cada participante roda em transação própria: falha
// num deles é registrada no relatório mas não bloqueia os demais.
func (e *Engine) Cancel(ctx context.Context, contestID string) (CancelReport, error) {
	tx, err := e.led.Begin(ctx)
	if err != nil {
		return CancelReport{}, err
	}
	defer tx.Rollback()

	c, err := lockContest(ctx, tx, contestID)
	if err != nil {
		return CancelReport{}, err
	}
	if c.Status == StatusSettled || c.Status == StatusCancelled {
		return CancelReport{}, ErrAlreadySettled
	}

	entries, err := loadEntries(ctx, tx, contestID)
	if err != nil {
		return CancelReport{}, err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE contests SET status=$1, cancelled_at=NOW() WHERE id=$2`, StatusCancelled, contestID); err != nil {
		return CancelReport{}, err
	}
	if err = audit.Append(ctx, tx, "admin", "contest_cancel", map[string]any{
		"contest_id": contestID,
		"entries":    len(entries),
	}); err != nil {
		return CancelReport{}, err
	}
	// commit primeiro: contest cancelado bloqueia novos joins mesmo que algum
	// estorno abaixo falhe
	if err = tx.Commit(); err != nil {
		return CancelReport{}, wrapLockErr(err)
	}

	report := CancelReport{ContestID: contestID}
	for _, en := range entries {
		res := RefundResult{EntryID: en.ID, UserID: en.UserID, Amount: en.AmountDebited, Status: "refunded"}
		_, rerr := e.led.Adjust(ctx, en.UserID, ledger.BucketDeposit, en.AmountDebited,
			ledger.TypeContestRefund, contestID, map[string]any{"entry_id": en.ID})
		if rerr != nil {
			res.Status = "failed"
			res.Reason = rerr.Error()
			e.log.Error("contest refund", zap.String("contestId", contestID),
				zap.String("entryId", en.ID), zap.Error(rerr))
		}
		report.Refunds = append(report.Refunds, res)
	}
	return report, nil
}

// lockContest adquire o lock exclusivo da linha do contest (FOR UPDATE)
func lockContest(ctx context.Context, tx *sql.Tx, contestID string) (Contest, error) {
	var c Contest
	var maxPlayers sql.NullInt64
	err := tx.QueryRowContext(ctx, `
		SELECT id, code, match_id, entry_fee, max_players, prize_structure, commission_pct, join_cutoff, status
		FROM contests WHERE id=$1 FOR UPDATE`, contestID).
		Scan(&c.ID, &c.Code, &c.MatchID, &c.EntryFee, &maxPlayers, &c.Prizes, &c.CommissionPct, &c.JoinCutoff, &c.Status)
	if err == sql.ErrNoRows {
		return Contest{}, ErrContestNotFound
	}
	if err != nil {
		return Contest{}, wrapLockErr(err)
	}
	if maxPlayers.Valid {
		c.MaxPlayers = int(maxPlayers.Int64)
	}
	return c, nil
}

// loadEntries lista as entries do contest dentro da transação corrente
func loadEntries(ctx context.Context, tx *sql.Tx, contestID string) ([]Entry, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, user_id, amount_debited, COALESCE(winner_rank, 0)
		FROM contest_entries WHERE contest_id=$1 ORDER BY created_at`, contestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		en := Entry{ContestID: contestID}
		if err := rows.Scan(&en.ID, &en.UserID, &en.AmountDebited, &en.WinnerRank); err != nil {
			return nil, err
		}
		out = append(out, en)
	}
	return out, rows.Err()
}

func wrapLockErr(err error) error {
	if sdb.IsLockTimeout(err) {
		return ledger.ErrLockTimeout
	}
	return err
}
