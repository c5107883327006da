package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	sdb "github.com/bolaohub/contest-ledger-poc/internal/shared/db"
)

// Ledger é o único dono das mutações de bucket. Toda escrita passa por aqui:
// lock pessimista na linha da carteira, atualização do bucket e uma linha de
// transactions no mesmo commit. Nunca persiste escrita parcial.
type Ledger struct {
	db          *sql.DB
	cache       *BalanceCache // opcional; nil desliga o cache
	currency    string
	lockTimeout time.Duration
}

func New(db *sql.DB, cache *BalanceCache, currency string, lockTimeout time.Duration) *Ledger {
	return &Ledger{db: db, cache: cache, currency: currency, lockTimeout: lockTimeout}
}

// DB expõe o handle pra componentes que abrem a própria transação
func (l *Ledger) DB() *sql.DB { return l.db }

// Currency retorna a moeda única da plataforma
func (l *Ledger) Currency() string { return l.currency }

// Begin abre transação com lock_timeout limitado (ver shared/db)
func (l *Ledger) Begin(ctx context.Context) (*sql.Tx, error) {
	return sdb.BeginLocked(ctx, l.db, l.lockTimeout)
}

// CreateUserWithWallet cria usuário e carteira zerada no mesmo commit.
// A carteira nasce com o usuário e vive enquanto ele existir.
func (l *Ledger) CreateUserWithWallet(ctx context.Context, externalRef string) (string, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	userID := uuid.NewString()
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO users(id, external_ref) VALUES($1, NULLIF($2,''))`,
		userID, externalRef); err != nil {
		return "", err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO wallets(id, user_id, deposit, winning, bonus, held, version) VALUES($1,$2,0,0,0,0,1)`,
		uuid.NewString(), userID); err != nil {
		return "", err
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return userID, nil
}

// ResolveUserByRef traduz a referência externa (ex: endereço de depósito)
// pro id interno do usuário
func (l *Ledger) ResolveUserByRef(ctx context.Context, ref string) (string, error) {
	var id string
	err := l.db.QueryRowContext(ctx, `SELECT id FROM users WHERE external_ref=$1`, ref).Scan(&id)
	if err == sql.ErrNoRows {
		return "", ErrUnknownUserRef
	}
	return id, err
}

// Balances lê os quatro buckets com leitura consistente (sem lock).
// Passa pelo cache Redis quando configurado.
func (l *Ledger) Balances(ctx context.Context, userID string) (Balances, error) {
	if l.cache != nil {
		if b, ok := l.cache.Get(ctx, userID); ok {
			return b, nil
		}
	}

	var b Balances
	err := l.db.QueryRowContext(ctx,
		`SELECT deposit, winning, bonus, held FROM wallets WHERE user_id=$1`, userID).
		Scan(&b.Deposit, &b.Winning, &b.Bonus, &b.Held)
	if err == sql.ErrNoRows {
		return Balances{}, ErrWalletNotFound
	}
	if err != nil {
		return Balances{}, err
	}

	if l.cache != nil {
		l.cache.Set(ctx, userID, b)
	}
	return b, nil
}

// BalancesForUpdate lê os buckets já segurando o lock exclusivo da carteira.
// Pra quem precisa planejar múltiplas mutações na mesma transação.
func (l *Ledger) BalancesForUpdate(ctx context.Context, tx *sql.Tx, userID string) (Balances, error) {
	_, b, err := lockWallet(ctx, tx, userID)
	return b, err
}

// Adjust aplica um delta num bucket dentro de transação própria.
// Sempre produz exatamente uma Transaction.
func (l *Ledger) Adjust(ctx context.Context, userID string, bucket Bucket, delta decimal.Decimal, txType, relatedID string, meta map[string]any) (Transaction, error) {
	tx, err := l.Begin(ctx)
	if err != nil {
		return Transaction{}, err
	}
	defer tx.Rollback()

	t, err := l.AdjustInTx(ctx, tx, userID, bucket, delta, txType, relatedID, meta)
	if err != nil {
		return Transaction{}, err
	}
	if err = tx.Commit(); err != nil {
		return Transaction{}, wrapLockErr(err)
	}
	l.InvalidateBalances(ctx, userID)
	return t, nil
}

// AdjustInTx é a variante usada por quem já segura a própria transação
// (entrada em contest, saque). Adquire o lock da carteira, valida que o
// bucket não fica negativo e grava bucket + transaction juntos.
func (l *Ledger) AdjustInTx(ctx context.Context, tx *sql.Tx, userID string, bucket Bucket, delta decimal.Decimal, txType, relatedID string, meta map[string]any) (Transaction, error) {
	col, err := columnFor(bucket)
	if err != nil {
		return Transaction{}, err
	}

	walletID, bal, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return Transaction{}, err
	}

	next := bal.Get(bucket).Add(delta)
	if next.IsNegative() {
		return Transaction{}, ErrInsufficientFunds
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE wallets SET `+col+` = $1, version = version + 1, updated_at = NOW() WHERE id=$2`,
		next, walletID); err != nil {
		return Transaction{}, wrapLockErr(err)
	}

	t := Transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      txType,
		Bucket:    bucket,
		Amount:    delta,
		Currency:  l.currency,
		RelatedID: relatedID,
		Metadata:  meta,
	}
	if err = insertTransaction(ctx, tx, t); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// DebitOrdered drena buckets na ordem dada até cobrir amount, em transação própria
func (l *Ledger) DebitOrdered(ctx context.Context, userID string, amount decimal.Decimal, txType, relatedID string, order []Bucket) ([]Transaction, error) {
	tx, err := l.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	txs, err := l.DebitOrderedInTx(ctx, tx, userID, amount, txType, relatedID, order)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, wrapLockErr(err)
	}
	l.InvalidateBalances(ctx, userID)
	return txs, nil
}

// DebitOrderedInTx satisfaz amount drenando buckets na ordem de prioridade,
// uma Transaction por bucket tocado, somando exatamente amount.
// Falha atômica com ErrInsufficientFunds: ou drena tudo, ou nada persiste
// (o rollback é do chamador, que ainda não commitou).
func (l *Ledger) DebitOrderedInTx(ctx context.Context, tx *sql.Tx, userID string, amount decimal.Decimal, txType, relatedID string, order []Bucket) ([]Transaction, error) {
	_, bal, err := lockWallet(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	legs, err := PlanDebits(bal, amount, order)
	if err != nil {
		return nil, err
	}

	txs := make([]Transaction, 0, len(legs))
	for _, leg := range legs {
		t, err := l.AdjustInTx(ctx, tx, userID, leg.Bucket, leg.Amount.Neg(), txType, relatedID, nil)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, nil
}

// RecordSystemTx grava um lançamento de sistema (sem usuário, sem bucket),
// ex: comissão da plataforma num settlement
func (l *Ledger) RecordSystemTx(ctx context.Context, tx *sql.Tx, txType string, amount decimal.Decimal, relatedID string, meta map[string]any) (Transaction, error) {
	t := Transaction{
		ID:        uuid.NewString(),
		Type:      txType,
		Amount:    amount,
		Currency:  l.currency,
		RelatedID: relatedID,
		Metadata:  meta,
	}
	if err := insertTransaction(ctx, tx, t); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// InvalidateBalances derruba a entrada do cache após commit de mutação
func (l *Ledger) InvalidateBalances(ctx context.Context, userID string) {
	if l.cache != nil {
		l.cache.Invalidate(ctx, userID)
	}
}

// lockWallet adquire o lock exclusivo da linha da carteira (FOR UPDATE)
// e devolve os saldos correntes sob o lock
func lockWallet(ctx context.Context, tx *sql.Tx, userID string) (walletID string, b Balances, err error) {
	err = tx.QueryRowContext(ctx,
		`SELECT id, deposit, winning, bonus, held FROM wallets WHERE user_id=$1 FOR UPDATE`, userID).
		Scan(&walletID, &b.Deposit, &b.Winning, &b.Bonus, &b.Held)
	if err == sql.ErrNoRows {
		return "", Balances{}, ErrWalletNotFound
	}
	if err != nil {
		return "", Balances{}, wrapLockErr(err)
	}
	return walletID, b, nil
}

// insertTransaction grava a linha imutável do ledger
func insertTransaction(ctx context.Context, tx *sql.Tx, t Transaction) error {
	var metaJSON []byte
	if t.Metadata != nil {
		b, err := json.Marshal(t.Metadata)
		if err != nil {
			return err
		}
		metaJSON = b
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, type, bucket, amount, currency, related_id, metadata)
		VALUES ($1, NULLIF($2,''), $3, NULLIF($4,''), $5, $6, NULLIF($7,''), $8)`,
		t.ID, t.UserID, t.Type, string(t.Bucket), t.Amount, t.Currency, t.RelatedID, metaJSON)
	return err
}

// columnFor valida o bucket e devolve o nome da coluna (whitelist; nada dinâmico)
func columnFor(b Bucket) (string, error) {
	switch b {
	case BucketDeposit, BucketWinning, BucketBonus, BucketHeld:
		return string(b), nil
	}
	return "", ErrInvalidBucket
}

// wrapLockErr traduz espera de lock esgotada pro erro retryable da taxonomia
func wrapLockErr(err error) error {
	if sdb.IsLockTimeout(err) {
		return ErrLockTimeout
	}
	return err
}
