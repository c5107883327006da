package idempotency

import (
	"context"
	"database/sql"
	"errors"
)

var ErrAlreadyProcessed = errors.New("already processed")

// Claim tenta reivindicar a chave (kind, key) DENTRO da transação do chamador.
// Se a chave já foi reivindicada por um commit anterior, devolve
// ErrAlreadyProcessed e a operação não deve executar.
//
// O claim só se torna durável junto com o commit da mutação pareada: um crash
// entre claim e commit desfaz o claim, então a redelivery do evento é segura.
func Claim(ctx context.Context, tx *sql.Tx, kind, key string) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO idempotency_keys (kind, key)
		VALUES ($1, $2)
		ON CONFLICT (kind, key) DO NOTHING`, kind, key)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}

// Claimed consulta se a chave já foi processada (leitura fora de transação)
func Claimed(ctx context.Context, db *sql.DB, kind, key string) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM idempotency_keys WHERE kind=$1 AND key=$2`, kind, key).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
