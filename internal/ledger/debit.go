package ledger

import "github.com/shopspring/decimal"

// DebitLeg é uma parcela do débito ordenado: quanto sai de cada bucket
type DebitLeg struct {
	Bucket Bucket
	Amount decimal.Decimal
}

// PlanDebits distribui amount pelos buckets na ordem dada, sem persistir nada.
// Retorna uma parcela por bucket efetivamente tocado, somando exatamente amount.
// ErrInsufficientFunds se a ordem não cobre o valor inteiro.
func PlanDebits(balances Balances, amount decimal.Decimal, order []Bucket) ([]DebitLeg, error) {
	if amount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if len(order) == 0 {
		order = DefaultDebitOrder
	}

	remaining := amount
	var legs []DebitLeg
	for _, b := range order {
		if remaining.IsZero() {
			break
		}
		avail := balances.Get(b)
		if avail.IsZero() || avail.IsNegative() {
			continue
		}
		take := decimal.Min(avail, remaining)
		legs = append(legs, DebitLeg{Bucket: b, Amount: take})
		remaining = remaining.Sub(take)
	}

	if !remaining.IsZero() {
		return nil, ErrInsufficientFunds
	}
	return legs, nil
}
