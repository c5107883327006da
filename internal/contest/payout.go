package contest

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// moneyPlaces é a precisão persistida (NUMERIC(20,8))
const moneyPlaces = 8

// TierPayout é o valor devido a um rank da estrutura de prêmios
type TierPayout struct {
	Rank   int
	Amount decimal.Decimal
}

// Settlement é o resultado puro da matemática de liquidação
type Settlement struct {
	Pool          decimal.Decimal // fee × entries
	Commission    decimal.Decimal // pool × pct / 100
	Distributable decimal.Decimal // pool − commission
	Tiers         []TierPayout
}

// ComputeSettlement calcula pool, comissão e prêmio por faixa, determinístico.
// Tudo em decimal arredondado na precisão da moeda; rodar duas vezes com a
// mesma entrada dá o mesmo resultado.
func ComputeSettlement(entryFee decimal.Decimal, entryCount int, commissionPct decimal.Decimal, prizes PrizeStructure) Settlement {
	pool := entryFee.Mul(decimal.NewFromInt(int64(entryCount)))
	commission := pool.Mul(commissionPct).Div(hundred).Round(moneyPlaces)
	distributable := pool.Sub(commission)

	tiers := make([]TierPayout, 0, len(prizes))
	for _, p := range prizes {
		amount := distributable.Mul(p.Pct).Div(hundred).Round(moneyPlaces)
		tiers = append(tiers, TierPayout{Rank: p.Rank, Amount: amount})
	}

	return Settlement{
		Pool:          pool,
		Commission:    commission,
		Distributable: distributable,
		Tiers:         tiers,
	}
}
