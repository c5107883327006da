package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Contadores de negócio do ledger, expostos no /metrics de cada serviço
var (
	DepositsCredited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_deposits_credited_total",
		Help: "Depósitos creditados com sucesso",
	})

	DepositsDuplicated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_deposits_duplicated_total",
		Help: "Eventos de depósito repetidos barrados pelo gate de idempotência",
	})

	DepositsUnmatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_deposits_unmatched_total",
		Help: "Depósitos sem usuário correspondente, aguardando reconciliação",
	})

	SettlementsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_settlements_completed_total",
		Help: "Contests liquidados",
	})

	JoinsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_contest_joins_rejected_total",
		Help: "Entradas em contest rejeitadas, por motivo",
	}, []string{"reason"})
)
