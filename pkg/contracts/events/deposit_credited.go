package events

// DepositCredited é publicado uma única vez por evento creditado com sucesso.
// Consumido pelo canal de notificação do usuário (fora do escopo do core).
type DepositCredited struct {
	EventID  string `json:"event_id"`
	UserID   string `json:"user_id"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	TsUnixMs int64  `json:"ts_unix_ms"`
}
