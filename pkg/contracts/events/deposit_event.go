package events

// DepositEvent é a notificação de pagamento confirmado vinda do provedor externo.
// EventID é a chave de idempotência (hash da transação na origem).
type DepositEvent struct {
	EventID       string `json:"event_id"`
	UserRef       string `json:"user_ref"` // referência externa do usuário (ex: endereço de depósito)
	Amount        string `json:"amount"`   // decimal serializado como string
	Currency      string `json:"currency"`
	Confirmations int    `json:"confirmations"`
	TsUnixMs      int64  `json:"ts_unix_ms"`
}
