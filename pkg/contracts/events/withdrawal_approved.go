package events

// WithdrawalApproved avisa o executor de pagamentos externo que um saque
// foi aprovado e os fundos já saíram do ledger.
type WithdrawalApproved struct {
	RequestID   string `json:"request_id"`
	UserID      string `json:"user_id"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Destination string `json:"destination"`
	TsUnixMs    int64  `json:"ts_unix_ms"`
}
