package topics

const (
	// Depósitos
	DepositEvents   = "deposit_events"
	DepositCredited = "deposit_credited"

	// Saques
	WithdrawalApproved = "withdrawal_approved"

	// DLQs
	DepositEventsDLQ = "deposit_events_dlq"
)
