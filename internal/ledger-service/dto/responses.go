package dto

type CreateUserResponse struct {
	UserID string `json:"userId"`
}

type CreateContestResponse struct {
	ContestID string `json:"contestId"`
}

type BalancesResponse struct {
	UserID  string `json:"userId"`
	Deposit string `json:"deposit"`
	Winning string `json:"winning"`
	Bonus   string `json:"bonus"`
	Held    string `json:"held"`
}

type JoinContestResponse struct {
	EntryID string `json:"entryId"`
}

type PayoutResponse struct {
	UserID string `json:"userId"`
	Rank   int    `json:"rank"`
	Amount string `json:"amount"`
}

type SettleContestResponse struct {
	ContestID  string           `json:"contestId"`
	Pool       string           `json:"pool"`
	Commission string           `json:"commission"`
	Payouts    []PayoutResponse `json:"payouts"`
}

type RefundResponse struct {
	UserID string `json:"userId"`
	Amount string `json:"amount"`
	Status string `json:"status"` // "refunded" | "failed"
}

type CancelContestResponse struct {
	ContestID string           `json:"contestId"`
	Refunds   []RefundResponse `json:"refunds"`
}

type WithdrawalResponse struct {
	RequestID string `json:"requestId"`
	Status    string `json:"status"`
}

type ReconcileDepositResponse struct {
	OK               bool `json:"ok"`
	AlreadyProcessed bool `json:"already_processed"`
}

type ErrorResponse struct {
	Error string `json:"error"` // kind da taxonomia, ex: "insufficient_funds"
}
