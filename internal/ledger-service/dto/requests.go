package dto

type CreateUserRequest struct {
	ExternalRef string `json:"external_ref"`
}

type CreateContestRequest struct {
	Code          string      `json:"code"`
	MatchID       string      `json:"match_id"`
	EntryFee      string      `json:"entry_fee"` // decimal em string
	MaxPlayers    int         `json:"max_players"`
	Prizes        []PrizeTier `json:"prizes"`
	CommissionPct string      `json:"commission_pct"`
	JoinCutoff    int64       `json:"join_cutoff_unix_ms"`
	Status        string      `json:"status,omitempty"` // default "open"
}

type PrizeTier struct {
	Rank int    `json:"rank"`
	Pct  string `json:"pct"`
}

type JoinContestRequest struct {
	ContestID string `json:"contestId"`
	UserID    string `json:"userId"`
}

type SettleContestRequest struct {
	ContestID string       `json:"contestId"`
	Winners   []WinnerRank `json:"winners"`
}

type WinnerRank struct {
	EntryID string `json:"entryId"`
	Rank    int    `json:"rank"`
}

type CancelContestRequest struct {
	ContestID string `json:"contestId"`
}

type WithdrawalRequest struct {
	UserID      string `json:"userId"`
	Amount      string `json:"amount"` // decimal em string
	Destination string `json:"destination"`
}

type WithdrawalActionRequest struct {
	RequestID string `json:"requestId"`
}

type ReconcileDepositRequest struct {
	EventID string `json:"eventId"`
	UserID  string `json:"userId"`
}
