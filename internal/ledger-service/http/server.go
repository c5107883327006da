package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bolaohub/contest-ledger-poc/internal/contest"
	"github.com/bolaohub/contest-ledger-poc/internal/deposit"
	"github.com/bolaohub/contest-ledger-poc/internal/ledger"
	"github.com/bolaohub/contest-ledger-poc/internal/ledger-service/dto"
	"github.com/bolaohub/contest-ledger-poc/internal/shared/metrics"
	"github.com/bolaohub/contest-ledger-poc/internal/withdrawal"
	"github.com/bolaohub/contest-ledger-poc/pkg/contracts/events"
)

// Publisher publica o evento de saque aprovado pro executor de pagamentos
type Publisher interface {
	PublishWithdrawalApproved(context.Context, events.WithdrawalApproved) error
}

// Server expõe a API HTTP do core do ledger
type Server struct {
	log  *zap.Logger
	led  *ledger.Ledger
	eng  *contest.Engine
	wf   *withdrawal.Workflow
	dep  *deposit.Service
	publ Publisher
}

func NewServer(log *zap.Logger, led *ledger.Ledger, eng *contest.Engine, wf *withdrawal.Workflow, dep *deposit.Service, publ Publisher) *Server {
	return &Server{log: log, led: led, eng: eng, wf: wf, dep: dep, publ: publ}
}

// Router retorna o mux HTTP com as rotas da API do ledger
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/users", s.createUser)                       // POST
	mux.HandleFunc("/balances", s.getBalances)                   // GET ?userId=...
	mux.HandleFunc("/contests", s.createContest)                 // POST (admin)
	mux.HandleFunc("/contests/join", s.joinContest)              // POST
	mux.HandleFunc("/contests/settle", s.settleContest)          // POST (admin)
	mux.HandleFunc("/contests/cancel", s.cancelContest)          // POST (admin)
	mux.HandleFunc("/withdrawals", s.requestWithdrawal)          // POST
	mux.HandleFunc("/withdrawals/approve", s.approveWithdrawal)  // POST (admin)
	mux.HandleFunc("/withdrawals/reject", s.rejectWithdrawal)    // POST (admin)
	mux.HandleFunc("/deposits/reconcile", s.reconcileDeposit)    // POST (admin)
	return mux
}

// createUser cria usuário e carteira zerada no mesmo commit
func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	userID, err := s.led.CreateUserWithWallet(r.Context(), req.ExternalRef)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, dto.CreateUserResponse{UserID: userID})
}

// getBalances retorna os quatro buckets do usuário (leitura consistente, sem lock)
func (s *Server) getBalances(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}
	b, err := s.led.Balances(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, dto.BalancesResponse{
		UserID:  userID,
		Deposit: b.Deposit.String(),
		Winning: b.Winning.String(),
		Bonus:   b.Bonus.String(),
		Held:    b.Held.String(),
	})
}

// createContest insere um contest autorado pelo admin
func (s *Server) createContest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.CreateContestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	fee, err := decimal.NewFromString(req.EntryFee)
	if err != nil || req.Code == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	pct, err := decimal.NewFromString(req.CommissionPct)
	if err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	prizes := make(contest.PrizeStructure, 0, len(req.Prizes))
	for _, p := range req.Prizes {
		tierPct, perr := decimal.NewFromString(p.Pct)
		if perr != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		prizes = append(prizes, contest.PrizeTier{Rank: p.Rank, Pct: tierPct})
	}

	id, err := s.eng.Create(r.Context(), contest.Contest{
		Code:          req.Code,
		MatchID:       req.MatchID,
		EntryFee:      fee,
		MaxPlayers:    req.MaxPlayers,
		Prizes:        prizes,
		CommissionPct: pct,
		JoinCutoff:    time.UnixMilli(req.JoinCutoff),
		Status:        req.Status,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, dto.CreateContestResponse{ContestID: id})
}

// joinContest entra o usuário no contest (debita a taxa na ordem de prioridade)
func (s *Server) joinContest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.JoinContestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.ContestID == "" || req.UserID == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	entry, err := s.eng.Join(r.Context(), req.ContestID, req.UserID)
	if err != nil {
		_, kind := kindOf(err)
		metrics.JoinsRejected.WithLabelValues(kind).Inc()
		s.writeError(w, err)
		return
	}
	writeJSON(w, dto.JoinContestResponse{EntryID: entry.ID})
}

// settleContest liquida o contest com o ranking informado pelo admin
func (s *Server) settleContest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.SettleContestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.ContestID == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	ranks := make([]contest.WinnerRank, 0, len(req.Winners))
	for _, wr := range req.Winners {
		ranks = append(ranks, contest.WinnerRank{EntryID: wr.EntryID, Rank: wr.Rank})
	}
	report, err := s.eng.Settle(r.Context(), req.ContestID, ranks)
	if err != nil {
		s.writeError(w, err)
		return
	}
	metrics.SettlementsCompleted.Inc()

	resp := dto.SettleContestResponse{
		ContestID:  report.ContestID,
		Pool:       report.Pool.String(),
		Commission: report.Commission.String(),
	}
	for _, p := range report.Payouts {
		resp.Payouts = append(resp.Payouts, dto.PayoutResponse{
			UserID: p.UserID, Rank: p.Rank, Amount: p.Amount.String(),
		})
	}
	writeJSON(w, resp)
}

// cancelContest cancela e estorna cada entry (status por participante)
func (s *Server) cancelContest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.CancelContestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ContestID == "" {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	report, err := s.eng.Cancel(r.Context(), req.ContestID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := dto.CancelContestResponse{ContestID: report.ContestID}
	for _, ref := range report.Refunds {
		resp.Refunds = append(resp.Refunds, dto.RefundResponse{
			UserID: ref.UserID, Amount: ref.Amount.String(), Status: ref.Status,
		})
	}
	writeJSON(w, resp)
}

// requestWithdrawal reserva o valor em held e cria o pedido pendente
func (s *Server) requestWithdrawal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.WithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || req.UserID == "" || req.Destination == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	wr, err := s.wf.Request(r.Context(), req.UserID, amount, req.Destination)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, dto.WithdrawalResponse{RequestID: wr.ID, Status: wr.Status})
}

// approveWithdrawal finaliza o saque (fundos saem do ledger) e avisa o executor
func (s *Server) approveWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req dto.WithdrawalActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RequestID == "" {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	wr, err := s.wf.Approve(r.Context(), req.RequestID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if s.publ != nil {
		if perr := s.publ.PublishWithdrawalApproved(r.Context(), events.WithdrawalApproved{
			RequestID:   wr.ID,
			UserID:      wr.UserID,
			Amount:      wr.Amount.String(),
			Currency:    s.led.Currency(),
			Destination: wr.Destination,
		}); perr != nil {
			s.log.Error("publish withdrawal_approved", zap.String("requestId", wr.ID), zap.Error(perr))
		}
	}
	writeJSON(w, dto.WithdrawalResponse{RequestID: wr.ID, Status: wr.Status})
}

// rejectWithdrawal devolve o held pros buckets de origem
func (s *Server) rejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req dto.WithdrawalActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RequestID == "" {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	wr, err := s.wf.Reject(r.Context(), req.RequestID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, dto.WithdrawalResponse{RequestID: wr.ID, Status: wr.Status})
}

// reconcileDeposit re-executa o crédito de um evento unmatched (ação manual do admin)
func (s *Server) reconcileDeposit(w http.ResponseWriter, r *http.Request) {
	var req dto.ReconcileDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EventID == "" || req.UserID == "" {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	res, err := s.dep.Reconcile(r.Context(), req.EventID, req.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, dto.ReconcileDepositResponse{OK: res.OK, AlreadyProcessed: res.AlreadyProcessed})
}

// writeError serializa o erro tipado como {error: kind} com o status da taxonomia
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, kind := kindOf(err)
	if status == http.StatusInternalServerError {
		s.log.Error("internal error", zap.Error(err))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: kind})
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
