// Package interfaces exposes the ledger over HTTP. Error responses are
// {"error": reason} with 404 for missing accounts and 400 for
// validation failures; the shop treats any non-2xx as payment failure.
package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"shopbank/internal/pkg/logger"
	"shopbank/internal/pkg/money"
	"shopbank/internal/service/ledger/application"
	"shopbank/internal/service/ledger/domain"
)

type Handler struct {
	service *application.Service
}

func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("POST /api/register", h.register)
	mux.HandleFunc("GET /api/accounts", h.listAccounts)
	mux.HandleFunc("GET /api/accounts/{number}", h.accountByNumber)
	mux.HandleFunc("GET /api/accounts/balance/{number}", h.balance)
	mux.HandleFunc("POST /api/transfers", h.transfer)
	mux.HandleFunc("GET /api/transactions/{number}", h.history)
	mux.HandleFunc("GET /api/transactions/{number}/statement", h.statement)
}

type registerRequest struct {
	Name    string       `json:"name"`
	Age     string       `json:"age"`
	Email   string       `json:"email"`
	Phone   string       `json:"phone"`
	Balance money.Amount `json:"balance"`
}

type accountResponse struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	AccountNumber string       `json:"accountNumber"`
	Balance       money.Amount `json:"balance"`
	CreatedAt     time.Time    `json:"createdAt"`
}

type transferRequest struct {
	FromAccountNumber string       `json:"fromAccountNumber"`
	ToAccountNumber   string       `json:"toAccountNumber"`
	Amount            money.Amount `json:"amount"`
}

type transactionResponse struct {
	ID              int64        `json:"id"`
	From            string       `json:"fromAccountNumber"`
	To              string       `json:"toAccountNumber"`
	Amount          money.Amount `json:"amount"`
	Type            string       `json:"type"`
	Description     string       `json:"description"`
	TransactionDate time.Time    `json:"transactionDate"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	account, err := h.service.Register(ctx, &domain.Account{
		Name:    req.Name,
		Age:     req.Age,
		Email:   req.Email,
		Phone:   req.Phone,
		Balance: req.Balance,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountResponse(account))
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.Accounts(extract(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) accountByNumber(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.AccountByNumber(extract(r), r.PathValue("number"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.AccountByNumber(extract(r), r.PathValue("number"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]money.Amount{"balance": account.Balance})
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	tx, err := h.service.Transfer(ctx, req.FromAccountNumber, req.ToAccountNumber, req.Amount)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).
			Str("from", req.FromAccountNumber).Str("to", req.ToAccountNumber).
			Msg("transfer rejected")
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	txs, err := h.service.History(extract(r), r.PathValue("number"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponses(txs))
}

func (h *Handler) statement(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "year is required")
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "month is required")
		return
	}
	txs, err := h.service.MonthlyStatement(extract(r), r.PathValue("number"), year, month)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponses(txs))
}

func toAccountResponse(a *domain.Account) accountResponse {
	return accountResponse{
		ID:            a.ID,
		Name:          a.Name,
		AccountNumber: a.Number,
		Balance:       a.Balance,
		CreatedAt:     a.CreatedAt,
	}
}

func toTransactionResponse(t *domain.Transaction) transactionResponse {
	return transactionResponse{
		ID:              t.ID,
		From:            t.From,
		To:              t.To,
		Amount:          t.Amount,
		Type:            string(t.Kind),
		Description:     t.Description,
		TransactionDate: t.At,
	}
}

func toTransactionResponses(txs []*domain.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	return out
}

func extract(r *http.Request) context.Context {
	return otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrMinimumBalance),
		errors.Is(err, domain.ErrNegativeAmount):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
