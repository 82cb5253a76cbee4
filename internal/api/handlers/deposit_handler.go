package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"pickcoin/internal/service"
)

// DepositHandler отвечает за пополнение и вывод кассового актива
//
// Endpoints:
// - POST /api/v1/deposits    - пополнить кассовый кошелёк
// - POST /api/v1/withdrawals - вывести с кассового кошелька
type DepositHandler struct {
	depositService *service.DepositService
}

// NewDepositHandler создает новый DepositHandler с внедрением зависимостей
func NewDepositHandler(depositService *service.DepositService) *DepositHandler {
	return &DepositHandler{depositService: depositService}
}

// CashRequest структура запроса на пополнение/вывод
type CashRequest struct {
	AccountID int64           `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// CashResponse структура ответа с новым балансом
type CashResponse struct {
	AccountID int64           `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

// Deposit пополняет кассовый кошелёк аккаунта
// POST /api/v1/deposits
func (h *DepositHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req CashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}

	balance, err := h.depositService.Deposit(r.Context(), req.AccountID, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CashResponse{AccountID: req.AccountID, Balance: balance})
}

// Withdraw выводит средства с кассового кошелька аккаунта
// POST /api/v1/withdrawals
func (h *DepositHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req CashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}

	balance, err := h.depositService.Withdraw(r.Context(), req.AccountID, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CashResponse{AccountID: req.AccountID, Balance: balance})
}
