package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"pickcoin/internal/service"
)

// AccountHandler отвечает за чтение состояния леджера по аккаунту
//
// Endpoints:
// - GET /api/v1/accounts/{id}/balance  - баланс (кассовый или по asset_id)
// - GET /api/v1/accounts/{id}/holdings - портфель (некассовые активы)
// - GET /api/v1/accounts/{id}/trades   - история сделок
// - GET /api/v1/accounts/{id}/orders   - ордера по активу и статусу
type AccountHandler struct {
	tradeService *service.TradeService
}

// NewAccountHandler создает новый AccountHandler с внедрением зависимостей
func NewAccountHandler(tradeService *service.TradeService) *AccountHandler {
	return &AccountHandler{tradeService: tradeService}
}

// BalanceResponse структура ответа с балансом
type BalanceResponse struct {
	AccountID int64           `json:"account_id"`
	AssetID   int64           `json:"asset_id,omitempty"`
	Balance   decimal.Decimal `json:"balance"`
}

// GetBalance возвращает баланс аккаунта
// GET /api/v1/accounts/{id}/balance?asset_id=N
//
// Без asset_id возвращается баланс кассового актива.
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromPath(w, r)
	if !ok {
		return
	}

	rawAssetID := r.URL.Query().Get("asset_id")
	if rawAssetID == "" {
		balance, err := h.tradeService.GetCashBalance(r.Context(), accountID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, BalanceResponse{AccountID: accountID, Balance: balance})
		return
	}

	assetID, err := strconv.ParseInt(rawAssetID, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid asset_id"})
		return
	}

	balance, err := h.tradeService.GetBalance(r.Context(), accountID, assetID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceResponse{AccountID: accountID, AssetID: assetID, Balance: balance})
}

// GetHoldings возвращает портфель аккаунта
// GET /api/v1/accounts/{id}/holdings
func (h *AccountHandler) GetHoldings(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromPath(w, r)
	if !ok {
		return
	}

	holdings, err := h.tradeService.Holdings(r.Context(), accountID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Data: holdings})
}

// GetTrades возвращает историю сделок аккаунта
// GET /api/v1/accounts/{id}/trades?period=day|week|month
func (h *AccountHandler) GetTrades(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromPath(w, r)
	if !ok {
		return
	}

	trades, err := h.tradeService.ListTrades(r.Context(), accountID, r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Data: trades})
}

// GetOrders возвращает ордера аккаунта по активу
// GET /api/v1/accounts/{id}/orders?asset_id=N&status=open|filled
//
// По умолчанию возвращаются открытые ордера.
func (h *AccountHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromPath(w, r)
	if !ok {
		return
	}

	assetID, err := strconv.ParseInt(r.URL.Query().Get("asset_id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "asset_id query parameter is required"})
		return
	}

	status := r.URL.Query().Get("status")
	switch status {
	case "", "open":
		orders, err := h.tradeService.ListOpenOrders(r.Context(), accountID, assetID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, SuccessResponse{Data: orders})

	case "filled":
		orders, err := h.tradeService.ListFilledOrders(r.Context(), accountID, assetID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, SuccessResponse{Data: orders})

	default:
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "status must be open or filled"})
	}
}

// accountIDFromPath извлекает {id} аккаунта из пути запроса
func accountIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	vars := mux.Vars(r)
	accountID, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid account id"})
		return 0, false
	}
	return accountID, true
}
