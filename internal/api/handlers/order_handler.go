package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"pickcoin/internal/models"
	"pickcoin/internal/service"
)

// OrderHandler отвечает за размещение и расчёт ордеров
//
// Endpoints:
// - POST /api/v1/orders             - разместить ордер (limit или market)
// - POST /api/v1/orders/{id}/settle - рассчитать ранее размещённый ордер
// - POST /api/v1/ticks              - подать тик цены (запуск матчинга)
type OrderHandler struct {
	tradeService *service.TradeService
}

// NewOrderHandler создает новый OrderHandler с внедрением зависимостей
func NewOrderHandler(tradeService *service.TradeService) *OrderHandler {
	return &OrderHandler{tradeService: tradeService}
}

// PlaceOrderRequest структура запроса на размещение ордера
type PlaceOrderRequest struct {
	AccountID int64           `json:"account_id"`
	AssetID   int64           `json:"asset_id"`
	Side      string          `json:"side"` // BUY | SELL
	Type      string          `json:"type"` // limit | market
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
}

// PlaceOrderResponse структура ответа на размещение ордера
type PlaceOrderResponse struct {
	Order *models.Order `json:"order"`
	Trade *models.Trade `json:"trade,omitempty"` // только для market
}

// TickRequest структура запроса с тиком цены
type TickRequest struct {
	AssetID int64           `json:"asset_id"`
	Price   decimal.Decimal `json:"price"`
}

// PlaceOrder размещает ордер
// POST /api/v1/orders
//
// type=limit: ордер остаётся OPEN до подходящего тика цены.
// type=market: ордер немедленно рассчитывается по заявленной цене.
// Цена исполнения market-ордера приходит от клиента и не сверяется
// с внешним фидом - поведение исходной системы сохранено.
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}

	switch req.Type {
	case "market":
		order, trade, err := h.tradeService.PlaceMarketOrder(r.Context(), req.AccountID, req.AssetID, req.Side, req.Price, req.Amount)
		if err != nil {
			// ордер мог быть размещён, но не рассчитан - отдаем ошибку расчёта
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, PlaceOrderResponse{Order: order, Trade: trade})

	case "limit", "":
		order, err := h.tradeService.PlaceOrder(r.Context(), req.AccountID, req.AssetID, req.Side, req.Price, req.Amount)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, PlaceOrderResponse{Order: order})

	default:
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "type must be limit or market"})
	}
}

// SettleOrder рассчитывает ранее размещённый ордер по его заявленной цене
// POST /api/v1/orders/{id}/settle
func (h *OrderHandler) SettleOrder(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	orderID, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid order id"})
		return
	}

	trade, err := h.tradeService.SettleMarketOrder(r.Context(), orderID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, trade)
}

// HandleTick принимает тик цены и запускает матчинг лимитных ордеров
// POST /api/v1/ticks
//
// Основной источник тиков - потребитель внешнего фида (internal/feed);
// endpoint используется для ручной подачи цены и в тестах.
func (h *OrderHandler) HandleTick(w http.ResponseWriter, r *http.Request) {
	var req TickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}

	result, err := h.tradeService.OnPriceTick(r.Context(), req.AssetID, req.Price)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
