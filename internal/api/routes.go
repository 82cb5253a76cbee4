package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pickcoin/internal/api/handlers"
	"pickcoin/internal/api/middleware"
	"pickcoin/internal/service"
	"pickcoin/internal/websocket"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	TradeService   *service.TradeService
	DepositService *service.DepositService
	Hub            *websocket.Hub
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Структура маршрутов:
//
// /api/v1/
//
//	├── /orders
//	│   ├── POST /              - разместить ордер (limit | market)
//	│   └── POST /{id}/settle   - рассчитать ордер
//	├── /ticks
//	│   └── POST /              - подать тик цены (запуск матчинга)
//	├── /accounts/{id}/
//	│   ├── GET /balance        - баланс (кассовый или по asset_id)
//	│   ├── GET /holdings       - портфель
//	│   ├── GET /trades         - история сделок
//	│   └── GET /orders         - ордера по активу и статусу
//	├── /deposits  POST         - пополнение кассового кошелька
//	├── /withdrawals POST       - вывод с кассового кошелька
//	└── /assets    GET          - справочник активов
//
// /ws/stream - WebSocket с рассылкой исполненных сделок
// /metrics   - Prometheus метрики (за DebugAuth)
// /health    - проверка живости
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. CORS (для всех маршрутов)
// 4. RateLimit (только для API)
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	// Глобальные middleware (применяются ко всем маршрутам)
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)
	router.Use(middleware.CORS)

	var orderHandler *handlers.OrderHandler
	var accountHandler *handlers.AccountHandler
	var assetHandler *handlers.AssetHandler
	if deps != nil && deps.TradeService != nil {
		orderHandler = handlers.NewOrderHandler(deps.TradeService)
		accountHandler = handlers.NewAccountHandler(deps.TradeService)
		assetHandler = handlers.NewAssetHandler(deps.TradeService)
	}

	var depositHandler *handlers.DepositHandler
	if deps != nil && deps.DepositService != nil {
		depositHandler = handlers.NewDepositHandler(deps.DepositService)
	}

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.RateLimit)

	if orderHandler != nil {
		api.HandleFunc("/orders", orderHandler.PlaceOrder).Methods("POST")
		api.HandleFunc("/orders/{id}/settle", orderHandler.SettleOrder).Methods("POST")
		api.HandleFunc("/ticks", orderHandler.HandleTick).Methods("POST")
	}

	if accountHandler != nil {
		api.HandleFunc("/accounts/{id}/balance", accountHandler.GetBalance).Methods("GET")
		api.HandleFunc("/accounts/{id}/holdings", accountHandler.GetHoldings).Methods("GET")
		api.HandleFunc("/accounts/{id}/trades", accountHandler.GetTrades).Methods("GET")
		api.HandleFunc("/accounts/{id}/orders", accountHandler.GetOrders).Methods("GET")
	}

	if depositHandler != nil {
		api.HandleFunc("/deposits", depositHandler.Deposit).Methods("POST")
		api.HandleFunc("/withdrawals", depositHandler.Withdraw).Methods("POST")
	}

	if assetHandler != nil {
		api.HandleFunc("/assets", assetHandler.GetAssets).Methods("GET")
	}

	// WebSocket: рассылка исполненных сделок подключенным клиентам
	if deps != nil && deps.Hub != nil {
		hub := deps.Hub
		router.HandleFunc("/ws/stream", func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(hub, w, r)
		})
	}

	// Prometheus метрики за basic auth
	metrics := router.PathPrefix("/metrics").Subrouter()
	metrics.Use(middleware.DebugAuth)
	metrics.Handle("", promhttp.Handler()).Methods("GET")

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	return router
}
