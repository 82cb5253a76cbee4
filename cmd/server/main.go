package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pickcoin/internal/api"
	"pickcoin/internal/config"
	"pickcoin/internal/feed"
	"pickcoin/internal/ledger"
	"pickcoin/internal/models"
	"pickcoin/internal/repository"
	"pickcoin/internal/service"
	"pickcoin/internal/websocket"

	_ "github.com/lib/pq"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация базы данных
	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("Connected to database successfully")

	// Инициализация репозиториев
	assetRepo := repository.NewAssetRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	tradeRepo := repository.NewTradeRepository(db)

	// WebSocket hub для real-time событий
	hub := websocket.NewHub()
	go hub.Run()

	// Движок расчётов и драйвер матчинга
	engine := ledger.NewEngine(db, walletRepo, orderRepo, tradeRepo, assetRepo, cfg.Ledger.LockTimeout)

	matcher := ledger.NewMatcher(orderRepo, engine)
	matcher.SetOnTrade(func(trade *models.Trade) {
		hub.Broadcast(websocket.NewTradeExecutedMessage(trade))
	})

	// Инициализация сервисов
	tradeService := service.NewTradeService(
		orderRepo,
		walletRepo,
		tradeRepo,
		assetRepo,
		engine,
		matcher,
	)
	depositService := service.NewDepositService(engine, assetRepo)
	depositService.SetWebSocketHub(hub)

	// Контекст фоновых задач, отменяется при shutdown
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	// Потребитель внешнего ценового фида
	if cfg.Feed.Enabled {
		consumer := feed.NewConsumer(cfg.Feed, tradeService)
		consumer.SetOnTick(func(tick feed.Tick) {
			hub.Broadcast(websocket.NewPriceTickMessage(tick.AssetID, tick.Price))
		})
		go func() {
			if err := consumer.Run(bgCtx); err != nil && err != context.Canceled {
				log.Printf("Feed consumer stopped: %v", err)
			}
		}()
	}

	// Настройка зависимостей для API
	deps := &api.Dependencies{
		TradeService:   tradeService,
		DepositService: depositService,
		Hub:            hub,
	}

	// Настройка HTTP роутера
	router := api.SetupRoutes(deps)

	// HTTP сервер
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск сервера в отдельной горутине
	go func() {
		log.Printf("Starting server on %s", server.Addr)
		if cfg.Server.UseHTTPS {
			if err := server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Server failed: %v", err)
			}
		} else {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Server failed: %v", err)
			}
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Останавливаем фид и hub
	bgCancel()
	hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// initDatabase создает подключение к базе данных
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	// Проверка подключения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
