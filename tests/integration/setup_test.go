//go:build integration

// Package integration contains integration tests for the pickcoin ledger.
//
// These tests verify the correct interaction between components:
// - Database tests: settlement transactions against a real PostgreSQL
// - API tests: full HTTP request cycle
// - WebSocket tests: connection, broadcast messaging
//
// Integration tests use build tag "integration" to separate from unit tests.
// Run with: go test -tags=integration ./tests/integration/...
package integration

import (
	"database/sql"
	"fmt"
	"log"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"

	"pickcoin/internal/api"
	"pickcoin/internal/ledger"
	"pickcoin/internal/models"
	"pickcoin/internal/repository"
	"pickcoin/internal/service"
	"pickcoin/internal/websocket"
)

// TestConfig contains configuration for integration tests
type TestConfig struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string
}

// TestServer encapsulates all components needed for integration testing
type TestServer struct {
	DB      *sql.DB
	Router  *mux.Router
	Server  *httptest.Server
	Hub     *websocket.Hub
	Repos   *TestRepositories
	Engine  *ledger.Engine
	Matcher *ledger.Matcher

	TradeService   *service.TradeService
	DepositService *service.DepositService

	CashAssetID  int64
	TradeAssetID int64

	Cleanup func()
}

// TestRepositories contains all repository instances for testing
type TestRepositories struct {
	Asset  *repository.AssetRepository
	Wallet *repository.WalletRepository
	Order  *repository.OrderRepository
	Trade  *repository.TradeRepository
}

// getTestConfig returns configuration from environment variables or defaults
func getTestConfig() TestConfig {
	return TestConfig{
		DBDriver:   getEnv("TEST_DB_DRIVER", "postgres"),
		DBHost:     getEnv("TEST_DB_HOST", "localhost"),
		DBPort:     getEnv("TEST_DB_PORT", "5432"),
		DBName:     getEnv("TEST_DB_NAME", "pickcoin_test"),
		DBUser:     getEnv("TEST_DB_USER", "postgres"),
		DBPassword: getEnv("TEST_DB_PASSWORD", "postgres"),
		DBSSLMode:  getEnv("TEST_DB_SSLMODE", "disable"),
	}
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// SetupTestDB creates a test database connection
func SetupTestDB(t *testing.T) (*sql.DB, func()) {
	config := getTestConfig()

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.DBHost, config.DBPort, config.DBUser, config.DBPassword, config.DBName, config.DBSSLMode,
	)

	db, err := sql.Open(config.DBDriver, connStr)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to database: %v", err)
		return nil, func() {}
	}

	if err := db.Ping(); err != nil {
		t.Skipf("Skipping integration test: cannot ping database: %v", err)
		return nil, func() {}
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	cleanup := func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}

	return db, cleanup
}

// SetupTestServer creates a complete test server with all components
func SetupTestServer(t *testing.T) *TestServer {
	db, dbCleanup := SetupTestDB(t)
	if db == nil {
		return nil
	}

	if err := initTestTables(db); err != nil {
		t.Skipf("Skipping integration test: cannot initialize tables: %v", err)
		return nil
	}

	cashID, tradeID, err := seedAssets(db)
	if err != nil {
		t.Skipf("Skipping integration test: cannot seed assets: %v", err)
		return nil
	}

	hub := websocket.NewHub()
	go hub.Run()

	repos := &TestRepositories{
		Asset:  repository.NewAssetRepository(db),
		Wallet: repository.NewWalletRepository(db),
		Order:  repository.NewOrderRepository(db),
		Trade:  repository.NewTradeRepository(db),
	}

	engine := ledger.NewEngine(db, repos.Wallet, repos.Order, repos.Trade, repos.Asset, 3*time.Second)
	matcher := ledger.NewMatcher(repos.Order, engine)
	matcher.SetOnTrade(func(trade *models.Trade) {
		hub.Broadcast(websocket.NewTradeExecutedMessage(trade))
	})

	tradeService := service.NewTradeService(repos.Order, repos.Wallet, repos.Trade, repos.Asset, engine, matcher)
	depositService := service.NewDepositService(engine, repos.Asset)
	depositService.SetWebSocketHub(hub)

	deps := &api.Dependencies{
		TradeService:   tradeService,
		DepositService: depositService,
		Hub:            hub,
	}
	router := api.SetupRoutes(deps)

	server := httptest.NewServer(router)

	cleanup := func() {
		server.Close()
		hub.Stop()
		cleanupTestTables(db)
		dbCleanup()
	}

	return &TestServer{
		DB:             db,
		Router:         router,
		Server:         server,
		Hub:            hub,
		Repos:          repos,
		Engine:         engine,
		Matcher:        matcher,
		TradeService:   tradeService,
		DepositService: depositService,
		CashAssetID:    cashID,
		TradeAssetID:   tradeID,
		Cleanup:        cleanup,
	}
}

// initTestTables creates tables for testing
func initTestTables(db *sql.DB) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS assets (
			id         BIGSERIAL PRIMARY KEY,
			symbol     TEXT        NOT NULL UNIQUE,
			name       TEXT        NOT NULL DEFAULT '',
			is_cash    BOOLEAN     NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS wallets (
			id         BIGSERIAL PRIMARY KEY,
			account_id BIGINT      NOT NULL,
			asset_id   BIGINT      NOT NULL REFERENCES assets (id),
			balance    NUMERIC(30, 8) NOT NULL DEFAULT 0 CHECK (balance >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (account_id, asset_id)
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id               BIGSERIAL PRIMARY KEY,
			account_id       BIGINT         NOT NULL,
			asset_id         BIGINT         NOT NULL REFERENCES assets (id),
			side             TEXT           NOT NULL CHECK (side IN ('BUY', 'SELL')),
			price            NUMERIC(30, 8) NOT NULL,
			amount           NUMERIC(30, 8) NOT NULL,
			remaining_amount NUMERIC(30, 8) NOT NULL,
			status           TEXT           NOT NULL DEFAULT 'OPEN',
			placed_at        TIMESTAMPTZ    NOT NULL DEFAULT now(),
			filled_at        TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			id          BIGSERIAL PRIMARY KEY,
			order_id    BIGINT         NOT NULL REFERENCES orders (id),
			price       NUMERIC(30, 8) NOT NULL,
			amount      NUMERIC(30, 8) NOT NULL,
			fee         NUMERIC(30, 8) NOT NULL,
			executed_at TIMESTAMPTZ    NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS wallet_logs (
			id          BIGSERIAL PRIMARY KEY,
			account_id  BIGINT         NOT NULL,
			asset_id    BIGINT         NOT NULL,
			trade_id    BIGINT,
			change_type TEXT           NOT NULL CHECK (change_type IN ('BUY', 'SELL', 'BUY_FEE', 'SELL_FEE', 'DEPOSIT', 'WITHDRAW')),
			delta       NUMERIC(30, 8) NOT NULL,
			balance     NUMERIC(30, 8) NOT NULL,
			created_at  TIMESTAMPTZ    NOT NULL DEFAULT now()
		)`,
	}

	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// seedAssets ensures a cash asset and one tradeable asset exist
func seedAssets(db *sql.DB) (cashID, tradeID int64, err error) {
	err = db.QueryRow(
		`INSERT INTO assets (symbol, name, is_cash) VALUES ('RUB', 'Russian Ruble', TRUE)
		 ON CONFLICT (symbol) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`,
	).Scan(&cashID)
	if err != nil {
		return 0, 0, fmt.Errorf("seed cash asset: %w", err)
	}

	err = db.QueryRow(
		`INSERT INTO assets (symbol, name) VALUES ('BTC', 'Bitcoin')
		 ON CONFLICT (symbol) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`,
	).Scan(&tradeID)
	if err != nil {
		return 0, 0, fmt.Errorf("seed trade asset: %w", err)
	}

	return cashID, tradeID, nil
}

// cleanupTestTables truncates all test tables
func cleanupTestTables(db *sql.DB) {
	tables := []string{
		"wallet_logs",
		"trades",
		"orders",
		"wallets",
	}

	for _, table := range tables {
		db.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
	}
}

// TruncateTable truncates a specific table for testing
func TruncateTable(db *sql.DB, tableName string) error {
	_, err := db.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", tableName))
	return err
}
