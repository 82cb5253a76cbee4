package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"pickcoin/internal/ledger"
	"pickcoin/internal/models"
)

// OrderRepositoryInterface определяет интерфейс репозитория ордеров
type OrderRepositoryInterface interface {
	Create(order *models.Order) error
	GetByID(id int64) (*models.Order, error)
	ListOpen(accountID, assetID int64) ([]*models.Order, error)
	ListFilled(accountID, assetID int64) ([]*models.Order, error)
}

// WalletRepositoryInterface определяет интерфейс репозитория кошельков
// (только чтения: мутации идут через движок расчётов)
type WalletRepositoryInterface interface {
	GetBalance(accountID, assetID int64) (decimal.Decimal, error)
	Holdings(accountID int64) ([]*models.Holding, error)
}

// TradeRepositoryInterface определяет интерфейс репозитория сделок
type TradeRepositoryInterface interface {
	ListByAccount(accountID int64) ([]*models.Trade, error)
	ListByAccountSince(accountID int64, since time.Time) ([]*models.Trade, error)
}

// AssetRepositoryInterface определяет интерфейс справочника активов
type AssetRepositoryInterface interface {
	GetAll() ([]*models.Asset, error)
	CashAssetID() (int64, error)
}

// SettlementEngine определяет интерфейс движка расчётов
type SettlementEngine interface {
	SettleBuy(ctx context.Context, accountID, assetID, orderID int64, price, qty decimal.Decimal) (*models.Trade, error)
	SettleSell(ctx context.Context, accountID, assetID, orderID int64, price, qty decimal.Decimal) (*models.Trade, error)
	Deposit(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error)
	Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error)
}

// MatchingDriver определяет интерфейс драйвера матчинга
type MatchingDriver interface {
	OnPriceTick(ctx context.Context, assetID int64, refPrice decimal.Decimal) (*ledger.MatchResult, error)
}
