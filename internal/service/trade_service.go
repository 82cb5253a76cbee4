package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"pickcoin/internal/ledger"
	"pickcoin/internal/models"
	"pickcoin/pkg/utils"
)

// TradeService - размещение ордеров, запуск расчётов и чтение состояния
// леджера. Это публичный контракт ядра: HTTP-слой и потребитель ценового
// фида работают только через него.
type TradeService struct {
	orders  OrderRepositoryInterface
	wallets WalletRepositoryInterface
	trades  TradeRepositoryInterface
	assets  AssetRepositoryInterface
	engine  SettlementEngine
	matcher MatchingDriver
}

// NewTradeService создает новый экземпляр сервиса торговли
func NewTradeService(
	orders OrderRepositoryInterface,
	wallets WalletRepositoryInterface,
	trades TradeRepositoryInterface,
	assets AssetRepositoryInterface,
	engine SettlementEngine,
	matcher MatchingDriver,
) *TradeService {
	return &TradeService{
		orders:  orders,
		wallets: wallets,
		trades:  trades,
		assets:  assets,
		engine:  engine,
		matcher: matcher,
	}
}

// PlaceOrder валидирует параметры и вставляет OPEN ордер.
// Для лимитного ордера price - лимитная цена; ордер остаётся OPEN до
// подходящего тика. Для рыночного ордера price - цена исполнения,
// заявленная клиентом: ядро не сверяет её с внешним фидом.
func (s *TradeService) PlaceOrder(ctx context.Context, accountID, assetID int64, side string, price, amount decimal.Decimal) (*models.Order, error) {
	if side != models.OrderSideBuy && side != models.OrderSideSell {
		return nil, fmt.Errorf("place order: side %q: %w", side, ledger.ErrInvalidSide)
	}
	if price.Sign() <= 0 || amount.Sign() <= 0 {
		return nil, fmt.Errorf("place order: price %s amount %s: %w", price, amount, ledger.ErrInvalidArgument)
	}

	order := &models.Order{
		AccountID:       accountID,
		AssetID:         assetID,
		Side:            side,
		Price:           price,
		Amount:          amount,
		RemainingAmount: amount,
		Status:          models.OrderStatusOpen,
	}

	if err := s.orders.Create(order); err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}

	return order, nil
}

// PlaceMarketOrder размещает рыночный ордер и немедленно его рассчитывает.
// При отказе расчёта (нехватка средств) ордер остаётся OPEN, ошибка
// возвращается вместе с размещённым ордером.
func (s *TradeService) PlaceMarketOrder(ctx context.Context, accountID, assetID int64, side string, price, amount decimal.Decimal) (*models.Order, *models.Trade, error) {
	order, err := s.PlaceOrder(ctx, accountID, assetID, side, price, amount)
	if err != nil {
		return nil, nil, err
	}

	trade, err := s.settle(ctx, order)
	if err != nil {
		return order, nil, err
	}

	order.Status = models.OrderStatusFilled
	order.RemainingAmount = decimal.Zero

	return order, trade, nil
}

// SettleMarketOrder рассчитывает ранее размещённый ордер по его заявленной
// цене. Повторный вызов для уже рассчитанного ордера возвращает ошибку
// вида invalid_state без какого-либо эффекта на балансы.
func (s *TradeService) SettleMarketOrder(ctx context.Context, orderID int64) (*models.Trade, error) {
	order, err := s.orders.GetByID(orderID)
	if err != nil {
		return nil, fmt.Errorf("settle order %d: %w", orderID, err)
	}

	if !order.IsOpen() {
		return nil, fmt.Errorf("settle order %d: status %s: %w", orderID, order.Status, ledger.ErrInvalidState)
	}

	return s.settle(ctx, order)
}

func (s *TradeService) settle(ctx context.Context, order *models.Order) (*models.Trade, error) {
	if order.Side == models.OrderSideSell {
		return s.engine.SettleSell(ctx, order.AccountID, order.AssetID, order.ID, order.Price, order.RemainingAmount)
	}
	return s.engine.SettleBuy(ctx, order.AccountID, order.AssetID, order.ID, order.Price, order.RemainingAmount)
}

// OnPriceTick передаёт тик внешнего ценового фида драйверу матчинга
func (s *TradeService) OnPriceTick(ctx context.Context, assetID int64, refPrice decimal.Decimal) (*ledger.MatchResult, error) {
	return s.matcher.OnPriceTick(ctx, assetID, refPrice)
}

// GetBalance возвращает баланс аккаунта по активу
func (s *TradeService) GetBalance(ctx context.Context, accountID, assetID int64) (decimal.Decimal, error) {
	return s.wallets.GetBalance(accountID, assetID)
}

// GetCashBalance возвращает баланс кассового актива аккаунта
func (s *TradeService) GetCashBalance(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	cashID, err := s.assets.CashAssetID()
	if err != nil {
		return decimal.Zero, fmt.Errorf("cash balance: %w", err)
	}
	return s.wallets.GetBalance(accountID, cashID)
}

// Holdings возвращает портфель аккаунта
func (s *TradeService) Holdings(ctx context.Context, accountID int64) ([]*models.Holding, error) {
	return s.wallets.Holdings(accountID)
}

// ListTrades возвращает историю сделок аккаунта.
//
// period сужает выборку до текущего дня, недели или месяца (UTC).
// Пустой period означает всю историю.
func (s *TradeService) ListTrades(ctx context.Context, accountID int64, period string) ([]*models.Trade, error) {
	switch period {
	case "":
		return s.trades.ListByAccount(accountID)
	case "day":
		return s.trades.ListByAccountSince(accountID, utils.GetDayStart())
	case "week":
		return s.trades.ListByAccountSince(accountID, utils.GetWeekStart())
	case "month":
		return s.trades.ListByAccountSince(accountID, utils.GetMonthStart())
	default:
		return nil, fmt.Errorf("%w: unknown period %q", ledger.ErrInvalidArgument, period)
	}
}

// ListOpenOrders возвращает нерассчитанные ордера аккаунта по активу
func (s *TradeService) ListOpenOrders(ctx context.Context, accountID, assetID int64) ([]*models.Order, error) {
	return s.orders.ListOpen(accountID, assetID)
}

// ListFilledOrders возвращает рассчитанные ордера аккаунта по активу
func (s *TradeService) ListFilledOrders(ctx context.Context, accountID, assetID int64) ([]*models.Order, error) {
	return s.orders.ListFilled(accountID, assetID)
}

// ListAssets возвращает справочник активов
func (s *TradeService) ListAssets(ctx context.Context) ([]*models.Asset, error) {
	return s.assets.GetAll()
}
