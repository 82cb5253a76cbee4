package handlers

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"pickcoin/internal/ledger"
	"pickcoin/internal/models"
	"pickcoin/internal/service"
)

// Моки репозиториев и движка. Хендлеры работают с настоящими сервисами,
// подменяется только слой хранилища и расчётов.

type stubOrderRepo struct {
	orders map[int64]*models.Order
	nextID int64
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[int64]*models.Order)}
}

func (s *stubOrderRepo) Create(order *models.Order) error {
	s.nextID++
	order.ID = s.nextID
	order.PlacedAt = time.Now()
	s.orders[order.ID] = order
	return nil
}

func (s *stubOrderRepo) GetByID(id int64) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return order, nil
}

func (s *stubOrderRepo) ListOpen(accountID, assetID int64) ([]*models.Order, error) {
	return s.list(models.OrderStatusOpen), nil
}

func (s *stubOrderRepo) ListFilled(accountID, assetID int64) ([]*models.Order, error) {
	return s.list(models.OrderStatusFilled), nil
}

func (s *stubOrderRepo) list(status string) []*models.Order {
	var out []*models.Order
	for _, order := range s.orders {
		if order.Status == status {
			out = append(out, order)
		}
	}
	return out
}

type stubWalletRepo struct {
	balances map[int64]decimal.Decimal
	holdings []*models.Holding
}

func newStubWalletRepo() *stubWalletRepo {
	return &stubWalletRepo{balances: make(map[int64]decimal.Decimal)}
}

func (s *stubWalletRepo) GetBalance(accountID, assetID int64) (decimal.Decimal, error) {
	return s.balances[assetID], nil
}

func (s *stubWalletRepo) Holdings(accountID int64) ([]*models.Holding, error) {
	return s.holdings, nil
}

type stubTradeRepo struct {
	trades []*models.Trade
}

func (s *stubTradeRepo) ListByAccount(accountID int64) ([]*models.Trade, error) {
	return s.trades, nil
}

func (s *stubTradeRepo) ListByAccountSince(accountID int64, since time.Time) ([]*models.Trade, error) {
	var out []*models.Trade
	for _, trade := range s.trades {
		if !trade.ExecutedAt.Before(since) {
			out = append(out, trade)
		}
	}
	return out, nil
}

type stubAssetRepo struct {
	assets []*models.Asset
	cashID int64
}

func (s *stubAssetRepo) GetAll() ([]*models.Asset, error) {
	return s.assets, nil
}

func (s *stubAssetRepo) CashAssetID() (int64, error) {
	return s.cashID, nil
}

type stubEngine struct {
	settleErr error
	cashErr   error
	balance   decimal.Decimal
}

func (s *stubEngine) SettleBuy(ctx context.Context, accountID, assetID, orderID int64, price, qty decimal.Decimal) (*models.Trade, error) {
	if s.settleErr != nil {
		return nil, s.settleErr
	}
	return &models.Trade{ID: 1, OrderID: orderID, Price: price, Amount: qty, ExecutedAt: time.Now()}, nil
}

func (s *stubEngine) SettleSell(ctx context.Context, accountID, assetID, orderID int64, price, qty decimal.Decimal) (*models.Trade, error) {
	if s.settleErr != nil {
		return nil, s.settleErr
	}
	return &models.Trade{ID: 1, OrderID: orderID, Price: price, Amount: qty, ExecutedAt: time.Now()}, nil
}

func (s *stubEngine) Deposit(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if s.cashErr != nil {
		return decimal.Zero, s.cashErr
	}
	return s.balance, nil
}

func (s *stubEngine) Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if s.cashErr != nil {
		return decimal.Zero, s.cashErr
	}
	return s.balance, nil
}

type stubMatcher struct {
	result *ledger.MatchResult
	err    error
}

func (s *stubMatcher) OnPriceTick(ctx context.Context, assetID int64, refPrice decimal.Decimal) (*ledger.MatchResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	return &ledger.MatchResult{AssetID: assetID, Price: refPrice}, nil
}

type testEnv struct {
	orders  *stubOrderRepo
	wallets *stubWalletRepo
	trades  *stubTradeRepo
	assets  *stubAssetRepo
	engine  *stubEngine
	matcher *stubMatcher

	tradeService   *service.TradeService
	depositService *service.DepositService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		orders:  newStubOrderRepo(),
		wallets: newStubWalletRepo(),
		trades:  &stubTradeRepo{},
		assets:  &stubAssetRepo{cashID: 1},
		engine:  &stubEngine{},
		matcher: &stubMatcher{},
	}
	env.tradeService = service.NewTradeService(env.orders, env.wallets, env.trades, env.assets, env.engine, env.matcher)
	env.depositService = service.NewDepositService(env.engine, env.assets)
	return env
}
