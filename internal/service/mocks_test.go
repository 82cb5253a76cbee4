package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"pickcoin/internal/ledger"
	"pickcoin/internal/models"
)

// ============================================================
// Ручные моки репозиториев и движка для тестов сервисов
// ============================================================

type mockOrderRepo struct {
	orders    map[int64]*models.Order
	createErr error
	nextID    int64
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[int64]*models.Order)}
}

func (m *mockOrderRepo) Create(order *models.Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	order.ID = m.nextID
	order.PlacedAt = time.Now()
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepo) GetByID(id int64) (*models.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return order, nil
}

func (m *mockOrderRepo) ListOpen(accountID, assetID int64) ([]*models.Order, error) {
	return m.listByStatus(accountID, assetID, models.OrderStatusOpen), nil
}

func (m *mockOrderRepo) ListFilled(accountID, assetID int64) ([]*models.Order, error) {
	return m.listByStatus(accountID, assetID, models.OrderStatusFilled), nil
}

func (m *mockOrderRepo) listByStatus(accountID, assetID int64, status string) []*models.Order {
	var out []*models.Order
	for _, order := range m.orders {
		if order.AccountID == accountID && order.AssetID == assetID && order.Status == status {
			out = append(out, order)
		}
	}
	return out
}

type mockWalletRepo struct {
	balances map[int64]decimal.Decimal // по asset_id, один аккаунт на тест
	holdings []*models.Holding
}

func newMockWalletRepo() *mockWalletRepo {
	return &mockWalletRepo{balances: make(map[int64]decimal.Decimal)}
}

func (m *mockWalletRepo) GetBalance(accountID, assetID int64) (decimal.Decimal, error) {
	return m.balances[assetID], nil
}

func (m *mockWalletRepo) Holdings(accountID int64) ([]*models.Holding, error) {
	return m.holdings, nil
}

type mockTradeRepo struct {
	trades []*models.Trade

	sinceCalls []time.Time
}

func (m *mockTradeRepo) ListByAccount(accountID int64) ([]*models.Trade, error) {
	return m.trades, nil
}

func (m *mockTradeRepo) ListByAccountSince(accountID int64, since time.Time) ([]*models.Trade, error) {
	m.sinceCalls = append(m.sinceCalls, since)
	var out []*models.Trade
	for _, trade := range m.trades {
		if !trade.ExecutedAt.Before(since) {
			out = append(out, trade)
		}
	}
	return out, nil
}

type mockAssetRepo struct {
	assets  []*models.Asset
	cashID  int64
	cashErr error
}

func (m *mockAssetRepo) GetAll() ([]*models.Asset, error) {
	return m.assets, nil
}

func (m *mockAssetRepo) CashAssetID() (int64, error) {
	if m.cashErr != nil {
		return 0, m.cashErr
	}
	return m.cashID, nil
}

type engineCall struct {
	op      string
	orderID int64
	price   decimal.Decimal
	qty     decimal.Decimal
	amount  decimal.Decimal
}

type mockEngine struct {
	calls     []engineCall
	settleErr error
	cashErr   error

	balance decimal.Decimal // возвращается из Deposit/Withdraw
}

func (m *mockEngine) SettleBuy(ctx context.Context, accountID, assetID, orderID int64, price, qty decimal.Decimal) (*models.Trade, error) {
	m.calls = append(m.calls, engineCall{op: "buy", orderID: orderID, price: price, qty: qty})
	if m.settleErr != nil {
		return nil, m.settleErr
	}
	return &models.Trade{ID: 1, OrderID: orderID, Price: price, Amount: qty}, nil
}

func (m *mockEngine) SettleSell(ctx context.Context, accountID, assetID, orderID int64, price, qty decimal.Decimal) (*models.Trade, error) {
	m.calls = append(m.calls, engineCall{op: "sell", orderID: orderID, price: price, qty: qty})
	if m.settleErr != nil {
		return nil, m.settleErr
	}
	return &models.Trade{ID: 1, OrderID: orderID, Price: price, Amount: qty}, nil
}

func (m *mockEngine) Deposit(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	m.calls = append(m.calls, engineCall{op: "deposit", amount: amount})
	if m.cashErr != nil {
		return decimal.Zero, m.cashErr
	}
	return m.balance, nil
}

func (m *mockEngine) Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	m.calls = append(m.calls, engineCall{op: "withdraw", amount: amount})
	if m.cashErr != nil {
		return decimal.Zero, m.cashErr
	}
	return m.balance, nil
}

type mockMatcher struct {
	result  *ledger.MatchResult
	err     error
	assetID int64
	price   decimal.Decimal
}

func (m *mockMatcher) OnPriceTick(ctx context.Context, assetID int64, refPrice decimal.Decimal) (*ledger.MatchResult, error) {
	m.assetID = assetID
	m.price = refPrice
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &ledger.MatchResult{AssetID: assetID, Price: refPrice}, nil
}

type balanceUpdate struct {
	accountID int64
	assetID   int64
	balance   decimal.Decimal
}

type mockBroadcaster struct {
	updates []balanceUpdate
}

func (m *mockBroadcaster) BroadcastBalanceUpdate(accountID, assetID int64, balance decimal.Decimal) {
	m.updates = append(m.updates, balanceUpdate{accountID: accountID, assetID: assetID, balance: balance})
}

func newTestTradeService() (*TradeService, *mockOrderRepo, *mockWalletRepo, *mockTradeRepo, *mockAssetRepo, *mockEngine, *mockMatcher) {
	orders := newMockOrderRepo()
	wallets := newMockWalletRepo()
	trades := &mockTradeRepo{}
	assets := &mockAssetRepo{cashID: 1}
	engine := &mockEngine{}
	matcher := &mockMatcher{}

	svc := NewTradeService(orders, wallets, trades, assets, engine, matcher)
	return svc, orders, wallets, trades, assets, engine, matcher
}
