package ledger

import (
	"context"
	"database/sql"
	"sync"

	"github.com/shopspring/decimal"

	"pickcoin/internal/models"
)

// ============================================================
// Ручные моки хранилищ для тестов движка
//
// Балансы держатся в памяти по asset_id: тесты движка работают
// с одним аккаунтом, транзакционность проверяется через sqlmock.
// ============================================================

type mockWalletStore struct {
	mu sync.Mutex

	balances map[int64]decimal.Decimal
	ensured  []int64
	locked   []int64 // порядок захвата блокировок
	logs     []*models.WalletLog

	lockErr  map[int64]error
	deltaErr error
	logErr   error

	nextLogID int64
}

func newMockWalletStore() *mockWalletStore {
	return &mockWalletStore{
		balances: make(map[int64]decimal.Decimal),
		lockErr:  make(map[int64]error),
	}
}

func (m *mockWalletStore) Ensure(tx *sql.Tx, accountID, assetID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensured = append(m.ensured, assetID)
	if _, ok := m.balances[assetID]; !ok {
		m.balances[assetID] = decimal.Zero
	}
	return nil
}

func (m *mockWalletStore) LockForUpdate(tx *sql.Tx, accountID, assetID int64) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.lockErr[assetID]; err != nil {
		return decimal.Zero, err
	}
	m.locked = append(m.locked, assetID)
	return m.balances[assetID], nil
}

func (m *mockWalletStore) ApplyDelta(tx *sql.Tx, accountID, assetID int64, delta decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deltaErr != nil {
		return m.deltaErr
	}
	m.balances[assetID] = m.balances[assetID].Add(delta)
	return nil
}

func (m *mockWalletStore) InsertLog(tx *sql.Tx, entry *models.WalletLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.logErr != nil {
		return m.logErr
	}
	m.nextLogID++
	entry.ID = m.nextLogID
	m.logs = append(m.logs, entry)
	return nil
}

type mockOrderStore struct {
	filled    []int64
	filledErr error
}

func (m *mockOrderStore) MarkFilled(tx *sql.Tx, orderID int64) error {
	if m.filledErr != nil {
		return m.filledErr
	}
	m.filled = append(m.filled, orderID)
	return nil
}

type mockTradeStore struct {
	trades    []*models.Trade
	insertErr error
}

func (m *mockTradeStore) Insert(tx *sql.Tx, trade *models.Trade) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	trade.ID = int64(len(m.trades) + 1)
	m.trades = append(m.trades, trade)
	return nil
}

type mockAssetStore struct {
	cashID  int64
	cashErr error
}

func (m *mockAssetStore) CashAssetID() (int64, error) {
	if m.cashErr != nil {
		return 0, m.cashErr
	}
	return m.cashID, nil
}

// ============================================================
// Моки для тестов драйвера матчинга
// ============================================================

type mockOrderFinder struct {
	buys  []*models.Order
	sells []*models.Order
	err   error
}

func (m *mockOrderFinder) FindEligible(assetID int64, refPrice decimal.Decimal) ([]*models.Order, []*models.Order, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.buys, m.sells, nil
}

type settleCall struct {
	side    string
	orderID int64
	price   decimal.Decimal
	qty     decimal.Decimal
}

type mockSettler struct {
	calls   []settleCall
	failIDs map[int64]error

	nextTradeID int64
}

func newMockSettler() *mockSettler {
	return &mockSettler{failIDs: make(map[int64]error)}
}

func (m *mockSettler) settle(side string, orderID int64, price, qty decimal.Decimal) (*models.Trade, error) {
	m.calls = append(m.calls, settleCall{side: side, orderID: orderID, price: price, qty: qty})
	if err := m.failIDs[orderID]; err != nil {
		return nil, err
	}
	m.nextTradeID++
	return &models.Trade{ID: m.nextTradeID, OrderID: orderID, Price: price, Amount: qty}, nil
}

func (m *mockSettler) SettleBuy(ctx context.Context, accountID, assetID, orderID int64, price, qty decimal.Decimal) (*models.Trade, error) {
	return m.settle(models.OrderSideBuy, orderID, price, qty)
}

func (m *mockSettler) SettleSell(ctx context.Context, accountID, assetID, orderID int64, price, qty decimal.Decimal) (*models.Trade, error) {
	return m.settle(models.OrderSideSell, orderID, price, qty)
}
