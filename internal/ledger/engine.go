package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"pickcoin/internal/models"
	"pickcoin/internal/repository"
)

// WalletStore - контракт хранилища кошельков для движка расчётов
type WalletStore interface {
	Ensure(tx *sql.Tx, accountID, assetID int64) error
	LockForUpdate(tx *sql.Tx, accountID, assetID int64) (decimal.Decimal, error)
	ApplyDelta(tx *sql.Tx, accountID, assetID int64, delta decimal.Decimal) error
	InsertLog(tx *sql.Tx, entry *models.WalletLog) error
}

// OrderStore - контракт состояния ордеров для движка расчётов
type OrderStore interface {
	MarkFilled(tx *sql.Tx, orderID int64) error
}

// TradeStore - контракт истории сделок для движка расчётов
type TradeStore interface {
	Insert(tx *sql.Tx, trade *models.Trade) error
}

// AssetStore - контракт справочника активов для движка расчётов
type AssetStore interface {
	CashAssetID() (int64, error)
}

// DefaultLockTimeout - ограничение ожидания блокировки строки кошелька.
// Без него зависший расчёт копил бы за собой очередь заблокированных
// запросов; по истечении транзакция прерывается с ErrLockTimeout.
const DefaultLockTimeout = 3 * time.Second

// Engine - движок расчётов: единственный компонент, изменяющий балансы.
//
// Один расчёт - одна транзакция БД: обеспечение кошельков, блокировка
// строк в каноническом порядке, проверка достаточности, перенос средств,
// запись сделки и журнала, перевод ордера в FILLED. Любая ошибка на любом
// шаге откатывает транзакцию целиком - частичная мутация кошельков не
// видна снаружи никогда.
//
// Расчёт намеренно не идемпотентен: повторный вызов для уже рассчитанного
// ордера падает на MarkFilled с ErrInvalidState, это и есть защита от
// двойного расчёта при ретраях вызывающей стороны.
type Engine struct {
	db      *sql.DB
	wallets WalletStore
	orders  OrderStore
	trades  TradeStore
	assets  AssetStore

	lockTimeout time.Duration
}

// NewEngine создает движок расчётов
func NewEngine(db *sql.DB, wallets WalletStore, orders OrderStore, trades TradeStore, assets AssetStore, lockTimeout time.Duration) *Engine {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &Engine{
		db:          db,
		wallets:     wallets,
		orders:      orders,
		trades:      trades,
		assets:      assets,
		lockTimeout: lockTimeout,
	}
}

// SettleBuy атомарно рассчитывает покупку: списывает нетто (брутто минус
// комиссия) с кассового кошелька, зачисляет количество на кошелёк актива,
// пишет сделку и переводит ордер в FILLED.
func (e *Engine) SettleBuy(ctx context.Context, accountID, assetID, orderID int64, price, qty decimal.Decimal) (*models.Trade, error) {
	start := time.Now()

	trade, err := e.settleBuyTx(ctx, accountID, assetID, orderID, price, qty)
	observeSettlement(models.OrderSideBuy, err, time.Since(start))
	return trade, err
}

func (e *Engine) settleBuyTx(ctx context.Context, accountID, assetID, orderID int64, price, qty decimal.Decimal) (*models.Trade, error) {
	cashID, err := e.assets.CashAssetID()
	if err != nil {
		return nil, fmt.Errorf("settle buy: %w", e.mapErr(err))
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("settle buy: begin: %w", err)
	}
	defer tx.Rollback()

	if err := e.prepareWallets(tx, accountID, cashID, assetID); err != nil {
		return nil, fmt.Errorf("settle buy order %d: %w", orderID, err)
	}

	cashBal, assetBal, err := e.lockWallets(tx, accountID, cashID, assetID)
	if err != nil {
		return nil, fmt.Errorf("settle buy order %d: %w", orderID, err)
	}

	am := ComputeAmounts(price, qty)
	if cashBal.LessThan(am.Net) {
		return nil, fmt.Errorf("settle buy order %d: cash %s < %s: %w",
			orderID, cashBal, am.Net, ErrInsufficientFunds)
	}

	qtyExec := RoundQty(qty)

	// касса вниз на нетто, монеты вверх на количество
	if err := e.wallets.ApplyDelta(tx, accountID, cashID, am.Net.Neg()); err != nil {
		return nil, fmt.Errorf("settle buy order %d: debit cash: %w", orderID, e.mapErr(err))
	}
	if err := e.wallets.ApplyDelta(tx, accountID, assetID, qtyExec); err != nil {
		return nil, fmt.Errorf("settle buy order %d: credit asset: %w", orderID, e.mapErr(err))
	}

	trade := &models.Trade{
		OrderID: orderID,
		Price:   price,
		Amount:  qtyExec,
		Fee:     am.Fee,
	}
	if err := e.trades.Insert(tx, trade); err != nil {
		return nil, fmt.Errorf("settle buy order %d: insert trade: %w", orderID, e.mapErr(err))
	}

	logs := []*models.WalletLog{
		{AccountID: accountID, AssetID: cashID, TradeID: &trade.ID, ChangeType: models.ChangeTypeBuyFee, Delta: am.Net.Neg(), Balance: cashBal.Sub(am.Net)},
		{AccountID: accountID, AssetID: assetID, TradeID: &trade.ID, ChangeType: models.ChangeTypeBuy, Delta: qtyExec, Balance: assetBal.Add(qtyExec)},
	}
	for _, entry := range logs {
		if err := e.wallets.InsertLog(tx, entry); err != nil {
			return nil, fmt.Errorf("settle buy order %d: wallet log: %w", orderID, e.mapErr(err))
		}
	}

	if err := e.orders.MarkFilled(tx, orderID); err != nil {
		return nil, fmt.Errorf("settle buy order %d: %w", orderID, e.mapErr(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("settle buy order %d: commit: %w", orderID, err)
	}

	return trade, nil
}

// SettleSell атомарно рассчитывает продажу: списывает количество с кошелька
// актива, зачисляет нетто на кассовый кошелёк, пишет сделку и переводит
// ордер в FILLED. Симметричен SettleBuy; достаточность проверяется по
// количеству актива.
func (e *Engine) SettleSell(ctx context.Context, accountID, assetID, orderID int64, price, qty decimal.Decimal) (*models.Trade, error) {
	start := time.Now()

	trade, err := e.settleSellTx(ctx, accountID, assetID, orderID, price, qty)
	observeSettlement(models.OrderSideSell, err, time.Since(start))
	return trade, err
}

func (e *Engine) settleSellTx(ctx context.Context, accountID, assetID, orderID int64, price, qty decimal.Decimal) (*models.Trade, error) {
	cashID, err := e.assets.CashAssetID()
	if err != nil {
		return nil, fmt.Errorf("settle sell: %w", e.mapErr(err))
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("settle sell: begin: %w", err)
	}
	defer tx.Rollback()

	if err := e.prepareWallets(tx, accountID, cashID, assetID); err != nil {
		return nil, fmt.Errorf("settle sell order %d: %w", orderID, err)
	}

	cashBal, assetBal, err := e.lockWallets(tx, accountID, cashID, assetID)
	if err != nil {
		return nil, fmt.Errorf("settle sell order %d: %w", orderID, err)
	}

	qtyExec := RoundQty(qty)
	if assetBal.LessThan(qtyExec) {
		return nil, fmt.Errorf("settle sell order %d: asset %s < %s: %w",
			orderID, assetBal, qtyExec, ErrInsufficientFunds)
	}

	am := ComputeAmounts(price, qty)

	// монеты вниз на количество, касса вверх на нетто
	if err := e.wallets.ApplyDelta(tx, accountID, assetID, qtyExec.Neg()); err != nil {
		return nil, fmt.Errorf("settle sell order %d: debit asset: %w", orderID, e.mapErr(err))
	}
	if err := e.wallets.ApplyDelta(tx, accountID, cashID, am.Net); err != nil {
		return nil, fmt.Errorf("settle sell order %d: credit cash: %w", orderID, e.mapErr(err))
	}

	trade := &models.Trade{
		OrderID: orderID,
		Price:   price,
		Amount:  qtyExec,
		Fee:     am.Fee,
	}
	if err := e.trades.Insert(tx, trade); err != nil {
		return nil, fmt.Errorf("settle sell order %d: insert trade: %w", orderID, e.mapErr(err))
	}

	logs := []*models.WalletLog{
		{AccountID: accountID, AssetID: assetID, TradeID: &trade.ID, ChangeType: models.ChangeTypeSell, Delta: qtyExec.Neg(), Balance: assetBal.Sub(qtyExec)},
		{AccountID: accountID, AssetID: cashID, TradeID: &trade.ID, ChangeType: models.ChangeTypeSellFee, Delta: am.Net, Balance: cashBal.Add(am.Net)},
	}
	for _, entry := range logs {
		if err := e.wallets.InsertLog(tx, entry); err != nil {
			return nil, fmt.Errorf("settle sell order %d: wallet log: %w", orderID, e.mapErr(err))
		}
	}

	if err := e.orders.MarkFilled(tx, orderID); err != nil {
		return nil, fmt.Errorf("settle sell order %d: %w", orderID, e.mapErr(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("settle sell order %d: commit: %w", orderID, err)
	}

	return trade, nil
}

// prepareWallets устанавливает lock_timeout транзакции и лениво создает
// оба кошелька расчёта
func (e *Engine) prepareWallets(tx *sql.Tx, accountID, cashID, assetID int64) error {
	// SET LOCAL действует до конца транзакции; параметры в SET не
	// поддерживаются, значение подставляется форматированием
	if _, err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", e.lockTimeout.Milliseconds())); err != nil {
		return fmt.Errorf("set lock_timeout: %w", err)
	}

	if err := e.wallets.Ensure(tx, accountID, assetID); err != nil {
		return fmt.Errorf("ensure asset wallet: %w", e.mapErr(err))
	}
	if err := e.wallets.Ensure(tx, accountID, cashID); err != nil {
		return fmt.Errorf("ensure cash wallet: %w", e.mapErr(err))
	}

	return nil
}

// lockWallets захватывает обе строки кошельков расчёта в каноническом
// порядке: по возрастанию asset_id независимо от стороны сделки. Единый
// порядок для покупок и продаж исключает взаимную блокировку встречных
// расчётов по одному аккаунту. Возвращает балансы (кассовый, актив).
func (e *Engine) lockWallets(tx *sql.Tx, accountID, cashID, assetID int64) (cashBal, assetBal decimal.Decimal, err error) {
	first, second := cashID, assetID
	if assetID < cashID {
		first, second = assetID, cashID
	}

	balances := make(map[int64]decimal.Decimal, 2)
	for _, id := range []int64{first, second} {
		bal, err := e.wallets.LockForUpdate(tx, accountID, id)
		if err != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("lock wallet asset %d: %w", id, e.mapErr(err))
		}
		balances[id] = bal
	}

	return balances[cashID], balances[assetID], nil
}

// mapErr переводит ошибки репозиториев в классифицированные ошибки леджера
func (e *Engine) mapErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNoTransaction):
		return fmt.Errorf("%w: %s", ErrPreconditionViolated, err)
	case errors.Is(err, repository.ErrLockTimeout):
		return fmt.Errorf("%w: %s", ErrLockTimeout, err)
	case errors.Is(err, repository.ErrNegativeBalance):
		return fmt.Errorf("%w: %s", ErrInsufficientFunds, err)
	case errors.Is(err, repository.ErrOrderNotOpen):
		return fmt.Errorf("%w: %s", ErrInvalidState, err)
	case errors.Is(err, repository.ErrWalletNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrAssetNotFound),
		errors.Is(err, repository.ErrCashAssetNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, err)
	}
	return err
}
