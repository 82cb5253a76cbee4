package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"pickcoin/internal/models"
)

// Ошибки репозитория кошельков
var (
	ErrWalletNotFound = errors.New("wallet not found")
	// ErrNoTransaction - блокирующие методы вызваны без активной транзакции.
	// Это ошибка программирования, а не среды выполнения.
	ErrNoTransaction = errors.New("wallet operation requires an active transaction")
	// ErrLockTimeout - ожидание блокировки строки превысило lock_timeout
	ErrLockTimeout = errors.New("wallet lock wait timed out")
	// ErrNegativeBalance - CHECK(balance >= 0) сработал на уровне БД.
	// Основная проверка достаточности выполняется движком расчётов до
	// изменения баланса; это последний рубеж.
	ErrNegativeBalance = errors.New("wallet balance would become negative")
)

// Коды ошибок PostgreSQL
const (
	pqLockNotAvailable = "55P03" // lock_not_available (lock_timeout)
	pqCheckViolation   = "23514" // check_violation
)

// WalletRepository - работа с таблицей wallets.
//
// Методы Ensure/LockForUpdate/ApplyDelta/InsertLog принимают *sql.Tx:
// они имеют смысл только внутри транзакции расчёта. Чтения (GetBalance,
// Holdings) выполняются вне транзакций на обычном пуле соединений.
type WalletRepository struct {
	db *sql.DB
}

// NewWalletRepository создает новый экземпляр репозитория
func NewWalletRepository(db *sql.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// Ensure идемпотентно создает кошелёк с нулевым балансом, если его нет.
// Повторный вызов для существующей пары (account_id, asset_id) - no-op.
func (r *WalletRepository) Ensure(tx *sql.Tx, accountID, assetID int64) error {
	if tx == nil {
		return ErrNoTransaction
	}

	query := `
		INSERT INTO wallets (account_id, asset_id, balance)
		VALUES ($1, $2, 0)
		ON CONFLICT (account_id, asset_id) DO NOTHING`

	_, err := tx.Exec(query, accountID, assetID)
	return err
}

// LockForUpdate захватывает эксклюзивную блокировку ровно одной строки
// кошелька до конца транзакции и возвращает её текущий баланс.
//
// Может блокироваться, пока строку держит параллельный расчёт; ожидание
// ограничено lock_timeout транзакции, превышение возвращает ErrLockTimeout.
func (r *WalletRepository) LockForUpdate(tx *sql.Tx, accountID, assetID int64) (decimal.Decimal, error) {
	if tx == nil {
		return decimal.Zero, ErrNoTransaction
	}

	query := `
		SELECT balance FROM wallets
		WHERE account_id = $1 AND asset_id = $2
		FOR UPDATE`

	var balance decimal.Decimal
	err := tx.QueryRow(query, accountID, assetID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, ErrWalletNotFound
		}
		return decimal.Zero, mapPqError(err)
	}

	return balance, nil
}

// ApplyDelta прибавляет знаковую дельту к заблокированному балансу.
// Достаточность здесь не перепроверяется - единственная авторитетная
// проверка живёт в движке расчётов после LockForUpdate; уход в минус
// ловится CHECK-ограничением и возвращается как ErrNegativeBalance.
func (r *WalletRepository) ApplyDelta(tx *sql.Tx, accountID, assetID int64, delta decimal.Decimal) error {
	if tx == nil {
		return ErrNoTransaction
	}

	query := `
		UPDATE wallets
		SET balance = balance + $3
		WHERE account_id = $1 AND asset_id = $2`

	result, err := tx.Exec(query, accountID, assetID, delta)
	if err != nil {
		return mapPqError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrWalletNotFound
	}

	return nil
}

// InsertLog пишет запись журнала изменений кошелька.
// Вызывается в той же транзакции, что и ApplyDelta.
func (r *WalletRepository) InsertLog(tx *sql.Tx, entry *models.WalletLog) error {
	if tx == nil {
		return ErrNoTransaction
	}

	query := `
		INSERT INTO wallet_logs (account_id, asset_id, trade_id, change_type, delta, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	entry.CreatedAt = time.Now()

	return tx.QueryRow(
		query,
		entry.AccountID,
		entry.AssetID,
		entry.TradeID,
		entry.ChangeType,
		entry.Delta,
		entry.Balance,
		entry.CreatedAt,
	).Scan(&entry.ID)
}

// GetBalance возвращает баланс кошелька вне транзакции.
// Для несуществующего кошелька возвращает ноль: кошельки создаются
// лениво, отсутствие строки равносильно нулевому балансу.
func (r *WalletRepository) GetBalance(accountID, assetID int64) (decimal.Decimal, error) {
	query := `
		SELECT balance FROM wallets
		WHERE account_id = $1 AND asset_id = $2`

	var balance decimal.Decimal
	err := r.db.QueryRow(query, accountID, assetID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}

	return balance, nil
}

// Holdings возвращает портфель аккаунта: некассовые кошельки
// с положительным балансом вместе с символом актива.
func (r *WalletRepository) Holdings(accountID int64) ([]*models.Holding, error) {
	query := `
		SELECT w.asset_id, a.symbol, w.balance
		FROM wallets w
		JOIN assets a ON a.id = w.asset_id
		WHERE w.account_id = $1 AND NOT a.is_cash AND w.balance > 0
		ORDER BY w.asset_id`

	rows, err := r.db.Query(query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holdings []*models.Holding
	for rows.Next() {
		h := &models.Holding{}
		if err := rows.Scan(&h.AssetID, &h.AssetSymbol, &h.Balance); err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return holdings, nil
}

// mapPqError переводит коды ошибок PostgreSQL в ошибки репозитория
func mapPqError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqLockNotAvailable:
			return ErrLockTimeout
		case pqCheckViolation:
			return ErrNegativeBalance
		}
	}
	return err
}
