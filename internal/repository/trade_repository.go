package repository

import (
	"database/sql"
	"errors"
	"time"

	"pickcoin/internal/models"
)

// Ошибки репозитория сделок
var (
	ErrTradeNotFound = errors.New("trade not found")
)

// TradeRepository - работа с таблицей trades.
// Таблица append-only: записи вставляются движком расчётов и никогда
// не изменяются.
type TradeRepository struct {
	db *sql.DB
}

// NewTradeRepository создает новый экземпляр репозитория
func NewTradeRepository(db *sql.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Insert вставляет запись о сделке в транзакции расчёта
func (r *TradeRepository) Insert(tx *sql.Tx, trade *models.Trade) error {
	if tx == nil {
		return ErrNoTransaction
	}

	query := `
		INSERT INTO trades (order_id, price, amount, fee, executed_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	trade.ExecutedAt = time.Now()

	return tx.QueryRow(
		query,
		trade.OrderID,
		trade.Price,
		trade.Amount,
		trade.Fee,
		trade.ExecutedAt,
	).Scan(&trade.ID)
}

// GetByOrderID возвращает сделку по ордеру.
// При политике полного исполнения на один ордер приходится ровно одна сделка.
func (r *TradeRepository) GetByOrderID(orderID int64) (*models.Trade, error) {
	query := `
		SELECT id, order_id, price, amount, fee, executed_at
		FROM trades
		WHERE order_id = $1`

	trade := &models.Trade{}
	err := r.db.QueryRow(query, orderID).Scan(
		&trade.ID,
		&trade.OrderID,
		&trade.Price,
		&trade.Amount,
		&trade.Fee,
		&trade.ExecutedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTradeNotFound
		}
		return nil, err
	}

	return trade, nil
}

// ListByAccount возвращает всю историю сделок аккаунта
func (r *TradeRepository) ListByAccount(accountID int64) ([]*models.Trade, error) {
	query := `
		SELECT t.id, t.order_id, t.price, t.amount, t.fee, t.executed_at
		FROM trades t
		JOIN orders o ON o.id = t.order_id
		WHERE o.account_id = $1
		ORDER BY t.executed_at DESC`

	rows, err := r.db.Query(query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*models.Trade
	for rows.Next() {
		trade := &models.Trade{}
		err := rows.Scan(
			&trade.ID,
			&trade.OrderID,
			&trade.Price,
			&trade.Amount,
			&trade.Fee,
			&trade.ExecutedAt,
		)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return trades, nil
}

// ListByAccountSince возвращает сделки аккаунта, исполненные не раньше since
func (r *TradeRepository) ListByAccountSince(accountID int64, since time.Time) ([]*models.Trade, error) {
	query := `
		SELECT t.id, t.order_id, t.price, t.amount, t.fee, t.executed_at
		FROM trades t
		JOIN orders o ON o.id = t.order_id
		WHERE o.account_id = $1 AND t.executed_at >= $2
		ORDER BY t.executed_at DESC`

	rows, err := r.db.Query(query, accountID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*models.Trade
	for rows.Next() {
		trade := &models.Trade{}
		err := rows.Scan(
			&trade.ID,
			&trade.OrderID,
			&trade.Price,
			&trade.Amount,
			&trade.Fee,
			&trade.ExecutedAt,
		)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return trades, nil
}

// CountByOrder возвращает количество сделок по ордеру
func (r *TradeRepository) CountByOrder(orderID int64) (int, error) {
	query := `SELECT COUNT(*) FROM trades WHERE order_id = $1`

	var count int
	err := r.db.QueryRow(query, orderID).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}
