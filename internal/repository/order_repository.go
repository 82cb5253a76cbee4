package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"pickcoin/internal/models"
)

// Ошибки репозитория ордеров
var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderNotOpen - попытка перевести в FILLED ордер не в состоянии OPEN.
	// Защищает от двойного расчёта одного ордера.
	ErrOrderNotOpen = errors.New("order is not open")
)

// OrderRepository - работа с таблицей orders
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository создает новый экземпляр репозитория
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create вставляет новый OPEN ордер и проставляет сгенерированный id
func (r *OrderRepository) Create(order *models.Order) error {
	query := `
		INSERT INTO orders (account_id, asset_id, side, price, amount, remaining_amount, status, placed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	order.PlacedAt = time.Now()

	return r.db.QueryRow(
		query,
		order.AccountID,
		order.AssetID,
		order.Side,
		order.Price,
		order.Amount,
		order.RemainingAmount,
		order.Status,
		order.PlacedAt,
	).Scan(&order.ID)
}

// GetByID возвращает ордер по ID
func (r *OrderRepository) GetByID(id int64) (*models.Order, error) {
	query := `
		SELECT id, account_id, asset_id, side, price, amount, remaining_amount, status, placed_at, filled_at
		FROM orders
		WHERE id = $1`

	order := &models.Order{}
	err := r.db.QueryRow(query, id).Scan(
		&order.ID,
		&order.AccountID,
		&order.AssetID,
		&order.Side,
		&order.Price,
		&order.Amount,
		&order.RemainingAmount,
		&order.Status,
		&order.PlacedAt,
		&order.FilledAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	return order, nil
}

// FindEligible возвращает лимитные ордера, подходящие под текущую цену:
// все OPEN BUY с лимитом >= refPrice и все OPEN SELL с лимитом <= refPrice.
// Порядок внутри выборки не гарантируется сверх ORDER BY id - драйвер
// матчинга рассчитывает каждый ордер независимо, price-time priority нет.
func (r *OrderRepository) FindEligible(assetID int64, refPrice decimal.Decimal) (buys, sells []*models.Order, err error) {
	buys, err = r.findEligibleSide(assetID, models.OrderSideBuy, refPrice)
	if err != nil {
		return nil, nil, err
	}

	sells, err = r.findEligibleSide(assetID, models.OrderSideSell, refPrice)
	if err != nil {
		return nil, nil, err
	}

	return buys, sells, nil
}

func (r *OrderRepository) findEligibleSide(assetID int64, side string, refPrice decimal.Decimal) ([]*models.Order, error) {
	// для BUY лимит должен быть не ниже текущей цены, для SELL - не выше
	cmp := ">="
	if side == models.OrderSideSell {
		cmp = "<="
	}

	query := `
		SELECT id, account_id, asset_id, side, price, amount, remaining_amount, status, placed_at, filled_at
		FROM orders
		WHERE asset_id = $1 AND side = $2 AND status = $3 AND price ` + cmp + ` $4
		ORDER BY id`

	rows, err := r.db.Query(query, assetID, side, models.OrderStatusOpen, refPrice)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanOrders(rows)
}

// MarkFilled переводит ордер OPEN -> FILLED и обнуляет остаток.
// Условие status = 'OPEN' в WHERE делает переход атомарным: второй расчёт
// того же ордера не найдет строку и получит ErrOrderNotOpen.
func (r *OrderRepository) MarkFilled(tx *sql.Tx, orderID int64) error {
	if tx == nil {
		return ErrNoTransaction
	}

	query := `
		UPDATE orders
		SET status = $1, remaining_amount = 0, filled_at = $2
		WHERE id = $3 AND status = $4`

	result, err := tx.Exec(query, models.OrderStatusFilled, time.Now(), orderID, models.OrderStatusOpen)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrOrderNotOpen
	}

	return nil
}

// ListByStatus возвращает ордера аккаунта по активу и статусу
func (r *OrderRepository) ListByStatus(accountID, assetID int64, status string) ([]*models.Order, error) {
	query := `
		SELECT id, account_id, asset_id, side, price, amount, remaining_amount, status, placed_at, filled_at
		FROM orders
		WHERE account_id = $1 AND asset_id = $2 AND status = $3
		ORDER BY placed_at DESC`

	rows, err := r.db.Query(query, accountID, assetID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanOrders(rows)
}

// ListOpen возвращает нерассчитанные ордера аккаунта по активу
func (r *OrderRepository) ListOpen(accountID, assetID int64) ([]*models.Order, error) {
	return r.ListByStatus(accountID, assetID, models.OrderStatusOpen)
}

// ListFilled возвращает рассчитанные ордера аккаунта по активу
func (r *OrderRepository) ListFilled(accountID, assetID int64) ([]*models.Order, error) {
	return r.ListByStatus(accountID, assetID, models.OrderStatusFilled)
}

// CountByStatus возвращает количество ордеров в заданном статусе
func (r *OrderRepository) CountByStatus(status string) (int, error) {
	query := `SELECT COUNT(*) FROM orders WHERE status = $1`

	var count int
	err := r.db.QueryRow(query, status).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func scanOrders(rows *sql.Rows) ([]*models.Order, error) {
	var orders []*models.Order
	for rows.Next() {
		order := &models.Order{}
		err := rows.Scan(
			&order.ID,
			&order.AccountID,
			&order.AssetID,
			&order.Side,
			&order.Price,
			&order.Amount,
			&order.RemainingAmount,
			&order.Status,
			&order.PlacedAt,
			&order.FilledAt,
		)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
