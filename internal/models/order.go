package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Стороны ордера
const (
	OrderSideBuy  = "BUY"
	OrderSideSell = "SELL"
)

// Статусы ордера
//
// Машина состояний: OPEN --расчёт--> FILLED. Других переходов нет.
// CANCELLED зарезервирован под отмену ордеров, сейчас не используется.
const (
	OrderStatusOpen      = "OPEN"
	OrderStatusFilled    = "FILLED"
	OrderStatusCancelled = "CANCELLED"
)

// Order представляет ордер на покупку или продажу.
// remaining_amount стартует равным amount; расчёт всегда исполняет весь
// остаток, поэтому успешный расчёт обнуляет remaining_amount и переводит
// ордер в FILLED. После FILLED запись неизменяема.
type Order struct {
	ID              int64           `json:"id" db:"id"`
	AccountID       int64           `json:"account_id" db:"account_id"`
	AssetID         int64           `json:"asset_id" db:"asset_id"`
	Side            string          `json:"side" db:"side"` // BUY, SELL
	Price           decimal.Decimal `json:"price" db:"price"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount" db:"remaining_amount"`
	Status          string          `json:"status" db:"status"`
	PlacedAt        time.Time       `json:"placed_at" db:"placed_at"`
	FilledAt        *time.Time      `json:"filled_at,omitempty" db:"filled_at"`
}

// IsOpen сообщает, может ли ордер ещё участвовать в расчёте
func (o *Order) IsOpen() bool {
	return o.Status == OrderStatusOpen
}
