package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade - запись истории сделок: одна строка на событие расчёта.
// Append-only, после вставки не изменяется. Владеет ею движок расчётов.
type Trade struct {
	ID         int64           `json:"id" db:"id"`
	OrderID    int64           `json:"order_id" db:"order_id"`
	Price      decimal.Decimal `json:"price" db:"price"`   // цена исполнения
	Amount     decimal.Decimal `json:"amount" db:"amount"` // исполненное количество
	Fee        decimal.Decimal `json:"fee" db:"fee"`       // комиссия в кассовом активе
	ExecutedAt time.Time       `json:"executed_at" db:"executed_at"`
}
