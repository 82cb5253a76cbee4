package models

import "time"

// Asset представляет торгуемый инструмент или кассовый актив
type Asset struct {
	ID        int64     `json:"id" db:"id"`
	Symbol    string    `json:"symbol" db:"symbol"` // BTC, ETH, KRW
	Name      string    `json:"name" db:"name"`
	IsCash    bool      `json:"is_cash" db:"is_cash"` // true ровно для одного актива
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
