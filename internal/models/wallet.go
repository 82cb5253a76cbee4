package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet - баланс одного актива одного аккаунта.
// Уникален по паре (account_id, asset_id). Создаётся лениво при первом
// обращении, никогда не удаляется. Баланс мутирует только движок расчётов.
type Wallet struct {
	ID        int64           `json:"id" db:"id"`
	AccountID int64           `json:"account_id" db:"account_id"`
	AssetID   int64           `json:"asset_id" db:"asset_id"`
	Balance   decimal.Decimal `json:"balance" db:"balance"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// Holding - позиция портфеля: некассовый кошелёк с положительным балансом
type Holding struct {
	AssetID     int64           `json:"asset_id" db:"asset_id"`
	AssetSymbol string          `json:"asset_symbol" db:"asset_symbol"`
	Balance     decimal.Decimal `json:"balance" db:"balance"`
}

// Типы изменений кошелька для журнала wallet_logs
const (
	ChangeTypeBuy      = "BUY"      // зачисление монет при покупке
	ChangeTypeSell     = "SELL"     // списание монет при продаже
	ChangeTypeBuyFee   = "BUY_FEE"  // списание кассового актива при покупке (нетто с комиссией)
	ChangeTypeSellFee  = "SELL_FEE" // зачисление кассового актива при продаже (нетто с комиссией)
	ChangeTypeDeposit  = "DEPOSIT"  // пополнение кассового актива
	ChangeTypeWithdraw = "WITHDRAW" // вывод кассового актива
)

// WalletLog - одна append-only запись журнала изменений кошелька.
// Пишется в той же транзакции, что и изменение баланса.
type WalletLog struct {
	ID         int64           `json:"id" db:"id"`
	AccountID  int64           `json:"account_id" db:"account_id"`
	AssetID    int64           `json:"asset_id" db:"asset_id"`
	TradeID    *int64          `json:"trade_id,omitempty" db:"trade_id"` // nil для депозитов/выводов
	ChangeType string          `json:"change_type" db:"change_type"`
	Delta      decimal.Decimal `json:"delta" db:"delta"`
	Balance    decimal.Decimal `json:"balance" db:"balance"` // баланс после изменения
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
