package websocket

import (
	"time"

	"github.com/shopspring/decimal"

	"pickcoin/internal/models"
)

// MessageType определяет тип WebSocket сообщения
type MessageType string

// Типы WebSocket сообщений
const (
	// MessageTypeTradeExecuted - исполнение ордера
	// Отправляется после успешного расчёта сделки
	MessageTypeTradeExecuted MessageType = "tradeExecuted"

	// MessageTypePriceTick - новая референсная цена актива
	// Отправляется на каждый обработанный тик цены
	MessageTypePriceTick MessageType = "priceTick"

	// MessageTypeBalanceUpdate - изменение баланса кошелька
	// Отправляется после депозита или вывода
	MessageTypeBalanceUpdate MessageType = "balanceUpdate"
)

// BaseMessage - базовая структура для всех WebSocket сообщений
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

// TradeExecutedMessage - сообщение об исполнении ордера
type TradeExecutedMessage struct {
	BaseMessage
	Data *TradeExecutedData `json:"data"`
}

// TradeExecutedData - данные сделки
type TradeExecutedData struct {
	// ID сделки в БД
	TradeID int64 `json:"trade_id"`

	// ID исполненного ордера
	OrderID int64 `json:"order_id"`

	// Цена исполнения
	Price decimal.Decimal `json:"price"`

	// Исполненный объем
	Amount decimal.Decimal `json:"amount"`

	// Удержанная комиссия
	Fee decimal.Decimal `json:"fee"`

	// Время исполнения
	ExecutedAt time.Time `json:"executed_at"`
}

// PriceTickMessage - сообщение о новой референсной цене
type PriceTickMessage struct {
	BaseMessage
	AssetID int64           `json:"asset_id"`
	Price   decimal.Decimal `json:"price"`
}

// BalanceUpdateMessage - сообщение об изменении баланса кошелька
type BalanceUpdateMessage struct {
	BaseMessage
	AccountID int64           `json:"account_id"`
	AssetID   int64           `json:"asset_id"`
	Balance   decimal.Decimal `json:"balance"`
}

// NewTradeExecutedMessage создает сообщение об исполнении ордера
func NewTradeExecutedMessage(trade *models.Trade) *TradeExecutedMessage {
	return &TradeExecutedMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeTradeExecuted,
			Timestamp: time.Now(),
		},
		Data: &TradeExecutedData{
			TradeID:    trade.ID,
			OrderID:    trade.OrderID,
			Price:      trade.Price,
			Amount:     trade.Amount,
			Fee:        trade.Fee,
			ExecutedAt: trade.ExecutedAt,
		},
	}
}

// NewPriceTickMessage создает сообщение о новой цене актива
func NewPriceTickMessage(assetID int64, price decimal.Decimal) *PriceTickMessage {
	return &PriceTickMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypePriceTick,
			Timestamp: time.Now(),
		},
		AssetID: assetID,
		Price:   price,
	}
}

// NewBalanceUpdateMessage создает сообщение об изменении баланса
func NewBalanceUpdateMessage(accountID, assetID int64, balance decimal.Decimal) *BalanceUpdateMessage {
	return &BalanceUpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeBalanceUpdate,
			Timestamp: time.Now(),
		},
		AccountID: accountID,
		AssetID:   assetID,
		Balance:   balance,
	}
}
