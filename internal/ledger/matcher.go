package ledger

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"pickcoin/internal/models"
)

// OrderFinder - выборка подходящих лимитных ордеров для матчинга
type OrderFinder interface {
	FindEligible(assetID int64, refPrice decimal.Decimal) (buys, sells []*models.Order, err error)
}

// Settler - расчёт одного ордера (реализуется Engine)
type Settler interface {
	SettleBuy(ctx context.Context, accountID, assetID, orderID int64, price, qty decimal.Decimal) (*models.Trade, error)
	SettleSell(ctx context.Context, accountID, assetID, orderID int64, price, qty decimal.Decimal) (*models.Trade, error)
}

// OrderError - ошибка расчёта одного ордера внутри пакета матчинга
type OrderError struct {
	OrderID int64  `json:"order_id"`
	Side    string `json:"side"`
	Err     error  `json:"-"`
	Reason  string `json:"reason"`
}

// MatchResult - итог обработки одного тика цены
type MatchResult struct {
	AssetID      int64           `json:"asset_id"`
	Price        decimal.Decimal `json:"price"`
	SettledBuys  int             `json:"settled_buys"`
	SettledSells int             `json:"settled_sells"`
	Errors       []OrderError    `json:"errors,omitempty"`
}

// Matcher - драйвер матчинга: по тику цены находит подходящие лимитные
// ордера и прогоняет каждый через движок расчётов.
//
// MVP-политика полного исполнения: каждый подходящий ордер рассчитывается
// на весь остаток по референсной цене, частичных исполнений и price-time
// priority нет.
type Matcher struct {
	orders OrderFinder
	engine Settler

	// onTrade вызывается после каждого успешного расчёта (рассылка в hub).
	// nil допустим.
	onTrade func(*models.Trade)
}

// NewMatcher создает драйвер матчинга
func NewMatcher(orders OrderFinder, engine Settler) *Matcher {
	return &Matcher{orders: orders, engine: engine}
}

// SetOnTrade устанавливает callback успешного расчёта.
// Вызывается до запуска обработки тиков.
func (m *Matcher) SetOnTrade(fn func(*models.Trade)) {
	m.onTrade = fn
}

// OnPriceTick обрабатывает тик цены по активу.
//
// Каждый ордер рассчитывается в собственной транзакции: отказ одного
// (например, баланс успел измениться) не прерывает остальные и не
// держит блокировки, нужные чужим ордерам. Ошибки по ордерам
// собираются в результат, а не прерывают пакет.
func (m *Matcher) OnPriceTick(ctx context.Context, assetID int64, refPrice decimal.Decimal) (*MatchResult, error) {
	if refPrice.Sign() <= 0 {
		return nil, fmt.Errorf("price tick asset %d: price %s: %w", assetID, refPrice, ErrInvalidArgument)
	}

	buys, sells, err := m.orders.FindEligible(assetID, refPrice)
	if err != nil {
		return nil, fmt.Errorf("price tick asset %d: find eligible: %w", assetID, err)
	}

	result := &MatchResult{AssetID: assetID, Price: refPrice}

	for _, order := range buys {
		trade, err := m.engine.SettleBuy(ctx, order.AccountID, assetID, order.ID, refPrice, order.RemainingAmount)
		if err != nil {
			result.Errors = append(result.Errors, orderError(order, err))
			continue
		}
		result.SettledBuys++
		m.notify(trade)
	}

	for _, order := range sells {
		trade, err := m.engine.SettleSell(ctx, order.AccountID, assetID, order.ID, refPrice, order.RemainingAmount)
		if err != nil {
			result.Errors = append(result.Errors, orderError(order, err))
			continue
		}
		result.SettledSells++
		m.notify(trade)
	}

	observeTick(len(buys)+len(sells), len(result.Errors))

	if len(result.Errors) > 0 {
		log.Printf("Price tick asset %d at %s: settled %d/%d, %d orders failed",
			assetID, refPrice, result.SettledBuys+result.SettledSells,
			len(buys)+len(sells), len(result.Errors))
	}

	return result, nil
}

func (m *Matcher) notify(trade *models.Trade) {
	if m.onTrade != nil {
		m.onTrade(trade)
	}
}

func orderError(order *models.Order, err error) OrderError {
	return OrderError{
		OrderID: order.ID,
		Side:    order.Side,
		Err:     err,
		Reason:  string(KindOf(err)),
	}
}
