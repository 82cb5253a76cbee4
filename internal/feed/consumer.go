package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"pickcoin/internal/config"
	"pickcoin/internal/ledger"
	"pickcoin/pkg/retry"
)

// TickHandler обрабатывает тик референсной цены
type TickHandler interface {
	OnPriceTick(ctx context.Context, assetID int64, refPrice decimal.Decimal) (*ledger.MatchResult, error)
}

// Tick - сообщение ценового фида
type Tick struct {
	AssetID int64           `json:"asset_id"`
	Price   decimal.Decimal `json:"price"`
}

// ConnectionState состояние соединения с фидом
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Consumer подключается к внешнему WebSocket фиду цен и передаёт
// каждый тик обработчику
//
// Назначение:
// Event-driven источник референсных цен для матчинга. На каждый тик
// вызывается TickHandler, который сверяет открытые ордера с новой ценой.
//
// Функции:
// - Автоматическое переподключение с exponential backoff (pkg/retry)
// - Ping для поддержания соединения, read timeout для обнаружения обрыва
// - Callback на каждый обработанный тик (broadcast в WebSocket hub)
//
// Использование:
// 1. Создать: NewConsumer(cfg.Feed, handler)
// 2. Запустить в горутине: go consumer.Run(ctx)
// 3. Остановить отменой контекста
type Consumer struct {
	cfg     config.FeedConfig
	handler TickHandler

	// atomic ConnectionState
	state int32

	// Callback на каждый успешно разобранный тик
	onTick func(Tick)
}

// NewConsumer создает нового потребителя фида
func NewConsumer(cfg config.FeedConfig, handler TickHandler) *Consumer {
	return &Consumer{
		cfg:     cfg,
		handler: handler,
	}
}

// SetOnTick устанавливает callback на обработанные тики
func (c *Consumer) SetOnTick(fn func(Tick)) {
	c.onTick = fn
}

// State возвращает текущее состояние соединения
func (c *Consumer) State() ConnectionState {
	return ConnectionState(atomic.LoadInt32(&c.state))
}

// Run подключается к фиду и читает тики до отмены контекста
//
// При обрыве соединения переподключается с задержкой ReconnectDelay.
// Каждая попытка подключения сама выполняется с retry и backoff.
func (c *Consumer) Run(ctx context.Context) error {
	defer atomic.StoreInt32(&c.state, int32(StateClosed))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		conn, err := c.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[feed] connect failed: %v, retrying in %v", err, c.cfg.ReconnectDelay)
			select {
			case <-time.After(c.cfg.ReconnectDelay):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		atomic.StoreInt32(&c.state, int32(StateConnected))
		log.Printf("[feed] connected to %s", c.cfg.URL)

		err = c.readLoop(ctx, conn)
		conn.Close()
		atomic.StoreInt32(&c.state, int32(StateDisconnected))

		if ctx.Err() != nil {
			return ctx.Err()
		}

		log.Printf("[feed] connection lost: %v, reconnecting in %v", err, c.cfg.ReconnectDelay)
		select {
		case <-time.After(c.cfg.ReconnectDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// connect устанавливает соединение с retry и exponential backoff
func (c *Consumer) connect(ctx context.Context) (*websocket.Conn, error) {
	atomic.StoreInt32(&c.state, int32(StateConnecting))

	retryCfg := retry.NetworkConfig()
	retryCfg.MaxRetries = c.cfg.MaxRetries
	retryCfg.InitialDelay = c.cfg.RetryBackoff
	retryCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		log.Printf("[feed] dial attempt %d failed: %v, next in %v", attempt, err, delay)
	}

	return retry.DoWithResult(ctx, func() (*websocket.Conn, error) {
		dialer := websocket.Dialer{
			HandshakeTimeout: c.cfg.ReadTimeout,
		}
		conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", c.cfg.URL, err)
		}
		return conn, nil
	}, retryCfg)
}

// readLoop читает тики до ошибки соединения или отмены контекста
func (c *Consumer) readLoop(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)

	// Ping pump: соединение считается мёртвым, если фид молчит
	// дольше ReadTimeout
	go func() {
		ticker := time.NewTicker(c.cfg.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				conn.Close()
				return
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(c.cfg.PingInterval))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))

		c.handleMessage(ctx, message)
	}
}

// handleMessage разбирает тик и передаёт его обработчику
//
// Ошибка обработки одного тика логируется и не рвёт соединение.
func (c *Consumer) handleMessage(ctx context.Context, message []byte) {
	var tick Tick
	if err := json.Unmarshal(message, &tick); err != nil {
		log.Printf("[feed] malformed tick %q: %v", message, err)
		return
	}

	if tick.AssetID <= 0 || tick.Price.Sign() <= 0 {
		log.Printf("[feed] invalid tick: asset_id=%d price=%s", tick.AssetID, tick.Price)
		return
	}

	result, err := c.handler.OnPriceTick(ctx, tick.AssetID, tick.Price)
	if err != nil {
		log.Printf("[feed] tick asset_id=%d price=%s: %v", tick.AssetID, tick.Price, err)
		return
	}

	if len(result.Errors) > 0 {
		log.Printf("[feed] tick asset_id=%d settled buys=%d sells=%d failures=%d",
			tick.AssetID, result.SettledBuys, result.SettledSells, len(result.Errors))
	}

	if c.onTick != nil {
		c.onTick(tick)
	}
}
