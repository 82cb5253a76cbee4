package service

import (
	"context"
	"log"

	"github.com/shopspring/decimal"
)

// BalanceBroadcaster - интерфейс для отправки обновлений балансов через WebSocket
type BalanceBroadcaster interface {
	BroadcastBalanceUpdate(accountID, assetID int64, balance decimal.Decimal)
}

// DepositService - пополнение и вывод кассового актива.
// Валидация и блокировки выполняются движком расчётов; сервис добавляет
// журналирование операций и рассылку нового баланса подключенным клиентам.
type DepositService struct {
	engine SettlementEngine
	assets AssetRepositoryInterface

	// WebSocket hub для broadcast балансов
	wsHub BalanceBroadcaster
}

// NewDepositService создает новый экземпляр сервиса депозитов
func NewDepositService(engine SettlementEngine, assets AssetRepositoryInterface) *DepositService {
	return &DepositService{engine: engine, assets: assets}
}

// SetWebSocketHub устанавливает WebSocket hub для broadcast балансов.
// Должен вызываться после создания сервиса:
//
//	depositService := service.NewDepositService(...)
//	depositService.SetWebSocketHub(wsHub)
func (s *DepositService) SetWebSocketHub(hub BalanceBroadcaster) {
	s.wsHub = hub
}

// Deposit зачисляет сумму на кассовый кошелёк и возвращает новый баланс
func (s *DepositService) Deposit(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	balance, err := s.engine.Deposit(ctx, accountID, amount)
	if err != nil {
		return decimal.Zero, err
	}

	log.Printf("Account %d deposit %s, balance %s", accountID, amount, balance)
	s.broadcastBalance(accountID, balance)
	return balance, nil
}

// Withdraw списывает сумму с кассового кошелька и возвращает новый баланс
func (s *DepositService) Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	balance, err := s.engine.Withdraw(ctx, accountID, amount)
	if err != nil {
		return decimal.Zero, err
	}

	log.Printf("Account %d withdraw %s, balance %s", accountID, amount, balance)
	s.broadcastBalance(accountID, balance)
	return balance, nil
}

func (s *DepositService) broadcastBalance(accountID int64, balance decimal.Decimal) {
	if s.wsHub == nil {
		return
	}

	cashID, err := s.assets.CashAssetID()
	if err != nil {
		log.Printf("Cannot broadcast balance update: %v", err)
		return
	}

	s.wsHub.BroadcastBalanceUpdate(accountID, cashID, balance)
}
