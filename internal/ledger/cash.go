package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"pickcoin/internal/models"
)

// cash.go - пополнение и вывод кассового актива
//
// Та же транзакционная дисциплина, что и у расчётов: одна операция -
// одна транзакция, блокировка строки кошелька, журнал в той же транзакции.

// Deposit зачисляет сумму на кассовый кошелёк аккаунта и возвращает
// новый баланс. Сумма округляется до целых единиц кассового актива.
func (e *Engine) Deposit(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("deposit: amount %s: %w", amount, ErrInvalidArgument)
	}

	cashID, err := e.assets.CashAssetID()
	if err != nil {
		return decimal.Zero, fmt.Errorf("deposit: %w", e.mapErr(err))
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("deposit: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", e.lockTimeout.Milliseconds())); err != nil {
		return decimal.Zero, fmt.Errorf("deposit: set lock_timeout: %w", err)
	}

	if err := e.wallets.Ensure(tx, accountID, cashID); err != nil {
		return decimal.Zero, fmt.Errorf("deposit: ensure wallet: %w", e.mapErr(err))
	}

	balance, err := e.wallets.LockForUpdate(tx, accountID, cashID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("deposit: lock wallet: %w", e.mapErr(err))
	}

	sum := RoundMoney(amount)
	if err := e.wallets.ApplyDelta(tx, accountID, cashID, sum); err != nil {
		return decimal.Zero, fmt.Errorf("deposit: credit: %w", e.mapErr(err))
	}

	newBalance := balance.Add(sum)
	entry := &models.WalletLog{
		AccountID:  accountID,
		AssetID:    cashID,
		ChangeType: models.ChangeTypeDeposit,
		Delta:      sum,
		Balance:    newBalance,
	}
	if err := e.wallets.InsertLog(tx, entry); err != nil {
		return decimal.Zero, fmt.Errorf("deposit: wallet log: %w", e.mapErr(err))
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("deposit: commit: %w", err)
	}

	return newBalance, nil
}

// Withdraw списывает сумму с кассового кошелька аккаунта и возвращает
// новый баланс. Недостаточный баланс - ErrInsufficientFunds, без эффекта.
func (e *Engine) Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("withdraw: amount %s: %w", amount, ErrInvalidArgument)
	}

	cashID, err := e.assets.CashAssetID()
	if err != nil {
		return decimal.Zero, fmt.Errorf("withdraw: %w", e.mapErr(err))
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("withdraw: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", e.lockTimeout.Milliseconds())); err != nil {
		return decimal.Zero, fmt.Errorf("withdraw: set lock_timeout: %w", err)
	}

	if err := e.wallets.Ensure(tx, accountID, cashID); err != nil {
		return decimal.Zero, fmt.Errorf("withdraw: ensure wallet: %w", e.mapErr(err))
	}

	balance, err := e.wallets.LockForUpdate(tx, accountID, cashID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("withdraw: lock wallet: %w", e.mapErr(err))
	}

	sum := RoundMoney(amount)
	if balance.LessThan(sum) {
		return decimal.Zero, fmt.Errorf("withdraw: cash %s < %s: %w", balance, sum, ErrInsufficientFunds)
	}

	if err := e.wallets.ApplyDelta(tx, accountID, cashID, sum.Neg()); err != nil {
		return decimal.Zero, fmt.Errorf("withdraw: debit: %w", e.mapErr(err))
	}

	newBalance := balance.Sub(sum)
	entry := &models.WalletLog{
		AccountID:  accountID,
		AssetID:    cashID,
		ChangeType: models.ChangeTypeWithdraw,
		Delta:      sum.Neg(),
		Balance:    newBalance,
	}
	if err := e.wallets.InsertLog(tx, entry); err != nil {
		return decimal.Zero, fmt.Errorf("withdraw: wallet log: %w", e.mapErr(err))
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("withdraw: commit: %w", err)
	}

	return newBalance, nil
}
