package ledger

import "errors"

// Kind - классификация ошибок леджера.
// Используется API-слоем для выбора HTTP статуса и клиентами для
// различения ожидаемых отказов (нехватка средств, повторный расчёт)
// от дефектов программирования.
type Kind string

const (
	// KindInvalidArgument - неположительные цена/количество или неизвестная сторона
	KindInvalidArgument Kind = "invalid_argument"
	// KindInsufficientFunds - проверка достаточности баланса/количества не прошла
	KindInsufficientFunds Kind = "insufficient_funds"
	// KindInvalidState - расчёт ордера не в состоянии OPEN (защита от двойного расчёта)
	KindInvalidState Kind = "invalid_state"
	// KindPreconditionViolated - блокировка вызвана вне транзакции.
	// Дефект программирования: не ретраить, операция фатальна.
	KindPreconditionViolated Kind = "precondition_violated"
	// KindLockTimeout - ограниченное ожидание блокировки строки истекло
	KindLockTimeout Kind = "lock_timeout"
	// KindNotFound - ордер/актив/кошелёк не найден
	KindNotFound Kind = "not_found"
	// KindInternal - прочие ошибки хранилища и инфраструктуры
	KindInternal Kind = "internal"
)

// Error - ошибка леджера с классификацией.
// Сентинельные значения ниже сравниваются через errors.Is и могут
// оборачиваться с контекстом через fmt.Errorf("...: %w", ...).
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Сентинельные ошибки леджера
var (
	ErrInvalidArgument      = &Error{KindInvalidArgument, "price and amount must be positive"}
	ErrInvalidSide          = &Error{KindInvalidArgument, "side must be BUY or SELL"}
	ErrInsufficientFunds    = &Error{KindInsufficientFunds, "insufficient funds"}
	ErrInvalidState         = &Error{KindInvalidState, "order is not open"}
	ErrPreconditionViolated = &Error{KindPreconditionViolated, "operation requires an active transaction"}
	ErrLockTimeout          = &Error{KindLockTimeout, "wallet lock wait timed out"}
	ErrNotFound             = &Error{KindNotFound, "not found"}
)

// KindOf возвращает классификацию произвольной ошибки.
// Для ошибок, не порождённых леджером, возвращает KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
