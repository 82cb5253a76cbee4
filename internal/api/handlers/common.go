package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"pickcoin/internal/ledger"
	"pickcoin/internal/repository"
)

// ErrorResponse стандартный формат ответа об ошибке для всех API endpoints
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse стандартный формат успешного ответа
type SuccessResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// writeJSON сериализует payload и пишет ответ с заданным статусом
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("Failed to encode response: %v", err)
		}
	}
}

// writeError переводит ошибку леджера в HTTP статус и стандартный формат.
// Ожидаемые отказы (нехватка средств, повторный расчёт) получают 4xx,
// дефекты программирования и ошибки хранилища - 5xx.
func writeError(w http.ResponseWriter, err error) {
	kind := ledger.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case ledger.KindInvalidArgument:
		status = http.StatusBadRequest
	case ledger.KindInsufficientFunds:
		status = http.StatusUnprocessableEntity
	case ledger.KindInvalidState:
		status = http.StatusConflict
	case ledger.KindLockTimeout:
		status = http.StatusServiceUnavailable
	case ledger.KindNotFound:
		status = http.StatusNotFound
	case ledger.KindInternal:
		// репозиторные not found вне транзакций расчёта
		if errors.Is(err, repository.ErrOrderNotFound) ||
			errors.Is(err, repository.ErrAssetNotFound) ||
			errors.Is(err, repository.ErrTradeNotFound) {
			status = http.StatusNotFound
			kind = ledger.KindNotFound
		}
	}

	if status == http.StatusInternalServerError {
		// детали внутренних ошибок в лог, клиенту - общий ответ
		log.Printf("Internal error: %v", err)
		writeJSON(w, status, ErrorResponse{Error: "internal server error", Code: string(kind)})
		return
	}

	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: string(kind)})
}
