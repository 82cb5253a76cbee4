package handlers

import (
	"net/http"

	"pickcoin/internal/service"
)

// AssetHandler отвечает за справочник активов
//
// Endpoints:
// - GET /api/v1/assets - список всех активов
type AssetHandler struct {
	tradeService *service.TradeService
}

// NewAssetHandler создает новый AssetHandler с внедрением зависимостей
func NewAssetHandler(tradeService *service.TradeService) *AssetHandler {
	return &AssetHandler{tradeService: tradeService}
}

// GetAssets возвращает список всех активов
// GET /api/v1/assets
func (h *AssetHandler) GetAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.tradeService.ListAssets(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Data: assets})
}
