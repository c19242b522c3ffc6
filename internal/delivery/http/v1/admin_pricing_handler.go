package v1

import (
	"net/http"

	"pincode-pricing/internal/domain"
	"pincode-pricing/pkg/logger"
	"pincode-pricing/pkg/utils"
)

type AdminPricingHandler struct {
	pricingUC domain.PincodePricingUsecase
}

func NewAdminPricingHandler(uc domain.PincodePricingUsecase) *AdminPricingHandler {
	return &AdminPricingHandler{pricingUC: uc}
}

// GET /api/v1/admin/pricing/items/{itemId}/locations
func (h *AdminPricingHandler) ListItemLocations(w http.ResponseWriter, r *http.Request) {
	rows, err := h.pricingUC.ListLocationsForItem(r.Context(), r.PathValue("itemId"))
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	utils.WriteData(w, http.StatusOK, rows, map[string]int{"count": len(rows)})
}

// GET /api/v1/admin/pricing/stats
func (h *AdminPricingHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.pricingUC.Statistics(r.Context())
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	utils.WriteData(w, http.StatusOK, stats, nil)
}

// POST /api/v1/admin/pricing/invalidate {"item_id": "...", "pincode": "..."}
func (h *AdminPricingHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID  string `json:"item_id"`
		Pincode string `json:"pincode"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	removed, err := h.pricingUC.Invalidate(r.Context(), req.ItemID, req.Pincode)
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}

	logger.WithContext(r.Context()).Info().
		Str("item_id", req.ItemID).
		Str("pincode", req.Pincode).
		Int("removed", removed).
		Msg("Admin invalidated price cache")
	utils.WriteData(w, http.StatusOK, map[string]int{"removed": removed}, nil)
}

// DELETE /api/v1/admin/pricing/cache
func (h *AdminPricingHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.pricingUC.ClearAll(r.Context()); err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
