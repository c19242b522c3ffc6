package v1

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"pincode-pricing/internal/domain"
	"pincode-pricing/pkg/logger"
	"pincode-pricing/pkg/utils"

	"github.com/goccy/go-json"
)

const maxRequestBody = 1 << 20

type PricingHandler struct {
	pricingUC domain.PincodePricingUsecase
	now       func() time.Time
}

func NewPricingHandler(uc domain.PincodePricingUsecase) *PricingHandler {
	return &PricingHandler{pricingUC: uc, now: time.Now}
}

type itemSetRequest struct {
	ItemIDs []string `json:"item_ids"`
	Pincode string   `json:"pincode"`
}

// GET /api/v1/pricing/{itemId}?pincode=110001&nocache=true
func (h *PricingHandler) GetPrice(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("itemId")
	pincode := r.URL.Query().Get("pincode")
	if strings.TrimSpace(pincode) == "" {
		utils.WriteError(w, http.StatusBadRequest, "pincode query parameter is required")
		return
	}
	useCache := !utils.ParseBool(r.URL.Query().Get("nocache"), false)

	res, err := h.pricingUC.GetPrice(r.Context(), itemID, pincode, useCache)
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}

	if !res.Available {
		utils.WriteJSON(w, http.StatusNotFound, utils.Envelope{Success: false, Message: string(res.Reason), Data: res})
		return
	}
	utils.WriteData(w, http.StatusOK, res, nil)
}

// POST /api/v1/pricing/bulk
func (h *PricingHandler) BulkGetPrices(w http.ResponseWriter, r *http.Request) {
	var req itemSetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.pricingUC.BulkGetPrices(r.Context(), req.ItemIDs, req.Pincode)
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	utils.WriteData(w, http.StatusOK, result, map[string]int{
		"resolved":    len(result.Resolved),
		"unavailable": len(result.Unavailable),
	})
}

// POST /api/v1/pricing/availability
func (h *PricingHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req itemSetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	avail, err := h.pricingUC.CheckAvailabilityOnly(r.Context(), req.ItemIDs, req.Pincode)
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	utils.WriteData(w, http.StatusOK, avail, nil)
}

type serviceabilityResponse struct {
	domain.Serviceability
	EstimatedDelivery string `json:"estimatedDeliveryDate,omitempty"`
}

// GET /api/v1/pincodes/{code}
func (h *PricingHandler) CheckServiceability(w http.ResponseWriter, r *http.Request) {
	svc, err := h.pricingUC.CheckServiceability(r.Context(), r.PathValue("code"))
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}

	resp := serviceabilityResponse{Serviceability: svc}
	if svc.Serviceable {
		resp.EstimatedDelivery = svc.EstimatedDelivery(h.now()).Format("2006-01-02")
	}
	utils.WriteData(w, http.StatusOK, resp, nil)
}

type pincodeBatchRequest struct {
	Pincodes []string `json:"pincodes"`
}

// POST /api/v1/pincodes/check
func (h *PricingHandler) CheckServiceabilityBulk(w http.ResponseWriter, r *http.Request) {
	var req pincodeBatchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	found, err := h.pricingUC.CheckServiceabilityBulk(r.Context(), req.Pincodes)
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}

	now := h.now()
	resp := make(map[string]serviceabilityResponse, len(found))
	serviceable := 0
	for code, svc := range found {
		entry := serviceabilityResponse{Serviceability: svc}
		if svc.Serviceable {
			entry.EstimatedDelivery = svc.EstimatedDelivery(now).Format("2006-01-02")
			serviceable++
		}
		resp[code] = entry
	}
	utils.WriteData(w, http.StatusOK, resp, map[string]int{
		"count":       len(resp),
		"serviceable": serviceable,
	})
}

// GET /api/v1/pincodes/search?q=delhi
func (h *PricingHandler) SearchLocations(w http.ResponseWriter, r *http.Request) {
	rows, err := h.pricingUC.SearchLocations(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeUsecaseError(w, r, err)
		return
	}
	utils.WriteData(w, http.StatusOK, rows, map[string]int{"count": len(rows)})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// writeUsecaseError maps caller mistakes to 400 and everything else to 500
// without leaking the underlying error.
func writeUsecaseError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrInvalidInput) {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	logger.WithContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Pricing request failed")
	utils.WriteError(w, http.StatusInternalServerError, "Internal server error")
}
