package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pincode-pricing/internal/domain"
	"pincode-pricing/pkg/utils"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPricingUsecase struct {
	mock.Mock
}

func (m *MockPricingUsecase) GetPrice(ctx context.Context, itemID, rawCode string, useCache bool) (domain.Resolution, error) {
	args := m.Called(ctx, itemID, rawCode, useCache)
	return args.Get(0).(domain.Resolution), args.Error(1)
}

func (m *MockPricingUsecase) BulkGetPrices(ctx context.Context, itemIDs []string, rawCode string) (*domain.BulkPriceResult, error) {
	args := m.Called(ctx, itemIDs, rawCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BulkPriceResult), args.Error(1)
}

func (m *MockPricingUsecase) CheckAvailabilityOnly(ctx context.Context, itemIDs []string, rawCode string) (map[string]bool, error) {
	args := m.Called(ctx, itemIDs, rawCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *MockPricingUsecase) CheckServiceability(ctx context.Context, rawCode string) (domain.Serviceability, error) {
	args := m.Called(ctx, rawCode)
	return args.Get(0).(domain.Serviceability), args.Error(1)
}

func (m *MockPricingUsecase) CheckServiceabilityBulk(ctx context.Context, rawCodes []string) (map[string]domain.Serviceability, error) {
	args := m.Called(ctx, rawCodes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Serviceability), args.Error(1)
}

func (m *MockPricingUsecase) ListLocationsForItem(ctx context.Context, itemID string) ([]domain.LocationPriceSummary, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LocationPriceSummary), args.Error(1)
}

func (m *MockPricingUsecase) SearchLocations(ctx context.Context, query string) ([]domain.Location, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Location), args.Error(1)
}

func (m *MockPricingUsecase) Statistics(ctx context.Context) (*domain.PricingStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PricingStats), args.Error(1)
}

func (m *MockPricingUsecase) Invalidate(ctx context.Context, itemID, rawCode string) (int, error) {
	args := m.Called(ctx, itemID, rawCode)
	return args.Int(0), args.Error(1)
}

func (m *MockPricingUsecase) ClearAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newTestMux(uc domain.PincodePricingUsecase) *http.ServeMux {
	h := NewPricingHandler(uc)
	h.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }
	admin := NewAdminPricingHandler(uc)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/pricing/{itemId}", h.GetPrice)
	mux.HandleFunc("POST /api/v1/pricing/bulk", h.BulkGetPrices)
	mux.HandleFunc("POST /api/v1/pricing/availability", h.CheckAvailability)
	mux.HandleFunc("GET /api/v1/pincodes/search", h.SearchLocations)
	mux.HandleFunc("POST /api/v1/pincodes/check", h.CheckServiceabilityBulk)
	mux.HandleFunc("GET /api/v1/pincodes/{code}", h.CheckServiceability)
	mux.HandleFunc("GET /api/v1/admin/pricing/items/{itemId}/locations", admin.ListItemLocations)
	mux.HandleFunc("GET /api/v1/admin/pricing/stats", admin.GetStats)
	mux.HandleFunc("POST /api/v1/admin/pricing/invalidate", admin.Invalidate)
	mux.HandleFunc("DELETE /api/v1/admin/pricing/cache", admin.ClearCache)
	return mux
}

func serve(mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env
}

func TestGetPriceHandler(t *testing.T) {
	uc := new(MockPricingUsecase)
	resolved := domain.Resolved("P1", domain.ResolvedPrice{Amount: 99900, CurrencyCode: "inr", LocationCode: "110001"})
	uc.On("GetPrice", mock.Anything, "P1", "110001", true).Return(resolved, nil)
	uc.On("GetPrice", mock.Anything, "P1", "110001", false).Return(resolved, nil)
	uc.On("GetPrice", mock.Anything, "P2", "110001", true).
		Return(domain.Unavailable("P2", "110001", domain.ReasonItemNotPriced, true), nil)
	uc.On("GetPrice", mock.Anything, "P1", "12", true).
		Return(domain.Unavailable("P1", "12", domain.ReasonInvalidLocation, false), nil)
	uc.On("GetPrice", mock.Anything, "P3", "110001", true).
		Return(domain.Resolution{}, errors.New("db down"))
	mux := newTestMux(uc)

	rr := serve(mux, http.MethodGet, "/api/v1/pricing/P1?pincode=110001", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	env := decodeEnvelope(t, rr)
	assert.Equal(t, true, env["success"])
	data := env["data"].(map[string]interface{})
	assert.Equal(t, true, data["available"])

	rr = serve(mux, http.MethodGet, "/api/v1/pricing/P1?pincode=110001&nocache=true", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = serve(mux, http.MethodGet, "/api/v1/pricing/P2?pincode=110001", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "item_not_priced", decodeEnvelope(t, rr)["message"])

	rr = serve(mux, http.MethodGet, "/api/v1/pricing/P1?pincode=12", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "invalid_location", decodeEnvelope(t, rr)["message"])

	rr = serve(mux, http.MethodGet, "/api/v1/pricing/P1", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(mux, http.MethodGet, "/api/v1/pricing/P3?pincode=110001", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "db down")

	uc.AssertExpectations(t)
}

func TestBulkGetPricesHandler(t *testing.T) {
	uc := new(MockPricingUsecase)
	uc.On("BulkGetPrices", mock.Anything, []string{"P1", "P2"}, "110001").Return(&domain.BulkPriceResult{
		LocationCode: "110001",
		Resolved:     map[string]domain.ResolvedPrice{"P1": {Amount: 100}},
		Unavailable:  []string{"P2"},
	}, nil)
	uc.On("BulkGetPrices", mock.Anything, []string{}, "110001").
		Return(nil, domain.ErrInvalidInput)
	mux := newTestMux(uc)

	rr := serve(mux, http.MethodPost, "/api/v1/pricing/bulk", `{"item_ids":["P1","P2"],"pincode":"110001"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	meta := decodeEnvelope(t, rr)["meta"].(map[string]interface{})
	assert.Equal(t, float64(1), meta["resolved"])
	assert.Equal(t, float64(1), meta["unavailable"])

	rr = serve(mux, http.MethodPost, "/api/v1/pricing/bulk", `{"item_ids":[],"pincode":"110001"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(mux, http.MethodPost, "/api/v1/pricing/bulk", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCheckAvailabilityHandler(t *testing.T) {
	uc := new(MockPricingUsecase)
	uc.On("CheckAvailabilityOnly", mock.Anything, []string{"P1", "P2"}, "110001").
		Return(map[string]bool{"P1": true, "P2": false}, nil)

	rr := serve(newTestMux(uc), http.MethodPost, "/api/v1/pricing/availability", `{"item_ids":["P1","P2"],"pincode":"110001"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	data := decodeEnvelope(t, rr)["data"].(map[string]interface{})
	assert.Equal(t, true, data["P1"])
	assert.Equal(t, false, data["P2"])
}

func TestCheckServiceabilityHandler(t *testing.T) {
	uc := new(MockPricingUsecase)
	uc.On("CheckServiceability", mock.Anything, "110001").Return(domain.Serviceability{
		Code: "110001", Serviceable: true, ZoneID: "Z1", DeliveryDays: 3, CODAvailable: true,
	}, nil)
	uc.On("CheckServiceability", mock.Anything, "999999").Return(domain.NotServiceable("999999"), nil)
	mux := newTestMux(uc)

	rr := serve(mux, http.MethodGet, "/api/v1/pincodes/110001", "")
	require.Equal(t, http.StatusOK, rr.Code)
	data := decodeEnvelope(t, rr)["data"].(map[string]interface{})
	assert.Equal(t, "2026-03-13", data["estimatedDeliveryDate"])
	assert.Equal(t, true, data["serviceable"])

	rr = serve(mux, http.MethodGet, "/api/v1/pincodes/999999", "")
	require.Equal(t, http.StatusOK, rr.Code)
	data = decodeEnvelope(t, rr)["data"].(map[string]interface{})
	assert.Equal(t, false, data["serviceable"])
	assert.NotContains(t, data, "estimatedDeliveryDate")
}

func TestCheckServiceabilityBulkHandler(t *testing.T) {
	uc := new(MockPricingUsecase)
	uc.On("CheckServiceabilityBulk", mock.Anything, []string{"110001", "999999"}).
		Return(map[string]domain.Serviceability{
			"110001": {Code: "110001", Serviceable: true, ZoneID: "Z1", DeliveryDays: 3},
			"999999": domain.NotServiceable("999999"),
		}, nil)
	uc.On("CheckServiceabilityBulk", mock.Anything, []string{}).
		Return(nil, fmt.Errorf("%w: at least one pincode is required", domain.ErrInvalidInput))
	mux := newTestMux(uc)

	rr := serve(mux, http.MethodPost, "/api/v1/pincodes/check", `{"pincodes":["110001","999999"]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	env := decodeEnvelope(t, rr)
	data := env["data"].(map[string]interface{})
	open := data["110001"].(map[string]interface{})
	assert.Equal(t, true, open["serviceable"])
	assert.Equal(t, "2026-03-13", open["estimatedDeliveryDate"])
	closed := data["999999"].(map[string]interface{})
	assert.Equal(t, false, closed["serviceable"])
	assert.NotContains(t, closed, "estimatedDeliveryDate")
	meta := env["meta"].(map[string]interface{})
	assert.Equal(t, float64(2), meta["count"])
	assert.Equal(t, float64(1), meta["serviceable"])

	rr = serve(mux, http.MethodPost, "/api/v1/pincodes/check", `{"pincodes":[]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(mux, http.MethodPost, "/api/v1/pincodes/check", `{"pincodes":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSearchLocationsHandler(t *testing.T) {
	uc := new(MockPricingUsecase)
	uc.On("SearchLocations", mock.Anything, "delhi").
		Return([]domain.Location{{Code: "110001", City: "New Delhi", Serviceable: true}}, nil)
	uc.On("SearchLocations", mock.Anything, "d").Return(nil, domain.ErrInvalidInput)
	mux := newTestMux(uc)

	rr := serve(mux, http.MethodGet, "/api/v1/pincodes/search?q=delhi", "")
	require.Equal(t, http.StatusOK, rr.Code)
	meta := decodeEnvelope(t, rr)["meta"].(map[string]interface{})
	assert.Equal(t, float64(1), meta["count"])

	rr = serve(mux, http.MethodGet, "/api/v1/pincodes/search?q=d", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAdminPricingHandlers(t *testing.T) {
	uc := new(MockPricingUsecase)
	uc.On("ListLocationsForItem", mock.Anything, "P1").Return([]domain.LocationPriceSummary{
		{LocationCode: "110001", ZoneID: "Z1", Amount: 100},
	}, nil)
	uc.On("Statistics", mock.Anything).Return(&domain.PricingStats{
		Locations: domain.LocationStats{Total: 5},
	}, nil)
	uc.On("Invalidate", mock.Anything, "P1", "").Return(4, nil)
	uc.On("Invalidate", mock.Anything, "", "bad").Return(0, domain.ErrInvalidInput)
	uc.On("ClearAll", mock.Anything).Return(nil)
	mux := newTestMux(uc)

	rr := serve(mux, http.MethodGet, "/api/v1/admin/pricing/items/P1/locations", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = serve(mux, http.MethodGet, "/api/v1/admin/pricing/stats", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var env utils.Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.True(t, env.Success)

	rr = serve(mux, http.MethodPost, "/api/v1/admin/pricing/invalidate", `{"item_id":"P1"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	data := decodeEnvelope(t, rr)["data"].(map[string]interface{})
	assert.Equal(t, float64(4), data["removed"])

	rr = serve(mux, http.MethodPost, "/api/v1/admin/pricing/invalidate", `{"pincode":"bad"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(mux, http.MethodDelete, "/api/v1/admin/pricing/cache", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	uc.AssertExpectations(t)
}
