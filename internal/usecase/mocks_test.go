package usecase

import (
	"context"

	"pincode-pricing/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockLocationRepository is a mock implementation of domain.LocationRepository
type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) GetByCode(ctx context.Context, code string) (*domain.Location, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Location), args.Error(1)
}

func (m *MockLocationRepository) GetByCodes(ctx context.Context, codes []string) ([]domain.Location, error) {
	args := m.Called(ctx, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Location), args.Error(1)
}

func (m *MockLocationRepository) GetByZoneIDs(ctx context.Context, zoneIDs []string) ([]domain.Location, error) {
	args := m.Called(ctx, zoneIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Location), args.Error(1)
}

func (m *MockLocationRepository) Search(ctx context.Context, query string, limit int) ([]domain.Location, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Location), args.Error(1)
}

func (m *MockLocationRepository) GetStats(ctx context.Context) (*domain.LocationStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LocationStats), args.Error(1)
}

// MockPriceRepository is a mock implementation of domain.PriceRepository
type MockPriceRepository struct {
	mock.Mock
}

func (m *MockPriceRepository) GetActivePrices(ctx context.Context, itemID, zoneID string) ([]domain.Price, error) {
	args := m.Called(ctx, itemID, zoneID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Price), args.Error(1)
}

func (m *MockPriceRepository) ListActivePricesByItem(ctx context.Context, itemID string) ([]domain.Price, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Price), args.Error(1)
}

// MockPriceResolver is a mock implementation of domain.PriceResolver
type MockPriceResolver struct {
	mock.Mock
}

func (m *MockPriceResolver) Resolve(ctx context.Context, itemID, zoneID string) (*domain.Price, error) {
	args := m.Called(ctx, itemID, zoneID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Price), args.Error(1)
}

func (m *MockPriceResolver) BulkResolve(ctx context.Context, itemIDs []string, zoneID string) (map[string]*domain.Price, error) {
	args := m.Called(ctx, itemIDs, zoneID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*domain.Price), args.Error(1)
}

func (m *MockPriceResolver) ListZonesForItem(ctx context.Context, itemID string) ([]domain.Price, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Price), args.Error(1)
}

func (m *MockPriceResolver) Format(amount int64, currencyCode string) string {
	args := m.Called(amount, currencyCode)
	return args.String(0)
}

// MockPublisher is a mock implementation of domain.InvalidationPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event domain.InvalidationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func strPtr(s string) *string { return &s }

// Helper function to create the New Delhi test pincode
func newDelhiLocation() *domain.Location {
	return &domain.Location{
		Code:         "110001",
		ZoneID:       strPtr("Z1"),
		ZoneName:     "North Metro",
		City:         "New Delhi",
		Region:       "Delhi NCR",
		State:        "Delhi",
		DeliveryDays: 3,
		CODAvailable: true,
		Serviceable:  true,
	}
}
