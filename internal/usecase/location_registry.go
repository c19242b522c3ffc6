package usecase

import (
	"context"
	"fmt"
	"strings"

	"pincode-pricing/internal/domain"
)

const searchResultLimit = 20

type locationRegistry struct {
	repo       domain.LocationRepository
	codeLength int
}

// NewLocationRegistry serves pincode lookups. codeLength is the exact number
// of digits a valid pincode has.
func NewLocationRegistry(repo domain.LocationRepository, codeLength int) domain.LocationRegistry {
	return &locationRegistry{
		repo:       repo,
		codeLength: codeLength,
	}
}

func (r *locationRegistry) Normalize(raw string) (string, bool) {
	code := strings.TrimSpace(raw)
	if len(code) != r.codeLength {
		return "", false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return "", false
		}
	}
	return code, true
}

func (r *locationRegistry) CheckServiceability(ctx context.Context, code string) (domain.Serviceability, error) {
	normalized, ok := r.Normalize(code)
	if !ok {
		return domain.NotServiceable(strings.TrimSpace(code)), nil
	}

	loc, err := r.repo.GetByCode(ctx, normalized)
	if err != nil {
		// Showing "not available" beats trusting partial data.
		return domain.NotServiceable(normalized), fmt.Errorf("failed to look up pincode %s: %w", normalized, err)
	}
	if loc == nil {
		return domain.NotServiceable(normalized), nil
	}
	return domain.ServiceabilityFromLocation(loc), nil
}

func (r *locationRegistry) BulkLookup(ctx context.Context, codes []string) (map[string]domain.Serviceability, error) {
	result := make(map[string]domain.Serviceability, len(codes))
	valid := make([]string, 0, len(codes))
	for _, raw := range codes {
		code, ok := r.Normalize(raw)
		if !ok {
			trimmed := strings.TrimSpace(raw)
			result[trimmed] = domain.NotServiceable(trimmed)
			continue
		}
		if _, seen := result[code]; seen {
			continue
		}
		result[code] = domain.NotServiceable(code)
		valid = append(valid, code)
	}

	if len(valid) == 0 {
		return result, nil
	}

	locations, err := r.repo.GetByCodes(ctx, valid)
	if err != nil {
		return result, fmt.Errorf("failed to look up %d pincodes: %w", len(valid), err)
	}
	for i := range locations {
		result[locations[i].Code] = domain.ServiceabilityFromLocation(&locations[i])
	}
	return result, nil
}

func (r *locationRegistry) Search(ctx context.Context, query string) ([]domain.Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Location{}, nil
	}
	return r.repo.Search(ctx, query, searchResultLimit)
}

func (r *locationRegistry) ZoneLocations(ctx context.Context, zoneIDs []string) ([]domain.Location, error) {
	return r.repo.GetByZoneIDs(ctx, zoneIDs)
}

func (r *locationRegistry) Statistics(ctx context.Context) (*domain.LocationStats, error) {
	return r.repo.GetStats(ctx)
}
