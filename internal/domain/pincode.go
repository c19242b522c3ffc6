package domain

import (
	"context"
	"time"
)

// Location is one serviceable postal unit (pincode).
type Location struct {
	Code         string    `json:"pincode"`
	ZoneID       *string   `json:"zoneId,omitempty"`
	ZoneName     string    `json:"zoneName,omitempty"`
	City         string    `json:"city,omitempty"`
	Region       string    `json:"region,omitempty"`
	State        string    `json:"state,omitempty"`
	DeliveryDays int       `json:"deliveryDays"`
	CODAvailable bool      `json:"codAvailable"`
	Serviceable  bool      `json:"serviceable"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Serviceability is the answer to "do we deliver to this pincode".
// Unknown, closed and malformed codes all produce Serviceable=false with no
// further detail.
type Serviceability struct {
	Code         string `json:"pincode"`
	Serviceable  bool   `json:"serviceable"`
	ZoneID       string `json:"zoneId,omitempty"`
	DeliveryDays int    `json:"deliveryDays,omitempty"`
	CODAvailable bool   `json:"codAvailable"`
	City         string `json:"city,omitempty"`
	Region       string `json:"region,omitempty"`
	State        string `json:"state,omitempty"`
}

// Priceable reports whether prices can be looked up for the location:
// it must be serviceable and mapped to a zone.
func (s Serviceability) Priceable() bool {
	return s.Serviceable && s.ZoneID != ""
}

// EstimatedDelivery returns the expected delivery date for an order placed at now.
func (s Serviceability) EstimatedDelivery(now time.Time) time.Time {
	return now.AddDate(0, 0, s.DeliveryDays)
}

// NotServiceable is the uniform negative answer for a code.
func NotServiceable(code string) Serviceability {
	return Serviceability{Code: code}
}

// ServiceabilityFromLocation maps a stored location to its public answer.
func ServiceabilityFromLocation(l *Location) Serviceability {
	if l == nil || !l.Serviceable {
		return NotServiceable(codeOf(l))
	}
	s := Serviceability{
		Code:         l.Code,
		Serviceable:  true,
		DeliveryDays: l.DeliveryDays,
		CODAvailable: l.CODAvailable,
		City:         l.City,
		Region:       l.Region,
		State:        l.State,
	}
	if l.ZoneID != nil {
		s.ZoneID = *l.ZoneID
	}
	return s
}

func codeOf(l *Location) string {
	if l == nil {
		return ""
	}
	return l.Code
}

type LocationStats struct {
	Total            int64   `json:"total"`
	ServiceableCount int64   `json:"serviceableCount"`
	CODAvailable     int64   `json:"codAvailableCount"`
	AvgDeliveryDays  float64 `json:"avgDeliveryDays"`
	DistinctRegions  int64   `json:"distinctRegions"`
}

type LocationRepository interface {
	// GetByCode returns nil, nil when the code is not registered.
	GetByCode(ctx context.Context, code string) (*Location, error)
	GetByCodes(ctx context.Context, codes []string) ([]Location, error)
	GetByZoneIDs(ctx context.Context, zoneIDs []string) ([]Location, error)
	Search(ctx context.Context, query string, limit int) ([]Location, error)
	GetStats(ctx context.Context) (*LocationStats, error)
}

// LocationRegistry is the authoritative serviceability and zone lookup.
type LocationRegistry interface {
	// Normalize trims and validates a raw code; ok is false for malformed input.
	Normalize(raw string) (code string, ok bool)
	// CheckServiceability never errors for unknown codes. On a datastore
	// error it returns a not-serviceable answer together with the error.
	CheckServiceability(ctx context.Context, code string) (Serviceability, error)
	BulkLookup(ctx context.Context, codes []string) (map[string]Serviceability, error)
	Search(ctx context.Context, query string) ([]Location, error)
	ZoneLocations(ctx context.Context, zoneIDs []string) ([]Location, error)
	Statistics(ctx context.Context) (*LocationStats, error)
}
