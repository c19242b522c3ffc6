package domain

import (
	"context"
	"errors"

	"pincode-pricing/pkg/cache"
)

// ErrInvalidInput marks caller mistakes such as a missing item id.
var ErrInvalidInput = errors.New("invalid input")

type UnavailableReason string

const (
	ReasonInvalidLocation UnavailableReason = "invalid_location"
	ReasonNotServiceable  UnavailableReason = "not_serviceable"
	ReasonItemNotPriced   UnavailableReason = "item_not_priced"
)

// ResolvedPrice is the composed answer for a priced item at a pincode.
type ResolvedPrice struct {
	Amount       int64  `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
	Formatted    string `json:"formatted"`
	DeliveryDays int    `json:"deliveryDays"`
	CODAvailable bool   `json:"codAvailable"`
	ZoneID       string `json:"zoneId"`
	LocationCode string `json:"pincode"`
	City         string `json:"city,omitempty"`
	Region       string `json:"region,omitempty"`
	State        string `json:"state,omitempty"`
}

// Resolution is either Available with a Price, or unavailable with a Reason.
type Resolution struct {
	ItemID       string            `json:"itemId"`
	LocationCode string            `json:"pincode"`
	Available    bool              `json:"available"`
	Serviceable  bool              `json:"serviceable"`
	Reason       UnavailableReason `json:"reason,omitempty"`
	Price        *ResolvedPrice    `json:"price,omitempty"`
}

func Unavailable(itemID, code string, reason UnavailableReason, serviceable bool) Resolution {
	return Resolution{
		ItemID:       itemID,
		LocationCode: code,
		Reason:       reason,
		Serviceable:  serviceable,
	}
}

func Resolved(itemID string, price ResolvedPrice) Resolution {
	return Resolution{
		ItemID:       itemID,
		LocationCode: price.LocationCode,
		Available:    true,
		Serviceable:  true,
		Price:        &price,
	}
}

type BulkPriceResult struct {
	LocationCode          string                   `json:"pincode"`
	Resolved              map[string]ResolvedPrice `json:"resolved"`
	Unavailable           []string                 `json:"unavailable"`
	LocationUnserviceable bool                     `json:"locationUnserviceable"`
}

// LocationPriceSummary is one row of the "where is this item sold" view.
type LocationPriceSummary struct {
	LocationCode string `json:"pincode"`
	City         string `json:"city,omitempty"`
	Region       string `json:"region,omitempty"`
	State        string `json:"state,omitempty"`
	ZoneID       string `json:"zoneId"`
	ZoneName     string `json:"zoneName,omitempty"`
	Amount       int64  `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
	Formatted    string `json:"formatted"`
	DeliveryDays int    `json:"deliveryDays"`
	CODAvailable bool   `json:"codAvailable"`
	Serviceable  bool   `json:"serviceable"`
}

type PricingStats struct {
	Locations LocationStats `json:"locations"`
	Cache     cache.Stats   `json:"cache"`
}

// InvalidationEvent names the cache scope to drop. Empty fields widen the
// scope; both empty clears everything.
type InvalidationEvent struct {
	ItemID       string `json:"itemId,omitempty"`
	LocationCode string `json:"pincode,omitempty"`
	Origin       string `json:"origin,omitempty"`
}

// InvalidationPublisher fans invalidations out to other instances.
type InvalidationPublisher interface {
	Publish(ctx context.Context, event InvalidationEvent) error
}

type PincodePricingUsecase interface {
	GetPrice(ctx context.Context, itemID, rawCode string, useCache bool) (Resolution, error)
	BulkGetPrices(ctx context.Context, itemIDs []string, rawCode string) (*BulkPriceResult, error)
	CheckAvailabilityOnly(ctx context.Context, itemIDs []string, rawCode string) (map[string]bool, error)
	CheckServiceability(ctx context.Context, rawCode string) (Serviceability, error)
	CheckServiceabilityBulk(ctx context.Context, rawCodes []string) (map[string]Serviceability, error)
	ListLocationsForItem(ctx context.Context, itemID string) ([]LocationPriceSummary, error)
	SearchLocations(ctx context.Context, query string) ([]Location, error)
	Statistics(ctx context.Context) (*PricingStats, error)
	Invalidate(ctx context.Context, itemID, rawCode string) (int, error)
	ClearAll(ctx context.Context) error
}
