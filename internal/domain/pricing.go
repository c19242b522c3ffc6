package domain

import (
	"context"
	"time"
)

// Price is one active price row for an item within a zone.
// Amount is in the currency's smallest unit.
type Price struct {
	ItemID       string    `json:"itemId"`
	ZoneID       string    `json:"zoneId"`
	ZoneName     string    `json:"zoneName,omitempty"`
	Amount       int64     `json:"amount"`
	CurrencyCode string    `json:"currencyCode"`
	CreatedAt    time.Time `json:"createdAt"`
}

type PriceRepository interface {
	// GetActivePrices returns every active row for the pair, newest first.
	// More than one row is a data anomaly the caller resolves.
	GetActivePrices(ctx context.Context, itemID, zoneID string) ([]Price, error)
	// ListActivePricesByItem returns active rows for the item across zones.
	ListActivePricesByItem(ctx context.Context, itemID string) ([]Price, error)
}

type PriceResolver interface {
	// Resolve returns nil, nil when the item has no price in the zone.
	Resolve(ctx context.Context, itemID, zoneID string) (*Price, error)
	// BulkResolve maps every requested item id; unpriced items map to nil.
	BulkResolve(ctx context.Context, itemIDs []string, zoneID string) (map[string]*Price, error)
	// ListZonesForItem returns one price per zone, ordered by zone id.
	ListZonesForItem(ctx context.Context, itemID string) ([]Price, error)
	Format(amount int64, currencyCode string) string
}
