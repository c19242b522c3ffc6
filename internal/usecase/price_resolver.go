package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"pincode-pricing/internal/domain"
	"pincode-pricing/pkg/logger"
	"pincode-pricing/pkg/metrics"
	"pincode-pricing/pkg/utils"

	"golang.org/x/sync/errgroup"
)

type priceResolver struct {
	repo domain.PriceRepository
	// maxInFlight caps concurrent lookups in BulkResolve; <= 0 means no cap
	maxInFlight int
}

func NewPriceResolver(repo domain.PriceRepository, maxInFlight int) domain.PriceResolver {
	return &priceResolver{
		repo:        repo,
		maxInFlight: maxInFlight,
	}
}

func (r *priceResolver) Resolve(ctx context.Context, itemID, zoneID string) (*domain.Price, error) {
	rows, err := r.repo.GetActivePrices(ctx, itemID, zoneID)
	if err != nil {
		return nil, fmt.Errorf("failed to load prices for item %s in zone %s: %w", itemID, zoneID, err)
	}
	return pickActive(ctx, itemID, zoneID, rows), nil
}

func (r *priceResolver) BulkResolve(ctx context.Context, itemIDs []string, zoneID string) (map[string]*domain.Price, error) {
	ids := utils.UniqueSorted(itemIDs)
	result := make(map[string]*domain.Price, len(ids))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if r.maxInFlight > 0 {
		g.SetLimit(r.maxInFlight)
	}
	for _, id := range ids {
		g.Go(func() error {
			price, err := r.Resolve(gctx, id, zoneID)
			if err != nil {
				return err
			}
			mu.Lock()
			result[id] = price
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *priceResolver) ListZonesForItem(ctx context.Context, itemID string) ([]domain.Price, error) {
	rows, err := r.repo.ListActivePricesByItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prices for item %s: %w", itemID, err)
	}

	byZone := make(map[string][]domain.Price)
	for _, row := range rows {
		byZone[row.ZoneID] = append(byZone[row.ZoneID], row)
	}

	prices := make([]domain.Price, 0, len(byZone))
	for zoneID, zoneRows := range byZone {
		if p := pickActive(ctx, itemID, zoneID, zoneRows); p != nil {
			prices = append(prices, *p)
		}
	}
	sort.Slice(prices, func(i, j int) bool {
		return prices[i].ZoneID < prices[j].ZoneID
	})
	return prices, nil
}

func (r *priceResolver) Format(amount int64, currencyCode string) string {
	return utils.FormatMinorUnits(amount, currencyCode)
}

// pickActive returns the newest valid row. Several active rows for one
// item/zone pair should not exist; they are logged and the rest ignored.
func pickActive(ctx context.Context, itemID, zoneID string, rows []domain.Price) *domain.Price {
	var picked *domain.Price
	valid := 0
	for i := range rows {
		if rows[i].Amount < 0 {
			logger.WithContext(ctx).Warn().
				Str("item_id", itemID).
				Str("zone_id", zoneID).
				Int64("amount", rows[i].Amount).
				Msg("Ignoring negative item price")
			continue
		}
		valid++
		if picked == nil || rows[i].CreatedAt.After(picked.CreatedAt) {
			picked = &rows[i]
		}
	}

	if valid > 1 {
		metrics.PriceAnomalies.Inc()
		logger.WithContext(ctx).Warn().
			Str("item_id", itemID).
			Str("zone_id", zoneID).
			Int("rows", valid).
			Time("picked_created_at", picked.CreatedAt).
			Msg("Multiple active prices for item in zone, using most recent")
	}

	if picked == nil {
		return nil
	}
	p := *picked
	return &p
}
