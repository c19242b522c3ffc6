package postgres

import (
	"context"
	"fmt"
	"time"

	"pincode-pricing/internal/domain"
	"pincode-pricing/pkg/logger"
)

type priceRepository struct {
	db              DBTX
	defaultCurrency string
}

// NewPriceRepository reads item_prices. Rows stored without a currency code
// are reported in defaultCurrency.
func NewPriceRepository(db DBTX, defaultCurrency string) domain.PriceRepository {
	return &priceRepository{db: db, defaultCurrency: defaultCurrency}
}

func (r *priceRepository) queryPrices(ctx context.Context, query string, args ...any) ([]domain.Price, error) {
	start := time.Now()
	rows, err := r.db.Query(ctx, query, args...)
	logger.DBQuery(query, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prices := []domain.Price{}
	for rows.Next() {
		var p domain.Price
		if err := rows.Scan(&p.ItemID, &p.ZoneID, &p.ZoneName, &p.Amount, &p.CurrencyCode, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item price: %w", err)
		}
		if p.CurrencyCode == "" {
			p.CurrencyCode = r.defaultCurrency
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

func (r *priceRepository) GetActivePrices(ctx context.Context, itemID, zoneID string) ([]domain.Price, error) {
	query := `
		SELECT ip.item_id, ip.zone_id, COALESCE(z.display_name, ''), ip.amount, ip.currency_code, ip.created_at
		FROM item_prices ip
		LEFT JOIN pricing_zones z ON z.id = ip.zone_id
		WHERE ip.item_id = $1 AND ip.zone_id = $2 AND ip.is_active
		ORDER BY ip.created_at DESC, ip.id DESC`
	return r.queryPrices(ctx, query, itemID, zoneID)
}

func (r *priceRepository) ListActivePricesByItem(ctx context.Context, itemID string) ([]domain.Price, error) {
	query := `
		SELECT ip.item_id, ip.zone_id, COALESCE(z.display_name, ''), ip.amount, ip.currency_code, ip.created_at
		FROM item_prices ip
		LEFT JOIN pricing_zones z ON z.id = ip.zone_id
		WHERE ip.item_id = $1 AND ip.is_active
		ORDER BY ip.zone_id, ip.created_at DESC, ip.id DESC`
	return r.queryPrices(ctx, query, itemID)
}
