package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pincode-pricing/internal/domain"
	"pincode-pricing/pkg/logger"

	"github.com/jackc/pgx/v5"
)

type locationRepository struct {
	db DBTX
}

func NewLocationRepository(db DBTX) domain.LocationRepository {
	return &locationRepository{db: db}
}

const locationColumns = `
	p.code, p.zone_id, COALESCE(z.display_name, ''),
	COALESCE(p.city, ''), COALESCE(p.region_name, ''), COALESCE(p.state, ''),
	p.delivery_days, p.cod_available, p.is_serviceable, p.updated_at`

const locationFrom = `
	FROM pincodes p
	LEFT JOIN pricing_zones z ON z.id = p.zone_id`

func scanLocation(row pgx.Row) (domain.Location, error) {
	var l domain.Location
	err := row.Scan(
		&l.Code, &l.ZoneID, &l.ZoneName,
		&l.City, &l.Region, &l.State,
		&l.DeliveryDays, &l.CODAvailable, &l.Serviceable, &l.UpdatedAt,
	)
	return l, err
}

func (r *locationRepository) queryLocations(ctx context.Context, query string, args ...any) ([]domain.Location, error) {
	start := time.Now()
	rows, err := r.db.Query(ctx, query, args...)
	logger.DBQuery(query, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locations := []domain.Location{}
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pincode: %w", err)
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

func (r *locationRepository) GetByCode(ctx context.Context, code string) (*domain.Location, error) {
	query := `SELECT` + locationColumns + locationFrom + ` WHERE p.code = $1`

	start := time.Now()
	l, err := scanLocation(r.db.QueryRow(ctx, query, code))
	if errors.Is(err, pgx.ErrNoRows) {
		// an unknown pincode is an answer, not a failure
		logger.DBQuery(query, time.Since(start), nil)
		return nil, nil
	}
	logger.DBQuery(query, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *locationRepository) GetByCodes(ctx context.Context, codes []string) ([]domain.Location, error) {
	if len(codes) == 0 {
		return []domain.Location{}, nil
	}
	query := `SELECT` + locationColumns + locationFrom + ` WHERE p.code = ANY($1) ORDER BY p.code`
	return r.queryLocations(ctx, query, codes)
}

func (r *locationRepository) GetByZoneIDs(ctx context.Context, zoneIDs []string) ([]domain.Location, error) {
	if len(zoneIDs) == 0 {
		return []domain.Location{}, nil
	}
	query := `SELECT` + locationColumns + locationFrom + ` WHERE p.zone_id = ANY($1) ORDER BY p.code`
	return r.queryLocations(ctx, query, zoneIDs)
}

// Search matches a code prefix or a substring of city, region or state.
func (r *locationRepository) Search(ctx context.Context, query string, limit int) ([]domain.Location, error) {
	pattern := escapeLike(query)
	sql := `SELECT` + locationColumns + locationFrom + `
		WHERE p.code LIKE $1 || '%'
		   OR p.city ILIKE '%' || $1 || '%'
		   OR p.region_name ILIKE '%' || $1 || '%'
		   OR p.state ILIKE '%' || $1 || '%'
		ORDER BY p.code
		LIMIT $2`
	return r.queryLocations(ctx, sql, pattern, limit)
}

func (r *locationRepository) GetStats(ctx context.Context) (*domain.LocationStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_serviceable),
			COUNT(*) FILTER (WHERE cod_available),
			COALESCE(AVG(delivery_days) FILTER (WHERE is_serviceable), 0)::float8,
			COUNT(DISTINCT region_name)
		FROM pincodes`

	start := time.Now()
	var s domain.LocationStats
	err := r.db.QueryRow(ctx, query).Scan(
		&s.Total, &s.ServiceableCount, &s.CODAvailable, &s.AvgDeliveryDays, &s.DistinctRegions,
	)
	logger.DBQuery(query, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
