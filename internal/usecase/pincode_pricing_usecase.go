package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"pincode-pricing/internal/domain"
	"pincode-pricing/pkg/cache"
	"pincode-pricing/pkg/logger"
	"pincode-pricing/pkg/metrics"
	"pincode-pricing/pkg/utils"

	"github.com/google/uuid"
)

const minSearchQueryLength = 2

type PricingOptions struct {
	PositiveTTL  time.Duration
	NegativeTTL  time.Duration
	BulkMaxItems int
}

// PincodePricingUsecase resolves item prices for a pincode through the
// registry and resolver, memoizing results in the cache store. Two concurrent
// misses for one key both resolve and both write; results are idempotent so
// the second write only overwrites an equal value.
type PincodePricingUsecase struct {
	registry  domain.LocationRegistry
	resolver  domain.PriceResolver
	cache     cache.CacheService
	publisher domain.InvalidationPublisher
	opts      PricingOptions
	instance  string
}

func NewPincodePricingUsecase(
	registry domain.LocationRegistry,
	resolver domain.PriceResolver,
	cache cache.CacheService,
	publisher domain.InvalidationPublisher,
	opts PricingOptions,
) *PincodePricingUsecase {
	return &PincodePricingUsecase{
		registry:  registry,
		resolver:  resolver,
		cache:     cache,
		publisher: publisher,
		opts:      opts,
		instance:  uuid.New().String(),
	}
}

// InstanceID identifies this process in broadcast invalidations.
func (uc *PincodePricingUsecase) InstanceID() string {
	return uc.instance
}

func (uc *PincodePricingUsecase) GetPrice(ctx context.Context, itemID, rawCode string, useCache bool) (domain.Resolution, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return domain.Resolution{}, fmt.Errorf("%w: item id is required", domain.ErrInvalidInput)
	}
	if err := checkItemID(itemID); err != nil {
		return domain.Resolution{}, err
	}

	// 1. Start
	code, ok := uc.registry.Normalize(rawCode)
	if !ok {
		uc.observe(domain.ReasonInvalidLocation, "validation")
		return domain.Unavailable(itemID, strings.TrimSpace(rawCode), domain.ReasonInvalidLocation, false), nil
	}

	// 2. CacheCheck
	key := priceKey(itemID, code)
	if useCache {
		if val, found := uc.cache.Get(key); found {
			res := val.(domain.Resolution)
			uc.observe(res.Reason, "cache")
			return res, nil
		}
	}

	// 3. ServiceabilityCheck
	svc, err := uc.serviceability(ctx, code, useCache)
	if err != nil {
		return domain.Resolution{}, err
	}
	if !svc.Priceable() {
		res := domain.Unavailable(itemID, code, domain.ReasonNotServiceable, svc.Serviceable)
		uc.cache.Set(key, res, uc.opts.NegativeTTL)
		uc.observe(res.Reason, "store")
		return res, nil
	}

	// 4. PriceLookup
	price, err := uc.resolver.Resolve(ctx, itemID, svc.ZoneID)
	if err != nil {
		return domain.Resolution{}, err
	}
	if price == nil {
		res := domain.Unavailable(itemID, code, domain.ReasonItemNotPriced, true)
		uc.cache.Set(key, res, uc.opts.NegativeTTL)
		uc.observe(res.Reason, "store")
		return res, nil
	}

	// 5. Compose
	res := domain.Resolved(itemID, uc.compose(*price, svc))
	uc.cache.Set(key, res, uc.opts.PositiveTTL)
	uc.observe(res.Reason, "store")
	return res, nil
}

func (uc *PincodePricingUsecase) BulkGetPrices(ctx context.Context, itemIDs []string, rawCode string) (*domain.BulkPriceResult, error) {
	ids, err := uc.validateItems(itemIDs)
	if err != nil {
		return nil, err
	}

	code, ok := uc.registry.Normalize(rawCode)
	if !ok {
		return unserviceableBulk(strings.TrimSpace(rawCode), ids), nil
	}

	key := itemSetKey(modeBulk, code, ids)
	if val, found := uc.cache.Get(key); found {
		return copyBulk(val.(*domain.BulkPriceResult)), nil
	}

	svc, err := uc.serviceability(ctx, code, true)
	if err != nil {
		return nil, err
	}
	if !svc.Priceable() {
		result := unserviceableBulk(code, ids)
		uc.cache.Set(key, result, uc.opts.NegativeTTL)
		return copyBulk(result), nil
	}

	prices, err := uc.resolver.BulkResolve(ctx, ids, svc.ZoneID)
	if err != nil {
		return nil, err
	}

	result := &domain.BulkPriceResult{
		LocationCode: code,
		Resolved:     make(map[string]domain.ResolvedPrice, len(ids)),
		Unavailable:  []string{},
	}
	for _, id := range ids {
		if p := prices[id]; p != nil {
			result.Resolved[id] = uc.compose(*p, svc)
		} else {
			result.Unavailable = append(result.Unavailable, id)
		}
	}

	uc.cache.Set(key, result, uc.opts.PositiveTTL)
	return copyBulk(result), nil
}

func (uc *PincodePricingUsecase) CheckAvailabilityOnly(ctx context.Context, itemIDs []string, rawCode string) (map[string]bool, error) {
	ids, err := uc.validateItems(itemIDs)
	if err != nil {
		return nil, err
	}

	none := func() map[string]bool {
		m := make(map[string]bool, len(ids))
		for _, id := range ids {
			m[id] = false
		}
		return m
	}

	code, ok := uc.registry.Normalize(rawCode)
	if !ok {
		return none(), nil
	}

	key := itemSetKey(modeAvailability, code, ids)
	if val, found := uc.cache.Get(key); found {
		return copyAvailability(val.(map[string]bool)), nil
	}

	svc, err := uc.serviceability(ctx, code, true)
	if err != nil {
		return nil, err
	}
	if !svc.Priceable() {
		result := none()
		uc.cache.Set(key, result, uc.opts.NegativeTTL)
		return copyAvailability(result), nil
	}

	prices, err := uc.resolver.BulkResolve(ctx, ids, svc.ZoneID)
	if err != nil {
		return nil, err
	}
	result := make(map[string]bool, len(ids))
	for _, id := range ids {
		result[id] = prices[id] != nil
	}

	uc.cache.Set(key, result, uc.opts.PositiveTTL)
	return copyAvailability(result), nil
}

// CheckServiceability answers the delivery check for a pincode.
func (uc *PincodePricingUsecase) CheckServiceability(ctx context.Context, rawCode string) (domain.Serviceability, error) {
	code, ok := uc.registry.Normalize(rawCode)
	if !ok {
		return domain.NotServiceable(strings.TrimSpace(rawCode)), nil
	}
	return uc.serviceability(ctx, code, true)
}

// CheckServiceabilityBulk answers the delivery check for several pincodes in
// one store round trip. Malformed entries map to not serviceable under their
// trimmed input.
func (uc *PincodePricingUsecase) CheckServiceabilityBulk(ctx context.Context, rawCodes []string) (map[string]domain.Serviceability, error) {
	codes := utils.UniqueSorted(rawCodes)
	if len(codes) == 0 {
		return nil, fmt.Errorf("%w: at least one pincode is required", domain.ErrInvalidInput)
	}
	if uc.opts.BulkMaxItems > 0 && len(codes) > uc.opts.BulkMaxItems {
		return nil, fmt.Errorf("%w: at most %d pincodes per request", domain.ErrInvalidInput, uc.opts.BulkMaxItems)
	}

	result := make(map[string]domain.Serviceability, len(codes))
	misses := make([]string, 0, len(codes))
	for _, raw := range codes {
		code, ok := uc.registry.Normalize(raw)
		if !ok {
			misses = append(misses, raw)
			continue
		}
		if val, found := uc.cache.Get(serviceabilityKey(code)); found {
			result[code] = val.(domain.Serviceability)
			continue
		}
		misses = append(misses, code)
	}
	if len(misses) == 0 {
		return result, nil
	}

	looked, err := uc.registry.BulkLookup(ctx, misses)
	if err != nil {
		return nil, err
	}
	for code, svc := range looked {
		result[code] = svc
		if _, ok := uc.registry.Normalize(code); !ok {
			continue
		}
		ttl := uc.opts.PositiveTTL
		if !svc.Priceable() {
			ttl = uc.opts.NegativeTTL
		}
		uc.cache.Set(serviceabilityKey(code), svc, ttl)
	}
	return result, nil
}

func (uc *PincodePricingUsecase) ListLocationsForItem(ctx context.Context, itemID string) ([]domain.LocationPriceSummary, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return nil, fmt.Errorf("%w: item id is required", domain.ErrInvalidInput)
	}

	zonePrices, err := uc.resolver.ListZonesForItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if len(zonePrices) == 0 {
		return []domain.LocationPriceSummary{}, nil
	}

	byZone := make(map[string]domain.Price, len(zonePrices))
	zoneIDs := make([]string, 0, len(zonePrices))
	for _, p := range zonePrices {
		byZone[p.ZoneID] = p
		zoneIDs = append(zoneIDs, p.ZoneID)
	}

	locations, err := uc.registry.ZoneLocations(ctx, zoneIDs)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.LocationPriceSummary, 0, len(locations))
	for _, loc := range locations {
		if loc.ZoneID == nil {
			continue
		}
		p, ok := byZone[*loc.ZoneID]
		if !ok {
			continue
		}
		zoneName := p.ZoneName
		if zoneName == "" {
			zoneName = loc.ZoneName
		}
		summaries = append(summaries, domain.LocationPriceSummary{
			LocationCode: loc.Code,
			City:         loc.City,
			Region:       loc.Region,
			State:        loc.State,
			ZoneID:       p.ZoneID,
			ZoneName:     zoneName,
			Amount:       p.Amount,
			CurrencyCode: p.CurrencyCode,
			Formatted:    uc.resolver.Format(p.Amount, p.CurrencyCode),
			DeliveryDays: loc.DeliveryDays,
			CODAvailable: loc.CODAvailable,
			Serviceable:  loc.Serviceable,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LocationCode < summaries[j].LocationCode
	})
	return summaries, nil
}

func (uc *PincodePricingUsecase) SearchLocations(ctx context.Context, query string) ([]domain.Location, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minSearchQueryLength {
		return nil, fmt.Errorf("%w: search query must be at least %d characters", domain.ErrInvalidInput, minSearchQueryLength)
	}

	locations, err := uc.registry.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	available := make([]domain.Location, 0, len(locations))
	for _, loc := range locations {
		if loc.Serviceable {
			available = append(available, loc)
		}
	}
	return available, nil
}

// Statistics reports cache counters as they were before this call, and
// location aggregates memoized for the negative TTL.
func (uc *PincodePricingUsecase) Statistics(ctx context.Context) (*domain.PricingStats, error) {
	cacheStats := uc.cache.Stats()

	val, err := uc.cache.GetOrSet(ctx, statsKey(), func(ctx context.Context) (interface{}, error) {
		return uc.registry.Statistics(ctx)
	}, uc.opts.NegativeTTL)
	if err != nil {
		return nil, err
	}
	return &domain.PricingStats{
		Locations: *val.(*domain.LocationStats),
		Cache:     cacheStats,
	}, nil
}

// Invalidate drops cached results for an item, a pincode, or both, and
// broadcasts the invalidation. With neither set it clears the whole cache.
func (uc *PincodePricingUsecase) Invalidate(ctx context.Context, itemID, rawCode string) (int, error) {
	itemID = strings.TrimSpace(itemID)
	if err := checkItemID(itemID); err != nil {
		return 0, err
	}
	code := strings.TrimSpace(rawCode)
	if code != "" {
		normalized, ok := uc.registry.Normalize(code)
		if !ok {
			return 0, fmt.Errorf("%w: malformed pincode %q", domain.ErrInvalidInput, code)
		}
		code = normalized
	}

	removed := uc.ApplyInvalidation(domain.InvalidationEvent{ItemID: itemID, LocationCode: code})
	uc.broadcast(ctx, domain.InvalidationEvent{ItemID: itemID, LocationCode: code})
	return removed, nil
}

func (uc *PincodePricingUsecase) ClearAll(ctx context.Context) error {
	uc.ApplyInvalidation(domain.InvalidationEvent{})
	uc.broadcast(ctx, domain.InvalidationEvent{})
	return nil
}

// ApplyInvalidation drops matching entries from the local cache only.
func (uc *PincodePricingUsecase) ApplyInvalidation(event domain.InvalidationEvent) int {
	if event.ItemID == "" && event.LocationCode == "" {
		size := uc.cache.Stats().Size
		uc.cache.Flush()
		logger.Info().Int("removed", size).Msg("Price cache cleared")
		return size
	}

	// Any bulk or availability entry containing the item goes too.
	removed := uc.cache.DeleteFunc(invalidationMatcher(event.ItemID, event.LocationCode))
	logger.Info().
		Str("item_id", event.ItemID).
		Str("pincode", event.LocationCode).
		Int("removed", removed).
		Msg("Price cache invalidated")
	return removed
}

func (uc *PincodePricingUsecase) broadcast(ctx context.Context, event domain.InvalidationEvent) {
	if uc.publisher == nil {
		return
	}
	event.Origin = uc.instance
	if err := uc.publisher.Publish(ctx, event); err != nil {
		// Local state is already correct; peers converge when their TTLs lapse.
		logger.WithContext(ctx).Warn().Err(err).Msg("Failed to broadcast cache invalidation")
	}
}

// serviceability consults the cache before the registry. Registry errors are
// returned and never cached.
func (uc *PincodePricingUsecase) serviceability(ctx context.Context, code string, useCache bool) (domain.Serviceability, error) {
	key := serviceabilityKey(code)
	if useCache {
		if val, found := uc.cache.Get(key); found {
			return val.(domain.Serviceability), nil
		}
	}

	svc, err := uc.registry.CheckServiceability(ctx, code)
	if err != nil {
		return domain.NotServiceable(code), err
	}

	ttl := uc.opts.PositiveTTL
	if !svc.Priceable() {
		ttl = uc.opts.NegativeTTL
	}
	uc.cache.Set(key, svc, ttl)
	return svc, nil
}

func (uc *PincodePricingUsecase) compose(p domain.Price, svc domain.Serviceability) domain.ResolvedPrice {
	return domain.ResolvedPrice{
		Amount:       p.Amount,
		CurrencyCode: p.CurrencyCode,
		Formatted:    uc.resolver.Format(p.Amount, p.CurrencyCode),
		DeliveryDays: svc.DeliveryDays,
		CODAvailable: svc.CODAvailable,
		ZoneID:       p.ZoneID,
		LocationCode: svc.Code,
		City:         svc.City,
		Region:       svc.Region,
		State:        svc.State,
	}
}

func (uc *PincodePricingUsecase) validateItems(itemIDs []string) ([]string, error) {
	ids := utils.UniqueSorted(itemIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one item id is required", domain.ErrInvalidInput)
	}
	if uc.opts.BulkMaxItems > 0 && len(ids) > uc.opts.BulkMaxItems {
		return nil, fmt.Errorf("%w: at most %d item ids per request", domain.ErrInvalidInput, uc.opts.BulkMaxItems)
	}
	for _, id := range ids {
		if err := checkItemID(id); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func (uc *PincodePricingUsecase) observe(reason domain.UnavailableReason, source string) {
	outcome := "resolved"
	if reason != "" {
		outcome = string(reason)
	}
	metrics.Resolutions.WithLabelValues(outcome, source).Inc()
}

func unserviceableBulk(code string, ids []string) *domain.BulkPriceResult {
	unavailable := make([]string, len(ids))
	copy(unavailable, ids)
	return &domain.BulkPriceResult{
		LocationCode:          code,
		Resolved:              map[string]domain.ResolvedPrice{},
		Unavailable:           unavailable,
		LocationUnserviceable: true,
	}
}

// copyBulk detaches a result from the cached value so callers may mutate it.
func copyBulk(r *domain.BulkPriceResult) *domain.BulkPriceResult {
	out := *r
	out.Resolved = make(map[string]domain.ResolvedPrice, len(r.Resolved))
	for k, v := range r.Resolved {
		out.Resolved[k] = v
	}
	out.Unavailable = append([]string{}, r.Unavailable...)
	return &out
}

func copyAvailability(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
