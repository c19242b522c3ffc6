package usecase

import (
	"fmt"
	"strings"

	"pincode-pricing/internal/domain"
	"pincode-pricing/pkg/utils"
)

// Key layout: pp:<mode>:<pincode>:<comma-separated sorted item ids>
const (
	keyPrefix = "pp"

	modePrice          = "price"
	modeBulk           = "bulk"
	modeAvailability   = "avail"
	modeServiceability = "svc"
	modeStats          = "stats"
)

// keyDelimiters separate key fields and item ids, so ids may not contain them.
const keyDelimiters = ":,"

func checkItemID(id string) error {
	if strings.ContainsAny(id, keyDelimiters) {
		return fmt.Errorf("%w: item id %q must not contain any of %q", domain.ErrInvalidInput, id, keyDelimiters)
	}
	return nil
}

func priceKey(itemID, code string) string {
	return buildKey(modePrice, code, itemID)
}

// itemSetKey is order-insensitive: the same set of ids always maps to one key.
func itemSetKey(mode, code string, itemIDs []string) string {
	return buildKey(mode, code, strings.Join(utils.UniqueSorted(itemIDs), ","))
}

func serviceabilityKey(code string) string {
	return buildKey(modeServiceability, code, "")
}

func statsKey() string {
	return buildKey(modeStats, "", "")
}

func buildKey(mode, code, items string) string {
	return fmt.Sprintf("%s:%s:%s:%s", keyPrefix, mode, code, items)
}

type parsedKey struct {
	mode  string
	code  string
	items []string
}

func parseKey(key string) (parsedKey, bool) {
	parts := strings.SplitN(key, ":", 4)
	if len(parts) != 4 || parts[0] != keyPrefix {
		return parsedKey{}, false
	}
	pk := parsedKey{mode: parts[1], code: parts[2]}
	if parts[3] != "" {
		pk.items = strings.Split(parts[3], ",")
	}
	return pk, true
}

// invalidationMatcher selects keys touching the item and/or pincode. An empty
// argument matches anything on that axis.
func invalidationMatcher(itemID, code string) func(key string) bool {
	return func(key string) bool {
		pk, ok := parseKey(key)
		if !ok {
			return false
		}
		if code != "" && pk.code != code {
			return false
		}
		if itemID == "" {
			return true
		}
		for _, id := range pk.items {
			if id == itemID {
				return true
			}
		}
		return false
	}
}
