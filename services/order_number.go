package services

import (
	"fmt"
	"math/big"
	"regexp"
)

// OrderIDPrefix is the fixed prefix of every order number
const OrderIDPrefix = "OTD-MX-"

var (
	orderIDPattern = regexp.MustCompile(`^OTD-MX-(\d+)`)
	// canonical form accepted for ids supplied by a client
	strictOrderIDPattern = regexp.MustCompile(`^OTD-MX-\d{4,}$`)
)

// parseOrderSuffix returns the numeric suffix of id, or false when id does not start with the pattern.
// Suffixes have no upper bound.
func parseOrderSuffix(id string) (*big.Int, bool) {
	m := orderIDPattern.FindStringSubmatch(id)
	if m == nil {
		return nil, false
	}
	return new(big.Int).SetString(m[1], 10)
}

// NextOrderID returns max suffix + 1 over ids, zero padded to 4 digits.
// Ids that do not match the pattern are ignored.
func NextOrderID(ids []string) string {
	highest := new(big.Int)
	for _, id := range ids {
		if n, ok := parseOrderSuffix(id); ok && n.Cmp(highest) > 0 {
			highest = n
		}
	}
	return formatOrderSuffix(highest.Add(highest, big.NewInt(1)))
}

// FormatOrderID renders a sequence number; numbers past 9999 widen
func FormatOrderID(n uint64) string {
	return formatOrderSuffix(new(big.Int).SetUint64(n))
}

func formatOrderSuffix(n *big.Int) string {
	return fmt.Sprintf("%s%04d", OrderIDPrefix, n)
}

// IsCanonicalOrderID reports whether id is a well formed order number
func IsCanonicalOrderID(id string) bool {
	return strictOrderIDPattern.MatchString(id)
}
