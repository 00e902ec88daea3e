package assist

import (
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/zeebo/xxh3"
)

// DefaultProfitBucket is the rounding granularity (in currency units) applied
// to profit when it is folded into a personalized cache key. Coarse bucketing
// keeps users with materially different profit bands apart without fragmenting
// the cache on every cent of variation.
const DefaultProfitBucket = 1000

// personalMarkers are first-person phrasings that mark a query as depending on
// the caller's own financial data. Matched as substrings over the normalized
// (lowercased, trimmed) query. The list is an empirically tuned heuristic.
var personalMarkers = []string{
	"my", "i am", "i'm", "should i", "am i",
	"my business", "my expenses", "my revenue",
}

// DeriveKey maps a query and optional financial context to a stable cache key.
//
// Normalization is lowercase + trim only: internal whitespace and punctuation
// are preserved, so near-duplicate phrasings produce different keys. That is a
// known limitation of the scheme, not something to paper over here.
//
// Context only participates for personalized queries, and then only as a
// coarse profit bucket plus a marker that context was present. profitBucket
// <= 0 falls back to DefaultProfitBucket.
func DeriveKey(query string, data *FinancialContext, profitBucket int) string {
	if profitBucket <= 0 {
		profitBucket = DefaultProfitBucket
	}

	normalized := strings.ToLower(strings.TrimSpace(query))

	// Serialize with a fixed field order so identical inputs always hash
	// identically. This is a cache key, not a security boundary, so a fast
	// 128-bit non-cryptographic digest is enough.
	var sb strings.Builder
	sb.WriteString("message=")
	sb.WriteString(normalized)

	if !data.IsZero() && isPersonalized(normalized) {
		sb.WriteString(";has_data=true")
		if data.Profit != nil {
			bucket := int64(math.Round(*data.Profit/float64(profitBucket))) * int64(profitBucket)
			fmt.Fprintf(&sb, ";profit_range=%d", bucket)
		}
	}

	sum := xxh3.Hash128([]byte(sb.String())).Bytes()
	return hex.EncodeToString(sum[:])
}

// isPersonalized reports whether the normalized query depends on
// caller-specific data, detected via first-person phrasing.
func isPersonalized(normalized string) bool {
	for _, marker := range personalMarkers {
		if strings.Contains(normalized, marker) {
			return true
		}
	}
	return false
}
