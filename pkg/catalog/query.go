// Package catalog turns filter selections into backend queries and pages
// through the filtered result set.
package catalog

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/pokedexsocial/pokedex/pkg/data"
)

const (
	PageSize         = 12
	SortKey          = "ndex,asc"
	MaxSelectedTypes = 2
)

// Bucket is one third of a numeric facet's global range
type Bucket int

const (
	BucketNone Bucket = iota
	BucketLow
	BucketMid
	BucketHigh
)

var (
	weightLabels = [...]string{"", "light", "medium", "heavy"}
	heightLabels = [...]string{"", "short", "medium", "tall"}
)

func (b Bucket) Valid() bool { return b >= BucketNone && b <= BucketHigh }

func (b Bucket) String() string {
	switch b {
	case BucketLow:
		return "low"
	case BucketMid:
		return "mid"
	case BucketHigh:
		return "high"
	default:
		return ""
	}
}

func (b Bucket) WeightLabel() string {
	if !b.Valid() {
		return ""
	}
	return weightLabels[b]
}

func (b Bucket) HeightLabel() string {
	if !b.Valid() {
		return ""
	}
	return heightLabels[b]
}

// ParseBucket accepts low/mid/high as well as the weight and height labels
// (light/medium/heavy, short/medium/tall). The empty string is BucketNone.
func ParseBucket(s string) (Bucket, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "any":
		return BucketNone, nil
	case "low", "light", "short":
		return BucketLow, nil
	case "mid", "medium":
		return BucketMid, nil
	case "high", "heavy", "tall":
		return BucketHigh, nil
	}
	return BucketNone, errors.Errorf("unknown bucket %q", s)
}

// BucketBounds returns the numeric bounds of b over r. The range is split
// into three equal-width contiguous intervals; the top boundary is pinned
// to r.Max.
func BucketBounds(r data.FloatRange, b Bucket) (from, to float64, ok bool) {
	if b == BucketNone || !b.Valid() {
		return 0, 0, false
	}
	k := int(b) - 1
	return boundary(r, k), boundary(r, k+1), true
}

func boundary(r data.FloatRange, k int) float64 {
	switch k {
	case 0:
		return r.Min
	case 3:
		return r.Max
	}
	return r.Min + float64(k)*(r.Max-r.Min)/3
}

// Compile builds the query parameters for one page of the applied filter
// set. It does not modify its inputs.
func Compile(applied AppliedFilterSet, catalog *data.FilterCatalog, page int) url.Values {
	if catalog == nil {
		catalog = &data.FilterCatalog{}
	}

	params := url.Values{}
	set := params.Set

	if q := strings.TrimSpace(applied.Query); q != "" {
		set("q", q)
	}

	for _, id := range applied.TypeIDs {
		params.Add("typeIds", strconv.Itoa(id))
	}

	if applied.AbilityID > 0 {
		set("abilityId", strconv.Itoa(applied.AbilityID))
	}

	if from, to, ok := BucketBounds(catalog.WeightRange, applied.WeightBucket); ok {
		set("weightFrom", formatNumber(from))
		set("weightTo", formatNumber(to))
	}

	if from, to, ok := BucketBounds(catalog.HeightRange, applied.HeightBucket); ok {
		set("heightFrom", formatNumber(from))
		set("heightTo", formatNumber(to))
	}

	ndex := applied.ResolvedNdexRange(catalog)
	set("ndexFrom", strconv.Itoa(ndex.Min))
	set("ndexTo", strconv.Itoa(ndex.Max))

	set("page", strconv.Itoa(page))
	set("size", strconv.Itoa(PageSize))
	set("sort", SortKey)

	return params
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
