package catalog

import (
	"net/url"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokedexsocial/pokedex/pkg/data"
)

func testCatalog() *data.FilterCatalog {
	return &data.FilterCatalog{
		Types: []data.FilterOption{
			{ID: 4, Name: "Water"},
			{ID: 7, Name: "Grass"},
			{ID: 10, Name: "Fire"},
		},
		Abilities:   []data.FilterOption{{ID: 65, Name: "Overgrow"}},
		NdexRange:   data.IntRange{Min: 1, Max: 1010},
		WeightRange: data.FloatRange{Min: 0, Max: 300},
		HeightRange: data.FloatRange{Min: 0.3, Max: 14.4},
	}
}

func TestCompileNoFilters(t *testing.T) {
	got := Compile(AppliedFilterSet{}, testCatalog(), 0)

	want := url.Values{
		"ndexFrom": {"1"},
		"ndexTo":   {"1010"},
		"page":     {"0"},
		"size":     {"12"},
		"sort":     {"ndex,asc"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Compile() mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileAllFacets(t *testing.T) {
	applied := AppliedFilterSet{
		Query:        "  char ",
		TypeIDs:      []int{10, 4},
		AbilityID:    65,
		WeightBucket: BucketMid,
		HeightBucket: BucketLow,
		NdexRange:    &data.IntRange{Min: 4, Max: 151},
	}

	got := Compile(applied, testCatalog(), 3)

	assert.Equal(t, "char", got.Get("q"))
	assert.Equal(t, []string{"10", "4"}, got["typeIds"])
	assert.Equal(t, "65", got.Get("abilityId"))
	assert.Equal(t, "100", got.Get("weightFrom"))
	assert.Equal(t, "200", got.Get("weightTo"))
	assert.Equal(t, "0.3", got.Get("heightFrom"))
	assert.Equal(t, "4", got.Get("ndexFrom"))
	assert.Equal(t, "151", got.Get("ndexTo"))
	assert.Equal(t, "3", got.Get("page"))
	assert.Equal(t, strconv.Itoa(PageSize), got.Get("size"))
	assert.Equal(t, SortKey, got.Get("sort"))
}

func TestCompileOmitsUnsetFacets(t *testing.T) {
	got := Compile(AppliedFilterSet{Query: "   "}, testCatalog(), 0)

	for _, key := range []string{"q", "typeIds", "abilityId", "weightFrom", "weightTo", "heightFrom", "heightTo"} {
		_, ok := got[key]
		assert.False(t, ok, "expected %s to be omitted", key)
	}
}

func TestCompileWeightScenario(t *testing.T) {
	catalog := testCatalog()
	catalog.WeightRange = data.FloatRange{Min: 0, Max: 300}

	got := Compile(AppliedFilterSet{WeightBucket: BucketMid}, catalog, 0)

	assert.Equal(t, "100", got.Get("weightFrom"))
	assert.Equal(t, "200", got.Get("weightTo"))
	assert.Equal(t, "1", got.Get("ndexFrom"))
	assert.Equal(t, "1010", got.Get("ndexTo"))
}

func TestCompileDexRangeAlwaysPresent(t *testing.T) {
	catalog := testCatalog()
	cases := []struct {
		name     string
		applied  AppliedFilterSet
		from, to string
	}{
		{"catalog fallback", AppliedFilterSet{}, "1", "1010"},
		{"applied range", AppliedFilterSet{NdexRange: &data.IntRange{Min: 152, Max: 251}}, "152", "251"},
		{"other facets only", AppliedFilterSet{TypeIDs: []int{7}, Query: "bulba"}, "1", "1010"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Compile(tc.applied, catalog, 2)
			assert.Equal(t, tc.from, got.Get("ndexFrom"))
			assert.Equal(t, tc.to, got.Get("ndexTo"))
		})
	}
}

func TestCompileIsIdempotent(t *testing.T) {
	catalog := testCatalog()
	applied := AppliedFilterSet{
		Query:        "saur",
		TypeIDs:      []int{7, 4},
		AbilityID:    65,
		HeightBucket: BucketHigh,
	}

	first := Compile(applied, catalog, 1)
	second := Compile(applied, catalog, 1)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Compile() not stable (-first +second):\n%s", diff)
	}
	assert.Equal(t, first.Encode(), second.Encode())
}

func TestCompileDoesNotMutateInputs(t *testing.T) {
	catalog := testCatalog()
	before := *catalog
	applied := AppliedFilterSet{TypeIDs: []int{10, 4}, NdexRange: &data.IntRange{Min: 3, Max: 9}}

	Compile(applied, catalog, 0)

	assert.Equal(t, []int{10, 4}, applied.TypeIDs)
	assert.Equal(t, data.IntRange{Min: 3, Max: 9}, *applied.NdexRange)
	assert.Equal(t, before.NdexRange, catalog.NdexRange)
	assert.Equal(t, before.WeightRange, catalog.WeightRange)
}

func TestBucketPartition(t *testing.T) {
	ranges := []data.FloatRange{
		{Min: 0, Max: 300},
		{Min: 0.1, Max: 999.9},
		{Min: 0.1, Max: 20},
		{Min: 5, Max: 5},
		{Min: -3, Max: 7.5},
	}

	for _, r := range ranges {
		delta := (r.Max - r.Min) / 3
		var prevTo float64
		for k, b := range []Bucket{BucketLow, BucketMid, BucketHigh} {
			from, to, ok := BucketBounds(r, b)
			require.True(t, ok)

			assert.InDelta(t, r.Min+float64(k)*delta, from, 1e-9, "from of bucket %d over %+v", k, r)
			assert.InDelta(t, r.Min+float64(k+1)*delta, to, 1e-9, "to of bucket %d over %+v", k, r)
			if k > 0 {
				assert.Equal(t, prevTo, from, "buckets must be contiguous over %+v", r)
			}
			prevTo = to
		}
		assert.Equal(t, r.Max, prevTo, "last bucket must end at max")

		from, _, _ := BucketBounds(r, BucketLow)
		assert.Equal(t, r.Min, from, "first bucket must start at min")
	}
}

func TestBucketBoundsNone(t *testing.T) {
	_, _, ok := BucketBounds(data.FloatRange{Min: 0, Max: 300}, BucketNone)
	assert.False(t, ok)

	_, _, ok = BucketBounds(data.FloatRange{Min: 0, Max: 300}, Bucket(9))
	assert.False(t, ok)
}

func TestParseBucket(t *testing.T) {
	cases := map[string]Bucket{
		"":       BucketNone,
		"low":    BucketLow,
		"light":  BucketLow,
		"short":  BucketLow,
		"Medium": BucketMid,
		"mid":    BucketMid,
		"heavy":  BucketHigh,
		"tall":   BucketHigh,
		" high ": BucketHigh,
	}
	for in, want := range cases {
		got, err := ParseBucket(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseBucket("enormous")
	assert.Error(t, err)
}

func TestBucketLabels(t *testing.T) {
	assert.Equal(t, "medium", BucketMid.WeightLabel())
	assert.Equal(t, "heavy", BucketHigh.WeightLabel())
	assert.Equal(t, "short", BucketLow.HeightLabel())
	assert.Equal(t, "", BucketNone.HeightLabel())
	assert.Equal(t, "high", BucketHigh.String())
}
