package catalog

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pokedexsocial/pokedex/pkg/data"
)

// AppliedFilterSet is the filter configuration last submitted by the user.
// It is built by FilterDraft.Snapshot and treated as immutable afterwards.
type AppliedFilterSet struct {
	Query        string
	TypeIDs      []int
	AbilityID    int
	WeightBucket Bucket
	HeightBucket Bucket
	// NdexRange is nil when the draft never carried a range
	NdexRange *data.IntRange
}

// ResolvedNdexRange returns the applied range, or the catalog's full range
// when none was applied.
func (a AppliedFilterSet) ResolvedNdexRange(catalog *data.FilterCatalog) data.IntRange {
	if a.NdexRange != nil {
		return *a.NdexRange
	}
	if catalog == nil {
		return data.IntRange{}
	}
	return catalog.NdexRange
}

// Describe renders the set for people, e.g.
// `"char" · Fire/Water · Blaze · heavy · N°1-151`. Facets left unset are
// omitted; the dex range is always shown.
func (a AppliedFilterSet) Describe(catalog *data.FilterCatalog) string {
	var parts []string
	if q := strings.TrimSpace(a.Query); q != "" {
		parts = append(parts, fmt.Sprintf("%q", q))
	}
	if len(a.TypeIDs) > 0 {
		names := make([]string, len(a.TypeIDs))
		for i, id := range a.TypeIDs {
			names[i] = optionName(catalog.TypeName(id), id)
		}
		parts = append(parts, strings.Join(names, "/"))
	}
	if a.AbilityID > 0 {
		parts = append(parts, optionName(catalog.AbilityName(a.AbilityID), a.AbilityID))
	}
	if a.WeightBucket != BucketNone {
		parts = append(parts, a.WeightBucket.WeightLabel())
	}
	if a.HeightBucket != BucketNone {
		parts = append(parts, a.HeightBucket.HeightLabel())
	}
	r := a.ResolvedNdexRange(catalog)
	parts = append(parts, fmt.Sprintf("N°%d-%d", r.Min, r.Max))
	return strings.Join(parts, " · ")
}

func optionName(name string, id int) string {
	if name == "" {
		return fmt.Sprintf("#%d", id)
	}
	return name
}

// FilterDraft holds the user's in-progress selections. It is safe for
// concurrent use.
type FilterDraft struct {
	mu      sync.RWMutex
	types   []int
	ability int
	weight  Bucket
	height  Bucket
	query   string
	ndex    data.IntRange
	// ndexCeiling is the catalog's upper dex bound; zero means unbounded
	ndexCeiling int
}

func NewFilterDraft(catalog *data.FilterCatalog) *FilterDraft {
	d := &FilterDraft{}
	d.Reset(catalog)
	return d
}

// Reset clears every selection and restores the catalog's full dex range
func (d *FilterDraft) Reset(catalog *data.FilterCatalog) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.types = nil
	d.ability = 0
	d.weight = BucketNone
	d.height = BucketNone
	d.query = ""
	d.ndex = data.IntRange{}
	d.ndexCeiling = 0

	if catalog != nil {
		d.ndexCeiling = catalog.NdexRange.Max
		d.ndex = data.IntRange{Min: max(1, catalog.NdexRange.Min), Max: catalog.NdexRange.Max}
		if d.ndex.Max < d.ndex.Min {
			d.ndex.Max = d.ndex.Min
		}
	}
}

func (d *FilterDraft) Mutate(m Mutation) {
	d.mu.Lock()
	defer d.mu.Unlock()
	m.apply(d)
}

// Snapshot copies the draft into a new AppliedFilterSet
func (d *FilterDraft) Snapshot() AppliedFilterSet {
	d.mu.RLock()
	defer d.mu.RUnlock()

	applied := AppliedFilterSet{
		Query:        d.query,
		TypeIDs:      append([]int(nil), d.types...),
		AbilityID:    d.ability,
		WeightBucket: d.weight,
		HeightBucket: d.height,
	}
	if d.ndex != (data.IntRange{}) {
		r := d.ndex
		applied.NdexRange = &r
	}
	return applied
}

func (d *FilterDraft) Types() []int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]int(nil), d.types...)
}

func (d *FilterDraft) HasType(id int) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return indexOf(d.types, id) >= 0
}

func (d *FilterDraft) Ability() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ability
}

func (d *FilterDraft) WeightBucket() Bucket {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.weight
}

func (d *FilterDraft) HeightBucket() Bucket {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.height
}

func (d *FilterDraft) Query() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.query
}

func (d *FilterDraft) NdexRange() data.IntRange {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ndex
}

// Mutation is one edit of a draft field. The set of mutations is closed:
// only the types in this package implement it.
type Mutation interface {
	apply(d *FilterDraft)
}

// SetTypes replaces the type selection. Duplicates are dropped; a
// selection larger than MaxSelectedTypes leaves the draft unchanged.
type SetTypes struct{ IDs []int }

// ToggleType deselects ID if selected, otherwise selects it when fewer
// than MaxSelectedTypes are selected.
type ToggleType struct{ ID int }

// SetAbility selects an ability; zero clears it
type SetAbility struct{ ID int }

type SetWeightBucket struct{ Bucket Bucket }

type SetHeightBucket struct{ Bucket Bucket }

type SetQuery struct{ Query string }

// SetNdexRange sets both ends. Each end is clamped into [1, catalog max]
// and max is lifted to min if it falls below it.
type SetNdexRange struct{ Range data.IntRange }

// SetNdexMin edits the lower end, clamped into [1, current max]
type SetNdexMin struct{ Min int }

// SetNdexMax edits the upper end, clamped into [current min, catalog max]
type SetNdexMax struct{ Max int }

func (m SetTypes) apply(d *FilterDraft) {
	var ids []int
	for _, id := range m.IDs {
		if id > 0 && indexOf(ids, id) < 0 {
			ids = append(ids, id)
		}
	}
	if len(ids) > MaxSelectedTypes {
		return
	}
	d.types = ids
}

func (m ToggleType) apply(d *FilterDraft) {
	if i := indexOf(d.types, m.ID); i >= 0 {
		d.types = append(d.types[:i:i], d.types[i+1:]...)
		return
	}
	if m.ID <= 0 || len(d.types) >= MaxSelectedTypes {
		return
	}
	d.types = append(d.types[:len(d.types):len(d.types)], m.ID)
}

func (m SetAbility) apply(d *FilterDraft) {
	if m.ID < 0 {
		return
	}
	d.ability = m.ID
}

func (m SetWeightBucket) apply(d *FilterDraft) {
	if m.Bucket.Valid() {
		d.weight = m.Bucket
	}
}

func (m SetHeightBucket) apply(d *FilterDraft) {
	if m.Bucket.Valid() {
		d.height = m.Bucket
	}
}

func (m SetQuery) apply(d *FilterDraft) { d.query = m.Query }

func (m SetNdexRange) apply(d *FilterDraft) {
	lo := d.clampToCatalog(m.Range.Min)
	hi := d.clampToCatalog(m.Range.Max)
	if hi < lo {
		hi = lo
	}
	d.ndex = data.IntRange{Min: lo, Max: hi}
}

func (m SetNdexMin) apply(d *FilterDraft) {
	lo := max(1, m.Min)
	if lo > d.ndex.Max {
		lo = max(1, d.ndex.Max)
	}
	d.ndex.Min = lo
	if d.ndex.Max < lo {
		d.ndex.Max = lo
	}
}

func (m SetNdexMax) apply(d *FilterDraft) {
	hi := d.clampToCatalog(m.Max)
	if hi < d.ndex.Min {
		hi = d.ndex.Min
	}
	d.ndex.Max = hi
	if d.ndex.Min < 1 {
		d.ndex.Min = 1
	}
}

func (d *FilterDraft) clampToCatalog(v int) int {
	v = max(1, v)
	if d.ndexCeiling > 0 && v > d.ndexCeiling {
		v = d.ndexCeiling
	}
	return v
}

func indexOf(ids []int, id int) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
