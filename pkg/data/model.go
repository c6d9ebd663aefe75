package data

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// FilterOption is a selectable facet value (a type or an ability)
type FilterOption struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type IntRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (r IntRange) Valid() bool { return r.Min <= r.Max }

type FloatRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (r FloatRange) Valid() bool { return r.Min <= r.Max }

// FilterCatalog enumerates the selectable facets and their global bounds.
// It is provided by the server and read-only for the session.
type FilterCatalog struct {
	Types       []FilterOption `json:"types"`
	Abilities   []FilterOption `json:"abilities"`
	NdexRange   IntRange       `json:"ndexRange"`
	WeightRange FloatRange     `json:"weightRange"`
	HeightRange FloatRange     `json:"heightRange"`
}

// Validate checks min <= max on every range
func (c *FilterCatalog) Validate() error {
	if !c.NdexRange.Valid() {
		return errors.Errorf("invalid ndex range [%d, %d]", c.NdexRange.Min, c.NdexRange.Max)
	}
	if !c.WeightRange.Valid() {
		return errors.Errorf("invalid weight range [%g, %g]", c.WeightRange.Min, c.WeightRange.Max)
	}
	if !c.HeightRange.Valid() {
		return errors.Errorf("invalid height range [%g, %g]", c.HeightRange.Min, c.HeightRange.Max)
	}
	return nil
}

func (c *FilterCatalog) TypeName(id int) string {
	if c == nil {
		return ""
	}
	for _, t := range c.Types {
		if t.ID == id {
			return t.Name
		}
	}
	return ""
}

func (c *FilterCatalog) AbilityName(id int) string {
	if c == nil {
		return ""
	}
	for _, a := range c.Abilities {
		if a.ID == id {
			return a.Name
		}
	}
	return ""
}

type CatalogEntry struct {
	ID       int            `json:"id"`
	Ndex     int            `json:"ndex"`
	Species  string         `json:"species"`
	Forme    string         `json:"forme"`
	Class    string         `json:"pokemonClass"`
	Types    []FilterOption `json:"types"`
	ImageURL string         `json:"imageUrl"`
}

func (e CatalogEntry) Name() string {
	if e.Forme == "" || e.Forme == e.Species {
		return e.Species
	}
	return fmt.Sprintf("%s (%s)", e.Species, e.Forme)
}

// DisplayNumber renders the dex number the way the cards show it: N°0025
func (e CatalogEntry) DisplayNumber() string {
	return fmt.Sprintf("N°%04d", e.Ndex)
}

// ResultPage mirrors the backend's paged response
type ResultPage struct {
	Items      []CatalogEntry `json:"items"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalItems int64          `json:"totalItems"`
	TotalPages int            `json:"totalPages"`
	Last       bool           `json:"last"`
}

type PokemonDetails struct {
	ID            int           `json:"id"`
	Ndex          int           `json:"ndex"`
	Species       string        `json:"species"`
	Forme         string        `json:"forme"`
	Dex1          string        `json:"dex1"`
	Dex2          string        `json:"dex2"`
	Type1         *FilterOption `json:"type1"`
	Type2         *FilterOption `json:"type2"`
	Ability1      *FilterOption `json:"ability1"`
	Ability2      *FilterOption `json:"ability2"`
	HiddenAbility *FilterOption `json:"hiddenAbility"`
	HP            int           `json:"hp"`
	Attack        int           `json:"attack"`
	Defense       int           `json:"defense"`
	SpAttack      int           `json:"spattack"`
	SpDefense     int           `json:"spdefense"`
	Speed         int           `json:"speed"`
	Total         int           `json:"total"`
	Weight        float64       `json:"weight"`
	Height        float64       `json:"height"`
	Class         string        `json:"pokemonClass"`
	PercentMale   *float64      `json:"percentMale"`
	PercentFemale *float64      `json:"percentFemale"`
	EggGroup1     string        `json:"eggGroup1"`
	EggGroup2     string        `json:"eggGroup2"`
	ImageURL      string        `json:"imageUrl"`
}

// Entry projects the details onto the list shape
func (p *PokemonDetails) Entry() CatalogEntry {
	e := CatalogEntry{
		ID:       p.ID,
		Ndex:     p.Ndex,
		Species:  p.Species,
		Forme:    p.Forme,
		Class:    p.Class,
		ImageURL: p.ImageURL,
	}
	for _, t := range []*FilterOption{p.Type1, p.Type2} {
		if t != nil {
			e.Types = append(e.Types, *t)
		}
	}
	return e
}

// AuthSession is what a successful login leaves behind locally
type AuthSession struct {
	Token     string
	UserID    int
	Username  string
	CreatedAt time.Time
}
