package project_types

import (
	"sort"
)

const (
	Days  = 7
	Hours = 24
)

var DayNames = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// ActivityMatrix holds relative intensity by day (Monday = 0) and hour.
type ActivityMatrix [Days][Hours]float64

type POI struct {
	ID       string      `json:"id"`
	Name     string      `json:"name,omitempty"`
	Category string      `json:"category"`
	Lat      float64     `json:"lat"`
	Lng      float64     `json:"lng"`
	Activity [][]float64 `json:"activity,omitempty"`
}

// POIFile is the on-disk layout written by the POI collectors.
type POIFile struct {
	Pois []POI `json:"pois"`
}

// ScoredPOI is a POI paired with its canonical activity matrix.
type ScoredPOI struct {
	POI      POI
	Activity ActivityMatrix
}

type LatLng struct {
	Lat float64 `json:"lat" yaml:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" yaml:"lng" validate:"min=-180,max=180"`
}

type CategoryActivity struct {
	Count int            `json:"count"`
	Hours ActivityMatrix `json:"hours"`
}

// CellAggregate is the finalized per-hexagon summary. It is never mutated
// once returned by the aggregator.
type CellAggregate struct {
	CellID     string                      `json:"cell_id"`
	Lat        float64                     `json:"lat"`
	Lng        float64                     `json:"lng"`
	PoiCount   int                         `json:"poi_count"`
	Categories []string                    `json:"categories"`
	Combined   ActivityMatrix              `json:"combined"`
	ByCategory map[string]CategoryActivity `json:"by_category"`
}

type HeatmapPoint struct {
	CellID     string             `json:"cell_id"`
	Lat        float64            `json:"lat"`
	Lng        float64            `json:"lng"`
	Day        int                `json:"day"`
	Hour       int                `json:"hour"`
	Intensity  float64            `json:"intensity"`
	PoiCount   int                `json:"poi_count"`
	Categories []string           `json:"categories"`
	ByCategory map[string]float64 `json:"by_category"`
}

type Cells map[string]CellAggregate

// SortedIDs returns the cell ids in ascending order.
func (c Cells) SortedIDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AllCategories is the sorted union of categories present in any cell.
func (c Cells) AllCategories() []string {
	seen := map[string]bool{}
	for _, cell := range c {
		for _, category := range cell.Categories {
			seen[category] = true
		}
	}
	categories := make([]string, 0, len(seen))
	for category := range seen {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

func CellsTotalPois(cells Cells) int {
	sum := 0
	for _, cell := range cells {
		sum += cell.PoiCount
	}
	return sum
}

type Pattern struct {
	Weekday [Hours]float64 `json:"weekday" yaml:"weekday"`
	Weekend [Hours]float64 `json:"weekend" yaml:"weekend"`
}

// PatternTable maps a category to its base curves. The "default" entry is
// used for categories without their own pattern.
type PatternTable map[string]Pattern

const DefaultCategory = "default"

type City struct {
	Key    string     `json:"key" yaml:"key" validate:"required"`
	Name   string     `json:"name" yaml:"name" validate:"required"`
	NameEn string     `json:"name_en" yaml:"name_en" validate:"required"`
	Center LatLng     `json:"center" yaml:"center"`
	BBox   [4]float64 `json:"bbox" yaml:"bbox"`
}

type Tier string

const (
	TierFull     Tier = "full"
	TierStandard Tier = "standard"
	TierCompact  Tier = "compact"
	TierPoints   Tier = "points"
	TierGeoJSON  Tier = "geojson"
)

var AllTiers = []Tier{TierFull, TierStandard, TierCompact, TierPoints, TierGeoJSON}

type EngineOptions struct {
	Resolution        int          `json:"resolution" yaml:"resolution" validate:"min=0,max=15"`
	ParentResolutions []int        `json:"parent_resolutions" yaml:"parent_resolutions" validate:"dive,min=0,max=15"`
	Encodings         []Tier       `json:"encodings" yaml:"encodings" validate:"required,min=1,dive,oneof=full standard compact points geojson"`
	Workers           int          `json:"workers" yaml:"workers" validate:"min=0"`
	DefaultCity       string       `json:"default_city" yaml:"default_city" validate:"required"`
	Cities            []City       `json:"cities" yaml:"cities" validate:"required,min=1,dive"`
	Patterns          PatternTable `json:"patterns" yaml:"patterns" validate:"required"`
}

// City looks up a configured city by key.
func (o *EngineOptions) City(key string) (City, bool) {
	for _, city := range o.Cities {
		if city.Key == key {
			return city, true
		}
	}
	return City{}, false
}
