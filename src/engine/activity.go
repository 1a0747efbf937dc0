package engine

import (
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/mappichat/heatmap-engine/src/project_types"
	"github.com/mappichat/heatmap-engine/src/utils"
)

// Normalizer turns raw or missing popular-times samples into a canonical
// 7x24 matrix. It only reads its pattern table and city center.
type Normalizer struct {
	patterns project_types.PatternTable
	center   project_types.LatLng
}

func NewNormalizer(patterns project_types.PatternTable, center project_types.LatLng) *Normalizer {
	return &Normalizer{patterns: patterns, center: center}
}

func (n *Normalizer) Normalize(poi project_types.POI) project_types.ActivityMatrix {
	if len(poi.Activity) > 0 {
		return NormalizeRaw(poi.Activity)
	}
	return n.Synthesize(poi.Category, poi.ID, poi.Lat, poi.Lng)
}

// Score normalizes every poi in order.
func (n *Normalizer) Score(pois []project_types.POI) []project_types.ScoredPOI {
	scored := make([]project_types.ScoredPOI, len(pois))
	for i, poi := range pois {
		scored[i] = project_types.ScoredPOI{POI: poi, Activity: n.Normalize(poi)}
	}
	return scored
}

func clampIntensity(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

// NormalizeRaw drops rows past Sunday and hours past 23, and zero-fills
// whatever is missing.
func NormalizeRaw(raw [][]float64) project_types.ActivityMatrix {
	var m project_types.ActivityMatrix
	for day := 0; day < project_types.Days && day < len(raw); day++ {
		for hour := 0; hour < project_types.Hours && hour < len(raw[day]); hour++ {
			m[day][hour] = clampIntensity(raw[day][hour])
		}
	}
	return m
}

func (n *Normalizer) pattern(category string) project_types.Pattern {
	if p, ok := n.patterns[category]; ok {
		return p
	}
	return n.patterns[project_types.DefaultCategory]
}

func seedOf(id string) int64 {
	h := fnv.New64a()
	h.Write([]byte(id))
	return int64(h.Sum64())
}

func uniform(r *rand.Rand, lo float64, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

// locationModifier boosts POIs near the city center and tapers off with
// distance, never going below 0.5.
func locationModifier(distKm float64) float64 {
	switch {
	case distKm < 2:
		return 1.2 - (distKm/2)*0.2
	case distKm < 5:
		return 1.0 - (distKm-2)/3*0.2
	default:
		return math.Max(0.5, 0.8-(distKm-5)/10*0.3)
	}
}

// Synthesize builds a matrix from the category's base curves. The same
// seed always produces the same matrix.
func (n *Normalizer) Synthesize(category string, seed string, lat float64, lng float64) project_types.ActivityMatrix {
	pattern := n.pattern(category)
	r := rand.New(rand.NewSource(seedOf(seed)))

	intensityMod := uniform(r, 0.5, 1.5)
	shift := r.Intn(5) - 2
	var dayVariation [project_types.Days]float64
	for day := range dayVariation {
		dayVariation[day] = uniform(r, 0.7, 1.3)
	}

	locationMod := 1.0
	if validCoordinate(lat, lng) {
		locationMod = locationModifier(utils.Distance(lat, lng, n.center.Lat, n.center.Lng))
	}

	var m project_types.ActivityMatrix
	for day := 0; day < project_types.Days; day++ {
		base := pattern.Weekday
		if day >= 5 {
			base = pattern.Weekend
		}
		for hour := 0; hour < project_types.Hours; hour++ {
			value := base[((hour+shift)%project_types.Hours+project_types.Hours)%project_types.Hours]
			noise := uniform(r, 0.85, 1.15)
			m[day][hour] = math.Trunc(clampIntensity(value * intensityMod * dayVariation[day] * locationMod * noise))
		}
	}
	return m
}
