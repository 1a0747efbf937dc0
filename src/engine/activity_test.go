package engine

import (
	"math"
	"testing"

	"github.com/mappichat/heatmap-engine/src/project_types"
	"github.com/mappichat/heatmap-engine/src/utils"
	"github.com/stretchr/testify/assert"
)

func testNormalizer() *Normalizer {
	return NewNormalizer(utils.DefaultOptions().Patterns, project_types.LatLng{Lat: kyivLat, Lng: kyivLng})
}

func row(values ...float64) []float64 {
	return values
}

func TestNormalizeRawShapes(t *testing.T) {
	long := make([]float64, 30)
	for i := range long {
		long[i] = float64(i)
	}
	raw := [][]float64{long, row(5, 6), nil, long, long, long, long, long, long}

	m := NormalizeRaw(raw)

	assert.Equal(t, 23.0, m[0][23])
	assert.Equal(t, 5.0, m[1][0])
	assert.Equal(t, 6.0, m[1][1])
	assert.Equal(t, 0.0, m[1][2])
	assert.Equal(t, project_types.ActivityMatrix{}[2], m[2])
	assert.Equal(t, 10.0, m[6][10])
}

func TestNormalizeRawMissingRows(t *testing.T) {
	m := NormalizeRaw([][]float64{row(1, 2, 3)})
	assert.Equal(t, 3.0, m[0][2])
	for day := 1; day < project_types.Days; day++ {
		for hour := 0; hour < project_types.Hours; hour++ {
			assert.Zero(t, m[day][hour])
		}
	}
}

func TestNormalizeRawClampsValues(t *testing.T) {
	m := NormalizeRaw([][]float64{row(150, -5, math.NaN(), math.Inf(1), 42.5)})
	assert.Equal(t, 100.0, m[0][0])
	assert.Equal(t, 0.0, m[0][1])
	assert.Equal(t, 0.0, m[0][2])
	assert.Equal(t, 0.0, m[0][3])
	assert.Equal(t, 42.5, m[0][4])
}

func TestNormalizePrefersRawSamples(t *testing.T) {
	n := testNormalizer()
	poi := project_types.POI{ID: "node/1", Category: "cafe", Lat: kyivLat, Lng: kyivLng, Activity: [][]float64{row(7)}}
	m := n.Normalize(poi)
	assert.Equal(t, 7.0, m[0][0])
	assert.Equal(t, 0.0, m[0][9])
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	n := testNormalizer()
	first := n.Synthesize("restaurant", "node/42", 50.46, 30.51)
	second := n.Synthesize("restaurant", "node/42", 50.46, 30.51)
	assert.Equal(t, first, second)

	other := n.Synthesize("restaurant", "node/43", 50.46, 30.51)
	assert.NotEqual(t, first, other)
}

func TestSynthesizeRange(t *testing.T) {
	n := testNormalizer()
	for _, category := range []string{"restaurant", "cafe", "gym", "office", "bar", "park", "hotel"} {
		m := n.Synthesize(category, "way/"+category, 50.40, 30.60)
		for day := range m {
			for hour := range m[day] {
				v := m[day][hour]
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 100.0)
				assert.Equal(t, math.Trunc(v), v)
			}
		}
	}
}

func TestSynthesizeQuietNightHours(t *testing.T) {
	n := testNormalizer()
	// restaurant curves are zero from 0:00 to 5:00, so hours 2 and 3 stay
	// zero under any shift of up to two hours
	m := n.Synthesize("restaurant", "node/7", kyivLat, kyivLng)
	for day := range m {
		assert.Zero(t, m[day][2])
		assert.Zero(t, m[day][3])
	}
}

func TestSynthesizeUnknownCategoryUsesDefault(t *testing.T) {
	n := testNormalizer()
	unknown := n.Synthesize("spaceport", "node/9", 50.41, 30.52)
	fallback := n.Synthesize(project_types.DefaultCategory, "node/9", 50.41, 30.52)
	assert.Equal(t, fallback, unknown)
}

func TestSynthesizeOfficeWeekendIsQuieter(t *testing.T) {
	n := testNormalizer()
	m := n.Synthesize("office", "node/11", kyivLat, kyivLng)
	weekday, weekend := 0.0, 0.0
	for hour := 0; hour < project_types.Hours; hour++ {
		weekday += m[0][hour]
		weekend += m[6][hour]
	}
	assert.Greater(t, weekday, weekend)
}

func TestLocationModifier(t *testing.T) {
	tests := []struct {
		dist     float64
		expected float64
	}{
		{0, 1.2},
		{1, 1.1},
		{2, 1.0},
		{3.5, 0.9},
		{5, 0.8},
		{10, 0.65},
		{15, 0.5},
		{100, 0.5},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.expected, locationModifier(tt.dist), 1e-9, "distance %.1f", tt.dist)
	}
}
