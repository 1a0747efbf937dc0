package engine

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/mappichat/heatmap-engine/src/project_types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constantMatrix(v float64) project_types.ActivityMatrix {
	var m project_types.ActivityMatrix
	for day := range m {
		for hour := range m[day] {
			m[day][hour] = v
		}
	}
	return m
}

func scored(id string, category string, lat float64, lng float64, m project_types.ActivityMatrix) project_types.ScoredPOI {
	return project_types.ScoredPOI{
		POI:      project_types.POI{ID: id, Category: category, Lat: lat, Lng: lng},
		Activity: m,
	}
}

func testIndexer(t *testing.T) *Indexer {
	indexer, err := NewIndexer(8)
	require.NoError(t, err)
	return indexer
}

// spreadPOIs scatters n synthesized POIs over central Kyiv.
func spreadPOIs(n int) []project_types.ScoredPOI {
	normalizer := testNormalizer()
	categories := []string{"restaurant", "cafe", "gym", "office", "park"}
	pois := make([]project_types.ScoredPOI, 0, n)
	for i := 0; i < n; i++ {
		poi := project_types.POI{
			ID:       fmt.Sprintf("node/%d", i),
			Category: categories[i%len(categories)],
			Lat:      kyivLat + float64(i%7)*0.002,
			Lng:      kyivLng + float64(i%5)*0.003,
		}
		pois = append(pois, project_types.ScoredPOI{POI: poi, Activity: normalizer.Normalize(poi)})
	}
	return pois
}

func TestAggregateSingleCellScenario(t *testing.T) {
	m1, m2, m3 := constantMatrix(10.04), constantMatrix(20.02), constantMatrix(45.1)
	pois := []project_types.ScoredPOI{
		scored("a", "restaurant", kyivLat, kyivLng, m1),
		scored("b", "restaurant", kyivLat+0.00001, kyivLng, m2),
		scored("c", "cafe", kyivLat, kyivLng+0.00001, m3),
	}

	cells := Aggregate(testIndexer(t), pois)
	require.Len(t, cells, 1)

	for _, cell := range cells {
		assert.Equal(t, 3, cell.PoiCount)
		assert.Equal(t, []string{"cafe", "restaurant"}, cell.Categories)
		assert.InDelta(t, (10.04+20.02+45.1)/3, cell.Combined[0][12], 1e-9)
		assert.Equal(t, 2, cell.ByCategory["restaurant"].Count)
		assert.Equal(t, 1, cell.ByCategory["cafe"].Count)

		points := Expand(cell)
		noon := points[12]
		require.Equal(t, 0, noon.Day)
		require.Equal(t, 12, noon.Hour)
		assert.Equal(t, math.Round((10.04+20.02+45.1)/3*10)/10, noon.Intensity)
		assert.Equal(t, 45.1, noon.ByCategory["cafe"])
		assert.Equal(t, 15.0, noon.ByCategory["restaurant"])
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	cells := Aggregate(testIndexer(t), nil)
	assert.NotNil(t, cells)
	assert.Empty(t, cells)
}

func TestAggregateSkipsInvalidCoordinates(t *testing.T) {
	pois := spreadPOIs(20)
	pois = append(pois,
		scored("bad-lat", "cafe", 123, kyivLng, constantMatrix(90)),
		scored("nan", "cafe", math.NaN(), kyivLng, constantMatrix(90)),
	)

	aggregator := NewAggregator(testIndexer(t))
	for _, p := range pois {
		err := aggregator.Add(p.POI, p.Activity)
		if p.POI.ID == "bad-lat" || p.POI.ID == "nan" {
			assert.ErrorIs(t, err, ErrInvalidCoordinate)
		} else {
			assert.NoError(t, err)
		}
	}

	cells := aggregator.Finalize()
	assert.Equal(t, 20, project_types.CellsTotalPois(cells))
	assert.Equal(t, AggregateStats{Added: 20, Skipped: 2}, aggregator.Stats())
}

func TestAggregateConservation(t *testing.T) {
	pois := spreadPOIs(200)
	cells := Aggregate(testIndexer(t), pois)
	assert.Equal(t, 200, project_types.CellsTotalPois(cells))
	assert.Greater(t, len(cells), 1)

	for _, cell := range cells {
		total := 0
		for _, category := range cell.Categories {
			total += cell.ByCategory[category].Count
		}
		assert.Equal(t, cell.PoiCount, total)
	}
}

func TestAggregateIsDeterministic(t *testing.T) {
	pois := spreadPOIs(100)
	assert.Equal(t, Aggregate(testIndexer(t), pois), Aggregate(testIndexer(t), pois))
}

func TestAggregateOrderInvariance(t *testing.T) {
	pois := spreadPOIs(150)
	shuffled := make([]project_types.ScoredPOI, len(pois))
	copy(shuffled, pois)
	rand.New(rand.NewSource(7)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	expected := Aggregate(testIndexer(t), pois)
	actual := Aggregate(testIndexer(t), shuffled)

	require.Equal(t, expected.SortedIDs(), actual.SortedIDs())
	for cellID, want := range expected {
		got := actual[cellID]
		assert.Equal(t, want.PoiCount, got.PoiCount)
		assert.Equal(t, want.Categories, got.Categories)
		assertMatrixInDelta(t, want.Combined, got.Combined)
		for category, activity := range want.ByCategory {
			assert.Equal(t, activity.Count, got.ByCategory[category].Count)
			assertMatrixInDelta(t, activity.Hours, got.ByCategory[category].Hours)
		}
	}
}

func assertMatrixInDelta(t *testing.T, want project_types.ActivityMatrix, got project_types.ActivityMatrix) {
	t.Helper()
	for day := range want {
		for hour := range want[day] {
			assert.InDelta(t, want[day][hour], got[day][hour], 1e-9)
		}
	}
}

func TestFinalizeDoesNotRound(t *testing.T) {
	pois := []project_types.ScoredPOI{
		scored("a", "bar", kyivLat, kyivLng, constantMatrix(1)),
		scored("b", "bar", kyivLat, kyivLng, constantMatrix(2)),
		scored("c", "bar", kyivLat, kyivLng, constantMatrix(2)),
	}
	for _, cell := range Aggregate(testIndexer(t), pois) {
		assert.InDelta(t, 5.0/3, cell.Combined[3][3], 1e-12)
	}
}

func TestCoarsen(t *testing.T) {
	aggregator := aggregateInto(NewAggregator(testIndexer(t)), spreadPOIs(200))
	fine := aggregator.Finalize()

	coarse, err := aggregator.Coarsen(6)
	require.NoError(t, err)
	coarseCells := coarse.Finalize()

	assert.LessOrEqual(t, len(coarseCells), len(fine))
	assert.Equal(t, project_types.CellsTotalPois(fine), project_types.CellsTotalPois(coarseCells))
	for cellID := range fine {
		parent, err := ParentOf(cellID, 6)
		require.NoError(t, err)
		assert.Contains(t, coarseCells, parent)
	}

	same, err := aggregator.Coarsen(8)
	require.NoError(t, err)
	assert.Equal(t, fine, same.Finalize())

	_, err = aggregator.Coarsen(9)
	assert.ErrorIs(t, err, ErrInvalidResolution)
}

func TestCoarsenKeepsExactMeans(t *testing.T) {
	indexer := testIndexer(t)
	aggregator := NewAggregator(indexer)
	require.NoError(t, aggregator.Add(project_types.POI{ID: "a", Category: "cafe", Lat: kyivLat, Lng: kyivLng}, constantMatrix(10)))
	require.NoError(t, aggregator.Add(project_types.POI{ID: "b", Category: "cafe", Lat: kyivLat, Lng: kyivLng}, constantMatrix(20)))
	require.NoError(t, aggregator.Add(project_types.POI{ID: "c", Category: "gym", Lat: kyivLat, Lng: kyivLng}, constantMatrix(60)))

	coarse, err := aggregator.Coarsen(5)
	require.NoError(t, err)
	cells := coarse.Finalize()
	require.Len(t, cells, 1)
	for _, cell := range cells {
		assert.Equal(t, 3, cell.PoiCount)
		assert.InDelta(t, 30.0, cell.Combined[0][0], 1e-9)
		assert.InDelta(t, 15.0, cell.ByCategory["cafe"].Hours[0][0], 1e-9)
		assert.InDelta(t, 60.0, cell.ByCategory["gym"].Hours[0][0], 1e-9)
	}
}
