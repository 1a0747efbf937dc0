package engine

import (
	"fmt"
	"sort"

	"github.com/apex/log"
	"github.com/mappichat/heatmap-engine/src/project_types"
)

// accumulator keeps explicit sums and sample counts so the mean does not
// depend on the order POIs arrive in.
type accumulator struct {
	sum   project_types.ActivityMatrix
	count [project_types.Days][project_types.Hours]int
}

func (a *accumulator) add(m *project_types.ActivityMatrix) {
	for day := 0; day < project_types.Days; day++ {
		for hour := 0; hour < project_types.Hours; hour++ {
			a.sum[day][hour] += m[day][hour]
			a.count[day][hour]++
		}
	}
}

func (a *accumulator) merge(other *accumulator) {
	for day := 0; day < project_types.Days; day++ {
		for hour := 0; hour < project_types.Hours; hour++ {
			a.sum[day][hour] += other.sum[day][hour]
			a.count[day][hour] += other.count[day][hour]
		}
	}
}

func (a *accumulator) mean() project_types.ActivityMatrix {
	var m project_types.ActivityMatrix
	for day := 0; day < project_types.Days; day++ {
		for hour := 0; hour < project_types.Hours; hour++ {
			if a.count[day][hour] > 0 {
				m[day][hour] = a.sum[day][hour] / float64(a.count[day][hour])
			}
		}
	}
	return m
}

type categoryAccumulator struct {
	count int
	hours accumulator
}

type cellAccumulator struct {
	poiCount   int
	combined   accumulator
	byCategory map[string]*categoryAccumulator
}

func newCellAccumulator() *cellAccumulator {
	return &cellAccumulator{byCategory: map[string]*categoryAccumulator{}}
}

func (c *cellAccumulator) category(name string) *categoryAccumulator {
	acc, ok := c.byCategory[name]
	if !ok {
		acc = &categoryAccumulator{}
		c.byCategory[name] = acc
	}
	return acc
}

type AggregateStats struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// Aggregator folds POIs into per-cell running statistics. It is not safe
// for concurrent use; run one per city.
type Aggregator struct {
	indexer *Indexer
	cells   map[string]*cellAccumulator
	stats   AggregateStats
}

func NewAggregator(indexer *Indexer) *Aggregator {
	return &Aggregator{indexer: indexer, cells: map[string]*cellAccumulator{}}
}

func (a *Aggregator) Stats() AggregateStats {
	return a.stats
}

func (a *Aggregator) Len() int {
	return len(a.cells)
}

// Add folds one POI into its cell. A POI with an invalid coordinate is
// counted as skipped and leaves every cell untouched.
func (a *Aggregator) Add(poi project_types.POI, activity project_types.ActivityMatrix) error {
	cellID, err := a.indexer.CellOf(poi.Lat, poi.Lng)
	if err != nil {
		a.stats.Skipped++
		return fmt.Errorf("poi %s: %w", poi.ID, err)
	}

	cell, ok := a.cells[cellID]
	if !ok {
		cell = newCellAccumulator()
		a.cells[cellID] = cell
	}
	cell.poiCount++
	cell.combined.add(&activity)
	category := cell.category(poi.Category)
	category.count++
	category.hours.add(&activity)

	a.stats.Added++
	return nil
}

// Finalize computes the means. The aggregator may keep receiving POIs
// afterwards; earlier results are unaffected.
func (a *Aggregator) Finalize() project_types.Cells {
	result := make(project_types.Cells, len(a.cells))
	for cellID, cell := range a.cells {
		lat, lng, err := CentroidOf(cellID)
		if err != nil {
			// every key was produced by CellOf
			panic(err)
		}

		categories := make([]string, 0, len(cell.byCategory))
		byCategory := make(map[string]project_types.CategoryActivity, len(cell.byCategory))
		for name, acc := range cell.byCategory {
			categories = append(categories, name)
			byCategory[name] = project_types.CategoryActivity{Count: acc.count, Hours: acc.hours.mean()}
		}
		sort.Strings(categories)

		result[cellID] = project_types.CellAggregate{
			CellID:     cellID,
			Lat:        lat,
			Lng:        lng,
			PoiCount:   cell.poiCount,
			Categories: categories,
			Combined:   cell.combined.mean(),
			ByCategory: byCategory,
		}
	}
	return result
}

// Coarsen merges every cell into its ancestor at a coarser resolution.
// Sums and counts are merged, so every parent holds the exact means of
// the POIs whose cells descend from it.
func (a *Aggregator) Coarsen(resolution int) (*Aggregator, error) {
	if resolution > a.indexer.Resolution() {
		return nil, fmt.Errorf("%w: %d is finer than %d", ErrInvalidResolution, resolution, a.indexer.Resolution())
	}
	indexer, err := NewIndexer(resolution)
	if err != nil {
		return nil, err
	}
	coarse := NewAggregator(indexer)
	coarse.stats = a.stats
	for cellID, cell := range a.cells {
		parentID, err := ParentOf(cellID, resolution)
		if err != nil {
			return nil, err
		}
		parent, ok := coarse.cells[parentID]
		if !ok {
			parent = newCellAccumulator()
			coarse.cells[parentID] = parent
		}
		parent.poiCount += cell.poiCount
		parent.combined.merge(&cell.combined)
		for name, acc := range cell.byCategory {
			target := parent.category(name)
			target.count += acc.count
			target.hours.merge(&acc.hours)
		}
	}
	return coarse, nil
}

// Aggregate folds scored POIs into cells, logging and skipping the ones
// with unusable coordinates.
func Aggregate(indexer *Indexer, pois []project_types.ScoredPOI) project_types.Cells {
	return aggregateInto(NewAggregator(indexer), pois).Finalize()
}

func aggregateInto(aggregator *Aggregator, pois []project_types.ScoredPOI) *Aggregator {
	for _, scored := range pois {
		if err := aggregator.Add(scored.POI, scored.Activity); err != nil {
			log.WithField("poi", scored.POI.ID).WithError(err).Warn("skipping poi")
		}
	}
	return aggregator
}
