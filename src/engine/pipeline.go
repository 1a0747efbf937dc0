package engine

import (
	"errors"
	"fmt"
	"path"
	"runtime"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/mappichat/heatmap-engine/src/project_types"
	"github.com/mappichat/heatmap-engine/src/utils"
)

var ErrInputNotFound = errors.New("input not found")

// POISource supplies the POIs collected for a city. Implementations return
// an error wrapping ErrInputNotFound when the city has no input yet.
type POISource interface {
	Load(city project_types.City) ([]project_types.POI, error)
}

type CityResult struct {
	City  project_types.City
	Cells project_types.Cells
	Stats AggregateStats
	Files []string
}

func ArtifactFile(cityKey string, tier project_types.Tier) string {
	switch tier {
	case project_types.TierStandard:
		return fmt.Sprintf("heatmap_%s.json", cityKey)
	case project_types.TierGeoJSON:
		return fmt.Sprintf("heatmap_%s.geojson", cityKey)
	default:
		return fmt.Sprintf("heatmap_%s_%s.json", cityKey, tier)
	}
}

// PrimaryArtifactFile is the first requested encoding, the file that marks a
// city as generated.
func PrimaryArtifactFile(cityKey string, options *project_types.EngineOptions) string {
	if len(options.Encodings) == 0 {
		return ArtifactFile(cityKey, project_types.TierStandard)
	}
	return ArtifactFile(cityKey, options.Encodings[0])
}

func ParentArtifactFile(cityKey string, resolution int) string {
	return fmt.Sprintf("heatmap_%s_res%d_compact.json", cityKey, resolution)
}

// Encode builds the requested tier from finalized cells.
func Encode(tier project_types.Tier, cells project_types.Cells, meta Meta) (interface{}, error) {
	switch tier {
	case project_types.TierFull:
		return EncodeFull(cells, meta), nil
	case project_types.TierStandard:
		return EncodeStandard(cells, meta), nil
	case project_types.TierCompact:
		return EncodeCompact(cells, meta), nil
	case project_types.TierPoints:
		return EncodePoints(cells, meta), nil
	case project_types.TierGeoJSON:
		return EncodeGeoJSON(cells, meta)
	default:
		return nil, fmt.Errorf("unknown encoding %q", tier)
	}
}

func WriteEncodings(cells project_types.Cells, meta Meta, tiers []project_types.Tier, outDir string) ([]string, error) {
	files := []string{}
	for _, tier := range tiers {
		encoded, err := Encode(tier, cells, meta)
		if err != nil {
			return files, err
		}
		filePath := path.Join(outDir, ArtifactFile(meta.City, tier))
		if err := utils.WriteAsJsonFile(encoded, filePath); err != nil {
			return files, err
		}
		files = append(files, filePath)
	}
	return files, nil
}

// GenerateCity runs the whole pipeline for one city and writes its artifacts.
func GenerateCity(source POISource, city project_types.City, options *project_types.EngineOptions, outDir string, created time.Time) (*CityResult, error) {
	pois, err := source.Load(city)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", city.Key, err)
	}
	log.WithField("city", city.Key).Infof("loaded %d pois", len(pois))

	indexer, err := NewIndexer(options.Resolution)
	if err != nil {
		return nil, err
	}
	normalizer := NewNormalizer(options.Patterns, city.Center)
	aggregator := aggregateInto(NewAggregator(indexer), normalizer.Score(pois))
	cells := aggregator.Finalize()
	log.WithField("city", city.Key).Infof("created %d hexagons (%d pois skipped)", len(cells), aggregator.Stats().Skipped)

	meta := NewMeta(city, options.Resolution, cells, created)
	files, err := WriteEncodings(cells, meta, options.Encodings, outDir)
	if err != nil {
		return nil, fmt.Errorf("writing %s: %w", city.Key, err)
	}

	for _, resolution := range options.ParentResolutions {
		coarse, err := aggregator.Coarsen(resolution)
		if err != nil {
			return nil, err
		}
		coarseCells := coarse.Finalize()
		filePath := path.Join(outDir, ParentArtifactFile(city.Key, resolution))
		encoded := EncodeCompact(coarseCells, NewMeta(city, resolution, coarseCells, created))
		if err := utils.WriteAsJsonFile(encoded, filePath); err != nil {
			return nil, fmt.Errorf("writing %s: %w", city.Key, err)
		}
		files = append(files, filePath)
	}

	return &CityResult{City: city, Cells: cells, Stats: aggregator.Stats(), Files: files}, nil
}

// GenerateAndWriteCities processes cities concurrently. A city that fails
// is logged and left out of the result; the others still run.
func GenerateAndWriteCities(source POISource, cityKeys []string, options *project_types.EngineOptions, outDir string, skipExisting bool, created time.Time) map[string]*CityResult {
	processes := options.Workers
	if processes <= 0 {
		processes = runtime.GOMAXPROCS(0)
	}
	log.Infof("max processes running: %d", processes)
	wg := sync.WaitGroup{}
	guard := make(chan struct{}, processes)
	mutex := sync.Mutex{}
	results := map[string]*CityResult{}

	for _, key := range cityKeys {
		city, ok := options.City(key)
		if !ok {
			log.WithField("city", key).Warn("unknown city")
			continue
		}
		if skipExisting && utils.FileExists(path.Join(outDir, PrimaryArtifactFile(key, options))) {
			log.WithField("city", key).Info("skipping, output exists")
			continue
		}

		wg.Add(1)
		guard <- struct{}{}
		go func(city project_types.City) {
			defer func() {
				wg.Done()
				<-guard
			}()
			result, err := GenerateCity(source, city, options, outDir, created)
			if err != nil {
				log.WithField("city", city.Key).WithError(err).Error("city not generated")
				return
			}
			mutex.Lock()
			results[city.Key] = result
			mutex.Unlock()
		}(city)
	}
	wg.Wait()

	return results
}
