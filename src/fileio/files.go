package fileio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path"

	"github.com/go-playground/validator"
	"github.com/mappichat/heatmap-engine/src/engine"
	"github.com/mappichat/heatmap-engine/src/project_types"
	"github.com/mappichat/heatmap-engine/src/utils"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// LoadOptions overlays a yaml config file on the built-in defaults.
func LoadOptions(filePath string) (project_types.EngineOptions, error) {
	options := utils.DefaultOptions()
	if filePath != "" {
		data, err := utils.ReadFile(filePath)
		if err != nil {
			return options, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &options); err != nil {
			return options, fmt.Errorf("failed to parse config yaml: %w", err)
		}
		if err := overlayPatterns(data, &options); err != nil {
			return options, err
		}
	}
	if err := ValidateOptions(&options); err != nil {
		return options, err
	}
	return options, nil
}

// patternOverride leaves a curve nil when the config file does not set it.
type patternOverride struct {
	Weekday *[project_types.Hours]float64 `yaml:"weekday"`
	Weekend *[project_types.Hours]float64 `yaml:"weekend"`
}

// overlayPatterns merges configured curves over the built-in ones, so a
// category may override just one of its curves. New categories need both.
func overlayPatterns(data []byte, options *project_types.EngineOptions) error {
	overrides := struct {
		Patterns map[string]patternOverride `yaml:"patterns"`
	}{}
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("failed to parse config yaml: %w", err)
	}
	defaults := utils.DefaultOptions().Patterns
	for category, override := range overrides.Patterns {
		pattern, known := defaults[category]
		if !known && (override.Weekday == nil || override.Weekend == nil) {
			return fmt.Errorf("config validation failed: pattern %q needs weekday and weekend curves", category)
		}
		if override.Weekday != nil {
			pattern.Weekday = *override.Weekday
		}
		if override.Weekend != nil {
			pattern.Weekend = *override.Weekend
		}
		options.Patterns[category] = pattern
	}
	return nil
}

func ValidateOptions(options *project_types.EngineOptions) error {
	if err := validate.Struct(options); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if _, ok := options.Patterns[project_types.DefaultCategory]; !ok {
		return fmt.Errorf("config validation failed: patterns need a %q entry", project_types.DefaultCategory)
	}
	if _, ok := options.City(options.DefaultCity); !ok {
		return fmt.Errorf("config validation failed: default city %q is not configured", options.DefaultCity)
	}
	for _, resolution := range options.ParentResolutions {
		if resolution > options.Resolution {
			return fmt.Errorf("config validation failed: parent resolution %d is finer than %d", resolution, options.Resolution)
		}
	}
	return nil
}

// LoadPOIs accepts either {"pois": [...]} or a bare array of POIs.
func LoadPOIs(filePath string) ([]project_types.POI, error) {
	data, err := utils.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		pois := []project_types.POI{}
		if err := json.Unmarshal(data, &pois); err != nil {
			return nil, err
		}
		return pois, nil
	}
	file := project_types.POIFile{}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	return file.Pois, nil
}

// DirSource reads <Dir>/<city>_pois.json.
type DirSource struct {
	Dir string
}

func POIFileName(cityKey string) string {
	return fmt.Sprintf("%s_pois.json", cityKey)
}

func (s DirSource) Load(city project_types.City) ([]project_types.POI, error) {
	filePath := path.Join(s.Dir, POIFileName(city.Key))
	pois, err := LoadPOIs(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", engine.ErrInputNotFound, filePath)
	}
	return pois, err
}

func ReadFullEncoding(filePath string) (engine.FullEncoding, error) {
	encoding := engine.FullEncoding{}
	if err := utils.ReadJsonFile(filePath, &encoding); err != nil {
		return encoding, err
	}
	return encoding, nil
}

func ReadStandardEncoding(filePath string) (engine.StandardEncoding, error) {
	encoding := engine.StandardEncoding{}
	if err := utils.ReadJsonFile(filePath, &encoding); err != nil {
		return encoding, err
	}
	return encoding, nil
}

func ReadPointsEncoding(filePath string) (engine.PointsEncoding, error) {
	encoding := engine.PointsEncoding{}
	if err := utils.ReadJsonFile(filePath, &encoding); err != nil {
		return encoding, err
	}
	return encoding, nil
}

type IntensityStats struct {
	HexCount int
	PoiCount int
	Mean     float64
	StdDev   float64
}

// PeakStats summarizes the per-hexagon peak intensity of a full encoding.
func PeakStats(encoding engine.FullEncoding) IntensityStats {
	stats := IntensityStats{HexCount: len(encoding.Hexagons)}
	if stats.HexCount == 0 {
		return stats
	}
	peaks := make([]float64, 0, stats.HexCount)
	for _, hex := range encoding.Hexagons {
		stats.PoiCount += hex.PoiCount
		peak := 0.0
		for day := range hex.Combined {
			for hour := range hex.Combined[day] {
				peak = math.Max(peak, hex.Combined[day][hour])
			}
		}
		peaks = append(peaks, peak)
		stats.Mean += peak
	}
	stats.Mean /= float64(stats.HexCount)
	for _, peak := range peaks {
		diff := peak - stats.Mean
		stats.StdDev += diff * diff
	}
	stats.StdDev = math.Sqrt(stats.StdDev / float64(stats.HexCount))
	return stats
}
