package utils

import (
	"github.com/mappichat/heatmap-engine/src/project_types"
)

// H3 resolution 8 hexagons are roughly 460m across.
const DefaultResolution = 8

var defaultCities = []project_types.City{
	{Key: "kyiv", Name: "Київ", NameEn: "kyiv", Center: project_types.LatLng{Lat: 50.4501, Lng: 30.5234}, BBox: [4]float64{50.21, 30.23, 50.59, 30.83}},
	{Key: "odesa", Name: "Одеса", NameEn: "odesa", Center: project_types.LatLng{Lat: 46.4825, Lng: 30.7233}, BBox: [4]float64{46.35, 30.60, 46.60, 30.85}},
	{Key: "lviv", Name: "Львів", NameEn: "lviv", Center: project_types.LatLng{Lat: 49.8397, Lng: 24.0297}, BBox: [4]float64{49.77, 23.90, 49.92, 24.15}},
	{Key: "vinnytsia", Name: "Вінниця", NameEn: "vinnytsia", Center: project_types.LatLng{Lat: 49.2331, Lng: 28.4682}, BBox: [4]float64{49.17, 28.38, 49.29, 28.56}},
	{Key: "bila_tserkva", Name: "Біла Церква", NameEn: "bila_tserkva", Center: project_types.LatLng{Lat: 49.7988, Lng: 30.1188}, BBox: [4]float64{49.75, 30.05, 49.85, 30.19}},
	{Key: "boryspil", Name: "Бориспіль", NameEn: "boryspil", Center: project_types.LatLng{Lat: 50.3522, Lng: 30.9542}, BBox: [4]float64{50.32, 30.90, 50.39, 31.02}},
	{Key: "ternopil", Name: "Тернопіль", NameEn: "ternopil", Center: project_types.LatLng{Lat: 49.5535, Lng: 25.5948}, BBox: [4]float64{49.50, 25.52, 49.60, 25.68}},
}

var defaultPatterns = project_types.PatternTable{
	"restaurant": {
		Weekday: [24]float64{0, 0, 0, 0, 0, 0, 10, 15, 20, 15, 10, 20, 60, 70, 40, 20, 30, 50, 80, 100, 90, 70, 40, 10},
		Weekend: [24]float64{0, 0, 0, 0, 0, 0, 5, 10, 20, 30, 50, 70, 90, 100, 80, 60, 50, 60, 80, 100, 90, 70, 40, 10},
	},
	"cafe": {
		Weekday: [24]float64{0, 0, 0, 0, 0, 5, 20, 50, 80, 100, 90, 70, 80, 70, 60, 50, 60, 70, 60, 40, 20, 10, 5, 0},
		Weekend: [24]float64{0, 0, 0, 0, 0, 0, 5, 10, 30, 60, 80, 100, 90, 80, 70, 60, 50, 40, 30, 20, 10, 5, 0, 0},
	},
	"gym": {
		Weekday: [24]float64{0, 0, 0, 0, 0, 5, 30, 70, 90, 60, 40, 50, 70, 50, 40, 50, 70, 100, 90, 80, 60, 30, 10, 0},
		Weekend: [24]float64{0, 0, 0, 0, 0, 0, 5, 20, 50, 80, 100, 90, 80, 70, 60, 50, 40, 30, 20, 10, 5, 0, 0, 0},
	},
	"shopping_mall": {
		Weekday: [24]float64{0, 0, 0, 0, 0, 0, 0, 5, 10, 30, 50, 60, 70, 60, 50, 60, 80, 100, 90, 80, 70, 50, 20, 5},
		Weekend: [24]float64{0, 0, 0, 0, 0, 0, 0, 5, 10, 40, 70, 90, 100, 100, 90, 80, 90, 100, 90, 70, 50, 30, 10, 0},
	},
	"supermarket": {
		Weekday: [24]float64{0, 0, 0, 0, 0, 0, 5, 20, 50, 70, 60, 50, 60, 50, 40, 50, 70, 100, 80, 60, 40, 20, 10, 5},
		Weekend: [24]float64{0, 0, 0, 0, 0, 0, 5, 10, 30, 60, 80, 100, 90, 80, 70, 60, 50, 40, 30, 20, 10, 5, 0, 0},
	},
	"transit_station": {
		Weekday: [24]float64{5, 0, 0, 0, 0, 10, 40, 90, 100, 70, 40, 30, 40, 40, 30, 40, 60, 100, 90, 60, 30, 20, 10, 5},
		Weekend: [24]float64{0, 0, 0, 0, 0, 0, 5, 20, 40, 60, 70, 80, 80, 70, 60, 50, 50, 60, 50, 40, 30, 20, 10, 5},
	},
	"office": {
		Weekday: [24]float64{0, 0, 0, 0, 0, 0, 10, 50, 90, 100, 100, 90, 70, 80, 100, 100, 90, 70, 30, 10, 5, 0, 0, 0},
		Weekend: [24]float64{0, 0, 0, 0, 0, 0, 0, 0, 5, 10, 15, 15, 10, 10, 10, 5, 0, 0, 0, 0, 0, 0, 0, 0},
	},
	"bar": {
		Weekday: [24]float64{5, 0, 0, 0, 0, 0, 0, 0, 0, 0, 5, 10, 20, 20, 15, 20, 30, 50, 70, 90, 100, 100, 80, 30},
		Weekend: [24]float64{10, 5, 0, 0, 0, 0, 0, 0, 0, 5, 10, 20, 30, 30, 25, 30, 40, 60, 80, 100, 100, 100, 90, 50},
	},
	"park": {
		Weekday: [24]float64{0, 0, 0, 0, 0, 5, 20, 40, 50, 40, 30, 40, 50, 40, 30, 40, 60, 80, 100, 80, 50, 30, 10, 0},
		Weekend: [24]float64{0, 0, 0, 0, 0, 0, 5, 20, 40, 60, 80, 100, 100, 100, 90, 80, 70, 60, 50, 40, 20, 10, 5, 0},
	},
	project_types.DefaultCategory: {
		Weekday: [24]float64{0, 0, 0, 0, 0, 0, 10, 30, 50, 60, 70, 70, 80, 70, 60, 70, 80, 90, 100, 80, 50, 30, 10, 0},
		Weekend: [24]float64{0, 0, 0, 0, 0, 0, 5, 20, 40, 60, 80, 90, 100, 90, 80, 70, 60, 50, 40, 30, 20, 10, 5, 0},
	},
}

// DefaultOptions returns a fresh copy of the built-in engine options.
func DefaultOptions() project_types.EngineOptions {
	cities := make([]project_types.City, len(defaultCities))
	copy(cities, defaultCities)
	patterns := make(project_types.PatternTable, len(defaultPatterns))
	for category, pattern := range defaultPatterns {
		patterns[category] = pattern
	}
	return project_types.EngineOptions{
		Resolution:  DefaultResolution,
		Encodings:   []project_types.Tier{project_types.TierStandard, project_types.TierCompact},
		DefaultCity: "kyiv",
		Cities:      cities,
		Patterns:    patterns,
	}
}
