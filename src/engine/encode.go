package engine

import (
	"fmt"
	"time"

	"github.com/mappichat/heatmap-engine/src/project_types"
	"github.com/mappichat/heatmap-engine/src/utils"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const coordinatePlaces = 5

type Meta struct {
	City       string               `json:"city"`
	CityName   string               `json:"city_name"`
	Center     project_types.LatLng `json:"center"`
	Created    string               `json:"created"`
	Resolution int                  `json:"h3_resolution"`
	HexCount   int                  `json:"hex_count"`
	PoiCount   int                  `json:"poi_count"`
	Categories []string             `json:"types"`
	Days       []string             `json:"days"`
}

func NewMeta(city project_types.City, resolution int, cells project_types.Cells, created time.Time) Meta {
	return Meta{
		City:       city.Key,
		CityName:   city.Name,
		Center:     city.Center,
		Created:    created.UTC().Format(time.RFC3339),
		Resolution: resolution,
		HexCount:   len(cells),
		PoiCount:   project_types.CellsTotalPois(cells),
		Categories: cells.AllCategories(),
		Days:       project_types.DayNames,
	}
}

type FullHexagon struct {
	CellID     string                                  `json:"cell_id"`
	Lat        float64                                 `json:"lat"`
	Lng        float64                                 `json:"lng"`
	PoiCount   int                                     `json:"poi_count"`
	Categories []string                                `json:"categories"`
	Combined   project_types.ActivityMatrix            `json:"combined"`
	ByCategory map[string]project_types.ActivityMatrix `json:"by_category"`
}

type StandardHexagon struct {
	CellID     string                       `json:"h3"`
	Lat        float64                      `json:"lat"`
	Lng        float64                      `json:"lng"`
	PoiCount   int                          `json:"n"`
	Categories []string                     `json:"t"`
	Intensity  project_types.ActivityMatrix `json:"i"`
}

type CompactHexagon struct {
	Lat       float64                      `json:"lat"`
	Lng       float64                      `json:"lng"`
	PoiCount  int                          `json:"n"`
	Intensity project_types.ActivityMatrix `json:"i"`
}

type FullEncoding struct {
	Meta     Meta          `json:"meta"`
	Hexagons []FullHexagon `json:"hexagons"`
}

type StandardEncoding struct {
	Meta     Meta              `json:"meta"`
	Hexagons []StandardHexagon `json:"hexagons"`
}

type CompactEncoding struct {
	Meta     Meta             `json:"meta"`
	Hexagons []CompactHexagon `json:"hexagons"`
}

type PointsEncoding struct {
	Meta   Meta                         `json:"meta"`
	Points []project_types.HeatmapPoint `json:"points"`
}

// RoundMatrix is the single rounding path shared by every encoding.
func RoundMatrix(m project_types.ActivityMatrix) project_types.ActivityMatrix {
	var rounded project_types.ActivityMatrix
	for day := range m {
		for hour := range m[day] {
			rounded[day][hour] = utils.Round(m[day][hour], 1)
		}
	}
	return rounded
}

func roundCoord(v float64) float64 {
	return utils.Round(v, coordinatePlaces)
}

// EncodeFull carries a matrix for every category seen in the run,
// zero-filled where the cell has no POI of that category.
func EncodeFull(cells project_types.Cells, meta Meta) FullEncoding {
	allCategories := cells.AllCategories()
	hexagons := make([]FullHexagon, 0, len(cells))
	for _, cellID := range cells.SortedIDs() {
		cell := cells[cellID]
		byCategory := make(map[string]project_types.ActivityMatrix, len(allCategories))
		for _, category := range allCategories {
			if activity, ok := cell.ByCategory[category]; ok {
				byCategory[category] = RoundMatrix(activity.Hours)
			} else {
				byCategory[category] = project_types.ActivityMatrix{}
			}
		}
		hexagons = append(hexagons, FullHexagon{
			CellID:     cellID,
			Lat:        roundCoord(cell.Lat),
			Lng:        roundCoord(cell.Lng),
			PoiCount:   cell.PoiCount,
			Categories: cell.Categories,
			Combined:   RoundMatrix(cell.Combined),
			ByCategory: byCategory,
		})
	}
	return FullEncoding{Meta: meta, Hexagons: hexagons}
}

func EncodeStandard(cells project_types.Cells, meta Meta) StandardEncoding {
	hexagons := make([]StandardHexagon, 0, len(cells))
	for _, cellID := range cells.SortedIDs() {
		cell := cells[cellID]
		hexagons = append(hexagons, StandardHexagon{
			CellID:     cellID,
			Lat:        roundCoord(cell.Lat),
			Lng:        roundCoord(cell.Lng),
			PoiCount:   cell.PoiCount,
			Categories: cell.Categories,
			Intensity:  RoundMatrix(cell.Combined),
		})
	}
	return StandardEncoding{Meta: meta, Hexagons: hexagons}
}

func EncodeCompact(cells project_types.Cells, meta Meta) CompactEncoding {
	hexagons := make([]CompactHexagon, 0, len(cells))
	for _, cellID := range cells.SortedIDs() {
		cell := cells[cellID]
		hexagons = append(hexagons, CompactHexagon{
			Lat:       roundCoord(cell.Lat),
			Lng:       roundCoord(cell.Lng),
			PoiCount:  cell.PoiCount,
			Intensity: RoundMatrix(cell.Combined),
		})
	}
	return CompactEncoding{Meta: meta, Hexagons: hexagons}
}

func EncodePoints(cells project_types.Cells, meta Meta) PointsEncoding {
	return PointsEncoding{Meta: meta, Points: ExpandAll(cells)}
}

func peakAndMean(m project_types.ActivityMatrix) (float64, float64) {
	peak, sum := 0.0, 0.0
	for day := range m {
		for hour := range m[day] {
			if m[day][hour] > peak {
				peak = m[day][hour]
			}
			sum += m[day][hour]
		}
	}
	return peak, sum / float64(project_types.Days*project_types.Hours)
}

// EncodeGeoJSON renders each cell as a hexagon polygon for GIS tools.
func EncodeGeoJSON(cells project_types.Cells, meta Meta) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	for _, cellID := range cells.SortedIDs() {
		cell := cells[cellID]
		boundary, err := Boundary(cellID)
		if err != nil {
			return nil, fmt.Errorf("boundary of %s: %w", cellID, err)
		}
		ring := make(orb.Ring, 0, len(boundary)+1)
		for _, coord := range boundary {
			ring = append(ring, orb.Point{roundCoord(coord[1]), roundCoord(coord[0])})
		}
		if len(ring) > 0 {
			ring = append(ring, ring[0])
		}

		peak, mean := peakAndMean(cell.Combined)
		feature := geojson.NewFeature(orb.Polygon{ring})
		feature.ID = cellID
		feature.Properties["cell_id"] = cellID
		feature.Properties["poi_count"] = cell.PoiCount
		feature.Properties["categories"] = cell.Categories
		feature.Properties["peak_intensity"] = utils.Round(peak, 1)
		feature.Properties["mean_intensity"] = utils.Round(mean, 1)
		fc.Append(feature)
	}
	fc.ExtraMembers = geojson.Properties{"meta": meta}
	return fc, nil
}
