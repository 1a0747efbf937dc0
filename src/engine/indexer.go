package engine

import (
	"errors"
	"fmt"
	"math"

	h3 "github.com/uber/h3-go/v3"
)

var (
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrInvalidCellID     = errors.New("invalid cell id")
	ErrInvalidResolution = errors.New("invalid resolution")
)

// Indexer maps coordinates to H3 cells at one fixed resolution.
type Indexer struct {
	resolution int
}

func NewIndexer(resolution int) (*Indexer, error) {
	if resolution < 0 || resolution > 15 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidResolution, resolution)
	}
	return &Indexer{resolution: resolution}, nil
}

func (x *Indexer) Resolution() int {
	return x.resolution
}

func (x *Indexer) CellOf(lat float64, lng float64) (string, error) {
	return CellOf(lat, lng, x.resolution)
}

func (x *Indexer) CentroidOf(cellID string) (float64, float64, error) {
	return CentroidOf(cellID)
}

func validCoordinate(lat float64, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func CellOf(lat float64, lng float64, resolution int) (string, error) {
	if !validCoordinate(lat, lng) {
		return "", fmt.Errorf("%w: (%f, %f)", ErrInvalidCoordinate, lat, lng)
	}
	if resolution < 0 || resolution > 15 {
		return "", fmt.Errorf("%w: %d", ErrInvalidResolution, resolution)
	}
	return h3.ToString(h3.FromGeo(h3.GeoCoord{Latitude: lat, Longitude: lng}, resolution)), nil
}

// parseCell only accepts the canonical lowercase spelling of a valid index.
func parseCell(cellID string) (h3.H3Index, error) {
	h := h3.FromString(cellID)
	if h == 0 || !h3.IsValid(h) || h3.ToString(h) != cellID {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCellID, cellID)
	}
	return h, nil
}

func CentroidOf(cellID string) (float64, float64, error) {
	h, err := parseCell(cellID)
	if err != nil {
		return 0, 0, err
	}
	geo := h3.ToGeo(h)
	return geo.Latitude, geo.Longitude, nil
}

// ParentOf returns the ancestor of cellID at a coarser resolution.
func ParentOf(cellID string, resolution int) (string, error) {
	h, err := parseCell(cellID)
	if err != nil {
		return "", err
	}
	if resolution < 0 || resolution > h3.Resolution(h) {
		return "", fmt.Errorf("%w: %d is not coarser than %d", ErrInvalidResolution, resolution, h3.Resolution(h))
	}
	return h3.ToString(h3.ToParent(h, resolution)), nil
}

// Boundary returns the cell outline as (lat, lng) pairs.
func Boundary(cellID string) ([][2]float64, error) {
	h, err := parseCell(cellID)
	if err != nil {
		return nil, err
	}
	boundary := h3.ToGeoBoundary(h)
	ring := make([][2]float64, 0, len(boundary))
	for _, coord := range boundary {
		ring = append(ring, [2]float64{coord.Latitude, coord.Longitude})
	}
	return ring, nil
}
