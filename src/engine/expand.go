package engine

import (
	"github.com/mappichat/heatmap-engine/src/project_types"
	"github.com/mappichat/heatmap-engine/src/utils"
)

// Expand flattens a cell into one point per (day, hour), day-major.
// Intensities are rounded to one decimal here and nowhere earlier.
func Expand(cell project_types.CellAggregate) []project_types.HeatmapPoint {
	points := make([]project_types.HeatmapPoint, 0, project_types.Days*project_types.Hours)
	for day := 0; day < project_types.Days; day++ {
		for hour := 0; hour < project_types.Hours; hour++ {
			byCategory := make(map[string]float64, len(cell.ByCategory))
			for category, activity := range cell.ByCategory {
				byCategory[category] = utils.Round(activity.Hours[day][hour], 1)
			}
			points = append(points, project_types.HeatmapPoint{
				CellID:     cell.CellID,
				Lat:        cell.Lat,
				Lng:        cell.Lng,
				Day:        day,
				Hour:       hour,
				Intensity:  utils.Round(cell.Combined[day][hour], 1),
				PoiCount:   cell.PoiCount,
				Categories: cell.Categories,
				ByCategory: byCategory,
			})
		}
	}
	return points
}

// ExpandAll expands every cell in ascending cell id order.
func ExpandAll(cells project_types.Cells) []project_types.HeatmapPoint {
	points := make([]project_types.HeatmapPoint, 0, len(cells)*project_types.Days*project_types.Hours)
	for _, cellID := range cells.SortedIDs() {
		points = append(points, Expand(cells[cellID])...)
	}
	return points
}
