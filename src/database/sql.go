package database

import (
	"encoding/json"
	"math"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mappichat/heatmap-engine/src/engine"
	"github.com/mappichat/heatmap-engine/src/project_types"
	"github.com/mappichat/heatmap-engine/src/utils"
)

// postgres caps a statement at 65535 bind parameters
const maxInsert int = 65535

func SqlInitialize(connectString string) (*sqlx.DB, error) {
	var err error
	Sqldb, err := sqlx.Connect("postgres", connectString)
	if err != nil {
		return Sqldb, err
	}
	if err = Sqldb.Ping(); err != nil {
		return Sqldb, err
	}
	return Sqldb, nil
}

func CreateTables(db *sqlx.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS heatmap_runs (
		run_id text PRIMARY KEY,
		city text,
		resolution int,
		hex_count int,
		poi_count int,
		created_at timestamptz
	);`); err != nil {
		return err
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS heatmap_cells (
		run_id text,
		city text,
		cell_id text,
		lat double precision,
		lng double precision,
		poi_count int,
		categories text[],
		combined jsonb,
		PRIMARY KEY (run_id, cell_id)
	);`); err != nil {
		return err
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS heatmap_points (
		run_id text,
		cell_id text,
		day int,
		hour int,
		intensity double precision,
		by_category jsonb,
		PRIMARY KEY (run_id, cell_id, day, hour)
	);`); err != nil {
		return err
	}

	return nil
}

type RunRow struct {
	RunID      string
	City       string
	Resolution int
	HexCount   int
	PoiCount   int
}

type CellRow struct {
	RunID    string
	City     string
	CellID   string
	Lat      float64
	Lng      float64
	PoiCount int
	Combined string
}

type PointRow struct {
	RunID      string
	CellID     string
	Day        int
	Hour       int
	Intensity  float64
	ByCategory string
}

func namedRows(rows []interface{}) ([]map[string]interface{}, error) {
	values := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		value, err := utils.DecodeSnakeCase(row)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

func batchInsert(db *sqlx.DB, query string, values []map[string]interface{}, columns int) error {
	batchSize := maxInsert / columns
	total := len(values)
	for i := 0; i < total; i += batchSize {
		end := int(math.Min(float64(total), float64(i+batchSize)))
		log.Debugf(" %f%%", 100*(float64(i)/float64(total)))
		if _, err := db.NamedExec(query, values[i:end]); err != nil {
			return err
		}
	}
	return nil
}

// InsertRun records one city's generation run and returns its id.
func InsertRun(db *sqlx.DB, meta engine.Meta, created time.Time) (string, error) {
	runID := uuid.NewString()
	value, err := utils.DecodeSnakeCase(RunRow{
		RunID:      runID,
		City:       meta.City,
		Resolution: meta.Resolution,
		HexCount:   meta.HexCount,
		PoiCount:   meta.PoiCount,
	})
	if err != nil {
		return "", err
	}
	// mapstructure would flatten time.Time into an empty map
	value["created_at"] = created
	if _, err := db.NamedExec(
		`INSERT INTO heatmap_runs (run_id, city, resolution, hex_count, poi_count, created_at) VALUES (:run_id, :city, :resolution, :hex_count, :poi_count, :created_at)`,
		value,
	); err != nil {
		return "", err
	}
	return runID, nil
}

func PopulateCells(db *sqlx.DB, runID string, encoding engine.StandardEncoding) error {
	rows := make([]interface{}, 0, len(encoding.Hexagons))
	categories := make([][]string, 0, len(encoding.Hexagons))
	for _, hex := range encoding.Hexagons {
		combined, err := json.Marshal(hex.Intensity)
		if err != nil {
			return err
		}
		rows = append(rows, CellRow{
			RunID:    runID,
			City:     encoding.Meta.City,
			CellID:   hex.CellID,
			Lat:      hex.Lat,
			Lng:      hex.Lng,
			PoiCount: hex.PoiCount,
			Combined: string(combined),
		})
		categories = append(categories, hex.Categories)
	}
	values, err := namedRows(rows)
	if err != nil {
		return err
	}
	for i := range values {
		values[i]["categories"] = pq.Array(categories[i])
	}
	return batchInsert(db,
		`INSERT INTO heatmap_cells (run_id, city, cell_id, lat, lng, poi_count, categories, combined) VALUES (:run_id, :city, :cell_id, :lat, :lng, :poi_count, :categories, :combined)`,
		values, 8)
}

func PopulatePoints(db *sqlx.DB, runID string, points []project_types.HeatmapPoint) error {
	rows := make([]interface{}, 0, len(points))
	for _, point := range points {
		byCategory, err := json.Marshal(point.ByCategory)
		if err != nil {
			return err
		}
		rows = append(rows, PointRow{
			RunID:      runID,
			CellID:     point.CellID,
			Day:        point.Day,
			Hour:       point.Hour,
			Intensity:  point.Intensity,
			ByCategory: string(byCategory),
		})
	}
	values, err := namedRows(rows)
	if err != nil {
		return err
	}
	return batchInsert(db,
		`INSERT INTO heatmap_points (run_id, cell_id, day, hour, intensity, by_category) VALUES (:run_id, :cell_id, :day, :hour, :intensity, :by_category)`,
		values, 6)
}
