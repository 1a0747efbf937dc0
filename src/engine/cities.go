package engine

import (
	"path"
	"time"

	"github.com/mappichat/heatmap-engine/src/project_types"
	"github.com/mappichat/heatmap-engine/src/utils"
)

const CitiesIndexFile = "heatmap_cities.json"

type Artifact struct {
	File      string `json:"file"`
	Available bool   `json:"available"`
}

type CityIndexEntry struct {
	Name      string                          `json:"name"`
	NameEn    string                          `json:"name_en"`
	Center    project_types.LatLng            `json:"center"`
	File      string                          `json:"file"`
	Available bool                            `json:"available"`
	Artifacts map[project_types.Tier]Artifact `json:"artifacts"`
	Parents   map[int]Artifact                `json:"parent_resolutions"`
}

type CitiesIndex struct {
	Cities    map[string]CityIndexEntry `json:"cities"`
	Default   string                    `json:"default"`
	Generated string                    `json:"generated"`
}

// BuildCitiesIndex lists every configured city and which of its artifacts
// are on disk. A city's main file is its primary artifact.
func BuildCitiesIndex(options *project_types.EngineOptions, outDir string, generated time.Time) CitiesIndex {
	index := CitiesIndex{
		Cities:    make(map[string]CityIndexEntry, len(options.Cities)),
		Default:   options.DefaultCity,
		Generated: generated.UTC().Format(time.RFC3339),
	}
	for _, city := range options.Cities {
		artifacts := make(map[project_types.Tier]Artifact, len(project_types.AllTiers))
		for _, tier := range project_types.AllTiers {
			artifacts[tier] = artifactOnDisk(outDir, ArtifactFile(city.Key, tier))
		}
		parents := make(map[int]Artifact, len(options.ParentResolutions))
		for _, resolution := range options.ParentResolutions {
			parents[resolution] = artifactOnDisk(outDir, ParentArtifactFile(city.Key, resolution))
		}
		primary := artifactOnDisk(outDir, PrimaryArtifactFile(city.Key, options))
		index.Cities[city.Key] = CityIndexEntry{
			Name:      city.Name,
			NameEn:    city.NameEn,
			Center:    city.Center,
			File:      primary.File,
			Available: primary.Available,
			Artifacts: artifacts,
			Parents:   parents,
		}
	}
	return index
}

func artifactOnDisk(outDir string, file string) Artifact {
	return Artifact{File: file, Available: utils.FileExists(path.Join(outDir, file))}
}

func WriteCitiesIndex(index CitiesIndex, outDir string) (string, error) {
	filePath := path.Join(outDir, CitiesIndexFile)
	return filePath, utils.WriteAsJsonFile(index, filePath)
}
