package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"path"

	"github.com/apex/log"
	"github.com/golang/geo/s2"
	"github.com/iancoleman/strcase"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
)

const EarthRadiusKm = 6371.0088

// ConfigureEnv loads a .env file from the working directory when present.
func ConfigureEnv() {
	if !FileExists(".env") {
		return
	}
	if err := godotenv.Load(); err != nil {
		log.WithError(err).Warn("could not load .env")
	}
}

func DecodeSnakeCase(input interface{}) (map[string]interface{}, error) {
	output := map[string]interface{}{}
	if err := mapstructure.Decode(input, &output); err != nil {
		return nil, err
	}
	newOut := map[string]interface{}{}
	for k, v := range output {
		newOut[strcase.ToSnake(k)] = v
	}
	return newOut, nil
}

func WriteAsJsonFile(v interface{}, filePath string) error {
	bytes, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return WriteFile(bytes, filePath)
}

// WriteFile writes bytes to filePath, creating parent directories.
func WriteFile(bytes []byte, filePath string) error {
	base := path.Base(filePath)
	dirPath := filePath[:len(filePath)-len(base)]
	if dirPath != "" {
		if err := os.MkdirAll(dirPath, os.ModePerm); err != nil {
			return err
		}
	}

	if err := os.WriteFile(filePath, bytes, 0644); err != nil {
		return err
	}
	log.WithField("file", filePath).WithField("kb", len(bytes)/1024).Debug("wrote file")
	return nil
}

func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ReadFile reads a local file, or fetches filePath over http when it is a url.
func ReadFile(filePath string) ([]byte, error) {
	if FileExists(filePath) {
		return os.ReadFile(filePath)
	}
	u, err := url.ParseRequestURI(filePath)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%s: %w", filePath, os.ErrNotExist)
	}
	resp, err := http.Get(u.String())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected http GET status: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func ReadJsonFile(filePath string, dest interface{}) error {
	bytes, err := ReadFile(filePath)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, dest)
}

// Distance is the great-circle distance between two points in kilometers.
func Distance(lat1 float64, lng1 float64, lat2 float64, lng2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lng1)
	p2 := s2.LatLngFromDegrees(lat2, lng2)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
