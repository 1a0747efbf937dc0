package utils

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	// Kyiv to Lviv
	assert.InDelta(t, 468.0, Distance(50.4501, 30.5234, 49.8397, 24.0297), 10)
	assert.Zero(t, Distance(50.4501, 30.5234, 50.4501, 30.5234))
	assert.InDelta(t, Distance(1, 2, 3, 4), Distance(3, 4, 1, 2), 1e-9)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 12.3, Round(12.345, 1))
	assert.Equal(t, 50.45012, Round(50.450123, 5))
	assert.Equal(t, 0.0, Round(0.04, 1))
}

func TestDecodeSnakeCase(t *testing.T) {
	row := struct {
		RunID    string
		PoiCount int
		CellID   string
	}{"r", 3, "881e6c2d6bfffff"}

	value, err := DecodeSnakeCase(row)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"run_id": "r", "poi_count": 3, "cell_id": "881e6c2d6bfffff"}, value)
}

func TestJsonFileRoundTrip(t *testing.T) {
	filePath := path.Join(t.TempDir(), "nested", "dir", "data.json")
	require.NoError(t, WriteAsJsonFile(map[string]int{"a": 1}, filePath))
	assert.True(t, FileExists(filePath))
	assert.False(t, FileExists(path.Dir(filePath)))

	out := map[string]int{}
	require.NoError(t, ReadJsonFile(filePath, &out))
	assert.Equal(t, 1, out["a"])
}

func TestReadFile(t *testing.T) {
	_, err := ReadFile(path.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pois.json" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"pois":[]}`))
	}))
	defer srv.Close()

	data, err := ReadFile(srv.URL + "/pois.json")
	require.NoError(t, err)
	assert.Equal(t, `{"pois":[]}`, string(data))

	_, err = ReadFile(srv.URL + "/other.json")
	assert.Error(t, err)
}

func TestDefaultOptionsAreIndependent(t *testing.T) {
	first := DefaultOptions()
	first.Cities[0].Key = "changed"
	delete(first.Patterns, "cafe")

	second := DefaultOptions()
	assert.Equal(t, "kyiv", second.Cities[0].Key)
	assert.Contains(t, second.Patterns, "cafe")
}
