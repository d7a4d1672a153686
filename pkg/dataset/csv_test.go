package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadLastColumnLabel(t *testing.T) {
	path := writeCSV(t, "duration,bytes,label\n1.5,100,0\n2.5,200,1\n3.5,300,0\n")

	ds, err := NewLoader().Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, ds.NumRows())
	assert.Equal(t, 2, ds.NumFeatures())
	assert.Equal(t, []string{"duration", "bytes"}, ds.Cols)
	assert.Equal(t, []int{0, 1, 0}, ds.Y)
	assert.Equal(t, []float64{1.5, 100}, ds.X[0])
}

func TestLoadLabelByName(t *testing.T) {
	path := writeCSV(t, "duration,label,bytes\n1.5,1,100\n2.5,0,200\n")

	ds, err := NewLoader(WithLabelColumn("label")).Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"duration", "bytes"}, ds.Cols)
	assert.Equal(t, []int{1, 0}, ds.Y)
	assert.Equal(t, []float64{1.5, 100}, ds.X[0])
}

func TestLoadLabelByNameMissing(t *testing.T) {
	path := writeCSV(t, "a,b\n1,2\n")

	_, err := NewLoader(WithLabelColumn("label")).Load(path)
	assert.Error(t, err)
}

func TestLoadNoHeader(t *testing.T) {
	path := writeCSV(t, "1,2,0\n3,4,1\n")

	ds, err := NewLoader(WithHeader(false)).Load(path)
	require.NoError(t, err)

	assert.Empty(t, ds.Cols)
	assert.Equal(t, []int{0, 1}, ds.Y)
	assert.Equal(t, []float64{1, 2}, ds.X[0])
}

func TestLoadSkipsMalformedRows(t *testing.T) {
	path := writeCSV(t, "a,b,label\n1,2,0\nnot,a,number\n3,4,1\n")

	ds, err := NewLoader().Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, ds.NumRows())
	assert.Equal(t, []int{0, 1}, ds.Y)
}

func TestLoadNoUsableRows(t *testing.T) {
	path := writeCSV(t, "a,b,label\nx,y,z\n")

	_, err := NewLoader().Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader().Load(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestLoadClassSource(t *testing.T) {
	path := writeCSV(t, "duration,bytes\n1,100\n2,200\n3,300\n")

	ds, err := LoadClassSource(path, 1)
	require.NoError(t, err)

	assert.Equal(t, 3, ds.NumRows())
	assert.Equal(t, 2, ds.NumFeatures())
	assert.Equal(t, []string{"duration", "bytes"}, ds.Cols)
	assert.Equal(t, []int{1, 1, 1}, ds.Y)
}
