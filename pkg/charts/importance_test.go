package charts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsift/flowsift/pkg/evaluation"
)

func TestSaveImportances(t *testing.T) {
	ranked := []evaluation.FeatureScore{
		{Index: 2, Name: "pkt_len", Score: 0.44},
		{Index: 0, Name: "proto_tcp", Score: 0.31},
		{Index: 5, Name: "ttl", Score: 0.25},
	}

	for _, ext := range []string{"png", "svg"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "importances."+ext)
			require.NoError(t, SaveImportances(ranked, path))

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Greater(t, info.Size(), int64(0))
		})
	}
}

func TestSaveImportancesEmpty(t *testing.T) {
	err := SaveImportances(nil, filepath.Join(t.TempDir(), "importances.png"))
	assert.Error(t, err)
}
