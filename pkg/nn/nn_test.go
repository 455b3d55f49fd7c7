package nn

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectionParams(t *testing.T) {
	p := NewDetectionParams()
	require.Equal(t, float32(DefaultProbabilityThreshold), p.ProbabilityThreshold)
	require.Equal(t, float32(DefaultNmsIouThreshold), p.NmsIouThreshold)
}

func TestLoadModelConfig(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "fruits.json")
	require.NoError(t, os.WriteFile(filename, []byte(`{"architecture":"yolov8","width":640,"height":640,"classes":["manzana","banana"]}`), 0644))

	config, err := LoadModelConfig(filename)
	require.NoError(t, err)
	require.Equal(t, "yolov8", config.Architecture)
	require.Equal(t, []string{"manzana", "banana"}, config.Classes)
	require.Equal(t, "banana", config.ClassName(1))
	require.Equal(t, "", config.ClassName(2))
	require.Equal(t, "", config.ClassName(-1))

	_, err = LoadModelConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
