package gen

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMean(t *testing.T) {
	require.Equal(t, 0.0, Mean([]float64{}))
	require.InDelta(t, 0.8, Mean([]float64{0.9, 0.7}), 1e-9)
	require.InDelta(t, float32(2), Mean([]float32{1, 2, 3}), 1e-6)
}

func TestRound2(t *testing.T) {
	require.Equal(t, 0.8, Round2(0.80000001))
	require.Equal(t, 0.67, Round2(2.0/3.0))
	require.Equal(t, 0.0, Round2(0))
}
