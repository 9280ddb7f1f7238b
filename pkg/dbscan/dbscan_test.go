package dbscan

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func euclidean(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func TestClusterTwoBlobsAndNoise(t *testing.T) {
	points := [][]float64{
		{0, 0}, {0.1, 0}, {0, 0.1},
		{5, 5}, {5.1, 5}, {5, 5.1},
		{20, 20},
	}
	labels, err := Cluster(context.Background(), points, 0.5, 2, euclidean)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 0, 0, 1, 1, 1, Noise}, labels)
	assert.Equal(t, [][]int{{0, 1, 2}, {3, 4, 5}}, Groups(labels))
}

func TestClusterBorderPoint(t *testing.T) {
	// The last point reaches only one core point and becomes a border member.
	points := [][]float64{{0}, {0.4}, {0.8}, {1.25}}
	labels, err := Cluster(context.Background(), points, 0.5, 3, euclidean)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 0}, labels)
}

func TestClusterAllNoise(t *testing.T) {
	points := [][]float64{{0}, {10}, {20}}
	labels, err := Cluster(context.Background(), points, 1, 2, euclidean)
	require.NoError(t, err)
	assert.Equal(t, []int{Noise, Noise, Noise}, labels)
	assert.Empty(t, Groups(labels))
}

func TestClusterCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Cluster(ctx, [][]float64{{0}}, 1, 1, euclidean)
	assert.ErrorIs(t, err, context.Canceled)
}
