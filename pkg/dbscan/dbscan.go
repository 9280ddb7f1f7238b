// Package dbscan implements density-based clustering over an arbitrary
// distance function.
package dbscan

import "context"

// Noise labels points that belong to no cluster.
const Noise = -1

const unvisited = -2

// DistanceFunc returns the distance between two points.
type DistanceFunc func(a, b []float64) float64

// Cluster labels every point with a cluster id starting at 0, or Noise. A
// point is a core point when at least minSamples points, itself included,
// lie within eps. Points are visited in index order, so labels are
// deterministic for a given input order.
func Cluster(ctx context.Context, points [][]float64, eps float64, minSamples int, dist DistanceFunc) ([]int, error) {
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = unvisited
	}

	neighbors := func(i int) []int {
		var out []int
		for j := range points {
			if dist(points[i], points[j]) <= eps {
				out = append(out, j)
			}
		}
		return out
	}

	cluster := 0
	for i := range points {
		if labels[i] != unvisited {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		seeds := neighbors(i)
		if len(seeds) < minSamples {
			labels[i] = Noise
			continue
		}

		labels[i] = cluster
		queue := append([]int(nil), seeds...)
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]

			if labels[j] == Noise {
				labels[j] = cluster // border point
			}
			if labels[j] != unvisited {
				continue
			}
			labels[j] = cluster

			if more := neighbors(j); len(more) >= minSamples {
				queue = append(queue, more...)
			}
		}
		cluster++
	}
	return labels, nil
}

// Groups returns the member indices of each cluster, noise excluded.
func Groups(labels []int) [][]int {
	n := 0
	for _, l := range labels {
		if l+1 > n {
			n = l + 1
		}
	}
	groups := make([][]int, n)
	for i, l := range labels {
		if l >= 0 {
			groups[l] = append(groups[l], i)
		}
	}
	return groups
}
