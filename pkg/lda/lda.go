// Package lda fits Latent Dirichlet Allocation topic models with collapsed
// Gibbs sampling. Fits are deterministic for a given seed and input order.
package lda

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"
)

// Options control a fit.
type Options struct {
	Topics     int
	Iterations int
	Alpha      float64 // document-topic prior
	Beta       float64 // topic-word prior
	Seed       uint64
}

// DefaultOptions returns the priors used unless overridden.
func DefaultOptions(topics int) Options {
	return Options{
		Topics:     topics,
		Iterations: 200,
		Alpha:      0.1,
		Beta:       0.01,
		Seed:       42,
	}
}

// ErrEmptyCorpus is returned when there is nothing to fit.
var ErrEmptyCorpus = errors.New("lda: corpus has no tokens")

// Model is a fitted topic model.
type Model struct {
	K, V  int
	theta [][]float64 // doc x topic
	phi   [][]float64 // topic x word
}

// Fit samples a topic model over docs, where each doc is a list of word ids
// in [0, vocabSize). The context is checked between sweeps.
func Fit(ctx context.Context, docs [][]int, vocabSize int, opts Options) (*Model, error) {
	if opts.Topics < 1 {
		return nil, errors.New("lda: topics must be at least 1")
	}
	total := 0
	for _, d := range docs {
		total += len(d)
	}
	if total == 0 || vocabSize == 0 {
		return nil, ErrEmptyCorpus
	}
	if opts.Iterations < 1 {
		opts.Iterations = 1
	}

	k := opts.Topics
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	nDK := make([][]int, len(docs))
	nKW := make([][]int, k)
	nK := make([]int, k)
	z := make([][]int, len(docs))
	for t := range nKW {
		nKW[t] = make([]int, vocabSize)
	}

	for d, doc := range docs {
		nDK[d] = make([]int, k)
		z[d] = make([]int, len(doc))
		for i, w := range doc {
			t := rng.IntN(k)
			z[d][i] = t
			nDK[d][t]++
			nKW[t][w]++
			nK[t]++
		}
	}

	vBeta := float64(vocabSize) * opts.Beta
	p := make([]float64, k)
	for iter := 0; iter < opts.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for d, doc := range docs {
			for i, w := range doc {
				t := z[d][i]
				nDK[d][t]--
				nKW[t][w]--
				nK[t]--

				sum := 0.0
				for j := 0; j < k; j++ {
					sum += (float64(nDK[d][j]) + opts.Alpha) *
						(float64(nKW[j][w]) + opts.Beta) /
						(float64(nK[j]) + vBeta)
					p[j] = sum
				}
				u := rng.Float64() * sum
				t = sort.SearchFloat64s(p, u)
				if t >= k {
					t = k - 1
				}

				z[d][i] = t
				nDK[d][t]++
				nKW[t][w]++
				nK[t]++
			}
		}
	}

	m := &Model{K: k, V: vocabSize, theta: make([][]float64, len(docs)), phi: make([][]float64, k)}
	kAlpha := float64(k) * opts.Alpha
	for d, doc := range docs {
		m.theta[d] = make([]float64, k)
		for t := 0; t < k; t++ {
			m.theta[d][t] = (float64(nDK[d][t]) + opts.Alpha) / (float64(len(doc)) + kAlpha)
		}
	}
	for t := 0; t < k; t++ {
		m.phi[t] = make([]float64, vocabSize)
		for w := 0; w < vocabSize; w++ {
			m.phi[t][w] = (float64(nKW[t][w]) + opts.Beta) / (float64(nK[t]) + vBeta)
		}
	}
	return m, nil
}

// Dominant returns the heaviest topic of document d and its weight. Ties go
// to the lower topic index.
func (m *Model) Dominant(d int) (int, float64) {
	best, weight := 0, -1.0
	for t, w := range m.theta[d] {
		if w > weight {
			best, weight = t, w
		}
	}
	return best, weight
}

// TopWords returns the n most probable word ids of topic t.
func (m *Model) TopWords(t, n int) []int {
	ids := make([]int, m.V)
	for i := range ids {
		ids[i] = i
	}
	row := m.phi[t]
	sort.SliceStable(ids, func(i, j int) bool { return row[ids[i]] > row[ids[j]] })
	if n < len(ids) {
		ids = ids[:n]
	}
	return ids
}
