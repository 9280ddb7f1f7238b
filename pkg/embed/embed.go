// Package embed provides text embedding providers for semantic clustering.
package embed

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Embedder turns text into a dense vector.
type Embedder interface {
	// Available reports whether the provider can serve requests right now.
	Available() bool
	// Embed returns the embedding of text.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbedder embeds several texts in one call.
type BatchEmbedder interface {
	Embedder
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedAll embeds texts using the batch call when the provider has one.
func EmbedAll(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	if b, ok := e.(BatchEmbedder); ok {
		return b.EmbedBatch(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0 when
// either is empty, zero or the lengths differ.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// CosineDistance is 1 - cosine similarity over float64 vectors, in [0, 2].
func CosineDistance(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 1
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1
	}
	d := 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
	return math.Max(0, math.Min(2, d))
}

// Options configure provider construction.
type Options struct {
	OllamaEndpoint string
	RateLimit      float64 // requests per second, 0 = unlimited
	CacheDir       string
	CacheTTL       time.Duration
}

// New builds the provider named by model:
//
//	""                 no provider (nil, nil)
//	"hashing[:dims]"   local feature hashing
//	"ollama:<model>"   Ollama server at opts.OllamaEndpoint
//
// When opts.CacheDir is set the provider is wrapped in a file cache.
func New(model string, opts Options) (Embedder, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, nil
	}

	kind, arg, _ := strings.Cut(model, ":")
	var e Embedder
	switch strings.ToLower(kind) {
	case "hashing":
		dims := defaultHashDims
		if arg != "" {
			n, err := strconv.Atoi(arg)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("invalid hashing dimensions %q", arg)
			}
			dims = n
		}
		e = NewHashingEmbedder(dims)
	case "ollama":
		if arg == "" {
			return nil, fmt.Errorf("ollama embeddings model needs a model name, e.g. ollama:nomic-embed-text")
		}
		e = NewOllamaEmbedder(opts.OllamaEndpoint, arg, opts.RateLimit)
	default:
		return nil, fmt.Errorf("unknown embeddings provider %q", kind)
	}

	if opts.CacheDir != "" {
		cached, err := NewCachedEmbedder(e, model, opts.CacheDir, opts.CacheTTL)
		if err != nil {
			return nil, err
		}
		e = cached
	}
	return e, nil
}
