package embed

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/dtnitsch/llm-intent-miner/pkg/analytics"
)

const defaultHashDims = 256

// HashingEmbedder maps text to an L2-normalized bag of hashed content words.
// It needs no model or network and is deterministic.
type HashingEmbedder struct {
	dims int
}

// NewHashingEmbedder creates a hashing embedder with the given dimensions.
func NewHashingEmbedder(dims int) *HashingEmbedder {
	return &HashingEmbedder{dims: dims}
}

func (h *HashingEmbedder) Available() bool { return true }

func (h *HashingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float32, h.dims)
	for _, tok := range analytics.Tokenize(text) {
		f := fnv.New32a()
		_, _ = f.Write([]byte(tok))
		sum := f.Sum32()
		sign := float32(1)
		if sum&0x80000000 != 0 {
			sign = -1
		}
		vec[int(sum%uint32(h.dims))] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}
