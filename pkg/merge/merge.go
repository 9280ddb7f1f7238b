// Package merge reconciles candidates from independent discovery methods into
// non-overlapping intent groups.
package merge

import (
	"sort"
	"strings"

	"github.com/dtnitsch/llm-intent-miner/models"
	"github.com/dtnitsch/llm-intent-miner/pkg/mapreduce"
	"github.com/dtnitsch/llm-intent-miner/pkg/scoring"
)

const (
	// MaxKeywords caps the keywords compared and emitted per group.
	MaxKeywords = 15
	// MaxPhrases caps the representative phrases emitted per group.
	MaxPhrases = 5
)

// Options control merging.
type Options struct {
	SimilarityThreshold float64
	MinClusterSize      int
	// FallbackKeywords keeps groups holding a custom keyword candidate even
	// when they have fewer than MinClusterSize pages.
	FallbackKeywords bool
}

// Group is one connected component of similar candidates.
type Group struct {
	// Candidates are ordered by their own confidence, best first.
	Candidates []models.Candidate
	Pages      []string
	Keywords   []string
	Phrases    []string
	Provenance string
}

// Similarity is the Jaccard index of two keyword lists, compared
// case-insensitively over at most MaxKeywords terms each. Two empty lists
// have similarity 0.
func Similarity(a, b []string) float64 {
	sa, sb := keywordSet(a), keywordSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	inter := 0
	for k := range sa {
		if _, ok := sb[k]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(sa)+len(sb)-inter)
}

func keywordSet(keywords []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		if len(set) == MaxKeywords {
			break
		}
		if k = normalizeKeyword(k); k != "" {
			set[k] = struct{}{}
		}
	}
	return set
}

func normalizeKeyword(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

// unionFind keeps the smallest index of a component as its root, so results
// do not depend on the order unions happen in.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(i int) int {
	for uf.parent[i] != i {
		uf.parent[i] = uf.parent[uf.parent[i]]
		i = uf.parent[i]
	}
	return i
}

func (uf *unionFind) union(a, b int) bool {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return false
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	return true
}

// components returns member lists ordered by their smallest member.
func (uf *unionFind) components() [][]int {
	byRoot := make(map[int][]int)
	var roots []int
	for i := range uf.parent {
		r := uf.find(i)
		if _, ok := byRoot[r]; !ok {
			roots = append(roots, r)
		}
		byRoot[r] = append(byRoot[r], i)
	}
	sort.Ints(roots)
	out := make([][]int, len(roots))
	for i, r := range roots {
		out[i] = byRoot[r]
	}
	return out
}

// overlappingPairs lists the index pairs (i < j) that share at least one page
// or keyword. Only these pairs can ever be similar enough to merge, apart
// from a zero threshold where page overlap alone suffices.
func overlappingPairs(pages, keywords [][]string) [][2]int {
	index := make(map[string][]int)
	add := func(prefix string, items [][]string) {
		for i, list := range items {
			seen := make(map[string]struct{}, len(list))
			for _, item := range list {
				key := prefix + normalizeKeyword(item)
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}
				index[key] = append(index[key], i)
			}
		}
	}
	add("p:", pages)
	add("k:", keywords)

	seen := make(map[[2]int]struct{})
	var pairs [][2]int
	for _, members := range index {
		for x := 0; x < len(members); x++ {
			for y := x + 1; y < len(members); y++ {
				p := [2]int{members[x], members[y]}
				if _, ok := seen[p]; ok {
					continue
				}
				seen[p] = struct{}{}
				pairs = append(pairs, p)
			}
		}
	}
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a][0] != pairs[b][0] {
			return pairs[a][0] < pairs[b][0]
		}
		return pairs[a][1] < pairs[b][1]
	})
	return pairs
}

// Merge groups similar candidates. Candidates are linked when their keyword
// similarity reaches the threshold; linked components are then compared
// again on their combined keywords until no two groups reach it, so merging
// the output again changes nothing. Groups below MinClusterSize pages are
// dropped unless rescued by FallbackKeywords.
func Merge(cands []models.Candidate, opts Options) []Group {
	if len(cands) == 0 {
		return nil
	}

	uf := newUnionFind(len(cands))
	pages := make([][]string, len(cands))
	keywords := make([][]string, len(cands))
	for i, c := range cands {
		pages[i] = c.Pages
		keywords[i] = c.Keywords
	}
	for _, p := range overlappingPairs(pages, keywords) {
		if Similarity(keywords[p[0]], keywords[p[1]]) >= opts.SimilarityThreshold {
			uf.union(p[0], p[1])
		}
	}

	for {
		comps := uf.components()
		gPages := make([][]string, len(comps))
		gKeywords := make([][]string, len(comps))
		for g, members := range comps {
			gPages[g] = unionPages(cands, members)
			gKeywords[g] = rankKeywords(cands, members)
		}
		changed := false
		for _, p := range overlappingPairs(gPages, gKeywords) {
			if Similarity(gKeywords[p[0]], gKeywords[p[1]]) >= opts.SimilarityThreshold {
				if uf.union(comps[p[0]][0], comps[p[1]][0]) {
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}

	var groups []Group
	for _, members := range uf.components() {
		g := buildGroup(cands, members)
		if len(g.Pages) < opts.MinClusterSize && !(opts.FallbackKeywords && hasMethod(g.Candidates, models.MethodKeywords)) {
			continue
		}
		groups = append(groups, g)
	}
	return groups
}

func buildGroup(cands []models.Candidate, members []int) Group {
	if len(members) == 1 {
		c := cands[members[0]]
		return Group{
			Candidates: []models.Candidate{c},
			Pages:      unionPages(cands, members),
			Keywords:   rankKeywords(cands, members),
			Phrases:    capPhrases(c.Phrases),
			Provenance: models.Provenance([]models.SourceMethod{c.Method}),
		}
	}

	ordered := make([]models.Candidate, len(members))
	conf := make([]float64, len(members))
	for i, idx := range members {
		ordered[i] = cands[idx]
		conf[i] = scoring.Confidence([]models.Candidate{cands[idx]})
	}
	perm := make([]int, len(members))
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool { return conf[perm[a]] > conf[perm[b]] })
	sorted := make([]models.Candidate, len(members))
	methods := make([]models.SourceMethod, len(members))
	var phrases []string
	for i, p := range perm {
		sorted[i] = ordered[p]
		methods[i] = ordered[p].Method
		phrases = append(phrases, ordered[p].Phrases...)
	}

	return Group{
		Candidates: sorted,
		Pages:      unionPages(cands, members),
		Keywords:   rankKeywords(cands, members),
		Phrases:    capPhrases(phrases),
		Provenance: models.Provenance(methods),
	}
}

func capPhrases(phrases []string) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, p := range phrases {
		if len(out) == MaxPhrases {
			break
		}
		key := strings.ToLower(p)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

func unionPages(cands []models.Candidate, members []int) []string {
	set := make(map[string]struct{})
	for _, idx := range members {
		for _, p := range cands[idx].Pages {
			set[p] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// rankKeywords combines rank-based weights: in a list of n keywords the one
// at rank r contributes (n-r)/n.
func rankKeywords(cands []models.Candidate, members []int) []string {
	weights := make([]map[string]float64, 0, len(members))
	for _, idx := range members {
		var list []string
		seen := make(map[string]struct{})
		for _, k := range cands[idx].Keywords {
			k = normalizeKeyword(k)
			if _, ok := seen[k]; ok || k == "" {
				continue
			}
			seen[k] = struct{}{}
			list = append(list, k)
		}
		w := make(map[string]float64, len(list))
		n := float64(len(list))
		for r, k := range list {
			w[k] = (n - float64(r)) / n
		}
		weights = append(weights, w)
	}
	return mapreduce.RankWeighted(mapreduce.ReduceWeights(weights), MaxKeywords)
}

func hasMethod(cands []models.Candidate, m models.SourceMethod) bool {
	for _, c := range cands {
		if c.Method == m {
			return true
		}
	}
	return false
}

// FromIntents turns emitted intents back into candidates, one per
// contributing method, so they can be merged again. When the intent's page
// scores do not reproduce its confidence, as for intents read back from
// JSON, the candidates carry the confidence itself.
func FromIntents(intents []models.Intent) []models.Candidate {
	var out []models.Candidate
	for _, in := range intents {
		methods := make([]string, 0, len(in.MethodScores))
		for m := range in.MethodScores {
			methods = append(methods, string(m))
		}
		sort.Strings(methods)

		fixed := 0.0
		if len(methods) == 0 || scoring.Round2(scoring.Combine(in.MethodScores)) != scoring.Round2(in.Confidence) {
			fixed = in.Confidence
		}

		if len(methods) == 0 {
			// Intents read back from JSON carry no per-method scores.
			scores := make(map[string]float64, len(in.Pages))
			for _, p := range in.Pages {
				scores[p] = in.Confidence
			}
			for _, m := range models.Methods(in.ExtractionMethod) {
				out = append(out, fromIntent(in, m, in.Pages, scores, fixed))
			}
			continue
		}

		for _, m := range methods {
			scores := in.MethodScores[models.SourceMethod(m)]
			pages := make([]string, 0, len(scores))
			for p := range scores {
				pages = append(pages, p)
			}
			sort.Strings(pages)
			out = append(out, fromIntent(in, models.SourceMethod(m), pages, scores, fixed))
		}
	}
	return out
}

func fromIntent(in models.Intent, m models.SourceMethod, pages []string, scores map[string]float64, fixed float64) models.Candidate {
	return models.Candidate{
		Method:          m,
		LocalID:         string(m) + ":" + in.PrimaryIntent,
		Label:           in.PrimaryIntent,
		Index:           -1,
		Pages:           pages,
		Keywords:        append([]string(nil), in.Keywords...),
		Phrases:         append([]string(nil), in.RepresentativePhrases...),
		PageScores:      scores,
		FixedConfidence: fixed,
	}
}
