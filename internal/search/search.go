// Package search implements component K: a hybrid BM25 + embedding search
// helper used by the inference aggregator to calibrate candidate assertion
// support against a reference corpus.
//
// Grounded on original_source/src/infer/frankensearch.rs (full
// implementation) — its lexical/semantic/fusion algorithm, constants, and
// tie-break rules, ported onto github.com/blevesearch/bleve/v2 for the
// lexical side since the Rust crate family it used has no Go equivalent in
// the retrieved corpus. The semantic side cannot use hash/maphash: Go's
// stdlib seed is randomized per process and offers no fixed-seed
// constructor, which would break determinism across separate invocations,
// so the embedding uses a small hand-written splitmix64 hashing-trick
// feature hash seeded with the fixed constant instead.
package search

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
)

const (
	semanticEmbedDim                 = 384
	embedSeed                  uint64 = 0x5EED_CAFE_F00D_BAAD
	defaultSemanticSupportThreshold   = 0.25
	rrfK                              = 60.0
)

// SearchDocument is one member of a reference corpus.
type SearchDocument struct {
	ID      string
	Title   *string
	Content string
}

// HybridHit is one result of a fused lexical+semantic search.
type HybridHit struct {
	DocID         string
	FusedScore    float64
	LexicalRank   *int
	SemanticRank  *int
	LexicalScore  *float64
	SemanticScore *float64
}

// HybridSearcher indexes a fixed corpus for repeated hybrid queries.
type HybridSearcher struct {
	docs       []SearchDocument
	index      bleve.Index
	embeddings map[string][]float64
}

// NewHybridSearcher builds a fresh in-memory lexical index and a
// deterministic hash embedding for each document. documents must be
// non-empty.
func NewHybridSearcher(documents []SearchDocument) (*HybridSearcher, error) {
	if len(documents) == 0 {
		return nil, fmt.Errorf("hybrid searcher requires at least one document")
	}

	docs := append([]SearchDocument(nil), documents...)
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("building lexical index: %w", err)
	}

	embeddings := make(map[string][]float64, len(docs))
	for _, d := range docs {
		title := ""
		if d.Title != nil {
			title = *d.Title
		}
		if err := idx.Index(d.ID, map[string]any{"title": title, "content": d.Content}); err != nil {
			return nil, fmt.Errorf("indexing document '%s': %w", d.ID, err)
		}
		embeddings[d.ID] = embed(title + " " + d.Content)
	}

	return &HybridSearcher{docs: docs, index: idx, embeddings: embeddings}, nil
}

// Search returns the top `limit` documents by Reciprocal Rank Fusion of the
// lexical (bleve BM25) and semantic (hash-embedding cosine) rankings.
func (s *HybridSearcher) Search(query string, limit int) []HybridHit {
	if strings.TrimSpace(query) == "" || limit <= 0 {
		return nil
	}
	candidateLimit := max(len(s.docs), limit)

	lexical := s.lexicalSearch(query, candidateLimit)
	semantic := s.semanticHits(query, candidateLimit)

	fused := fuseHits(lexical, semantic)
	if len(fused) > limit {
		fused = fused[:limit]
	}
	return fused
}

// SupportForQueryDefault calls SupportForQuery with the default semantic
// support threshold (0.25).
func (s *HybridSearcher) SupportForQueryDefault(query string) int {
	return s.SupportForQuery(query, defaultSemanticSupportThreshold)
}

// SupportForQuery counts documents supporting query: either ranked
// lexically at all, or scoring at or above threshold semantically.
func (s *HybridSearcher) SupportForQuery(query string, threshold float64) int {
	hits := s.Search(query, len(s.docs))
	count := 0
	for _, h := range hits {
		if h.LexicalRank != nil || (h.SemanticScore != nil && *h.SemanticScore >= threshold) {
			count++
		}
	}
	return count
}

type rankedHit struct {
	docID string
	score float64
}

func (s *HybridSearcher) lexicalSearch(query string, limit int) []rankedHit {
	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	result, err := s.index.Search(req)
	if err != nil {
		return nil
	}
	hits := make([]rankedHit, 0, len(result.Hits))
	for _, h := range result.Hits {
		hits = append(hits, rankedHit{docID: h.ID, score: h.Score})
	}
	return hits
}

func (s *HybridSearcher) semanticHits(query string, limit int) []rankedHit {
	qvec := embed(query)
	hits := make([]rankedHit, 0, len(s.docs))
	for _, d := range s.docs {
		score := dot(qvec, s.embeddings[d.ID])
		if score > 0 && !math.IsNaN(score) && !math.IsInf(score, 0) {
			hits = append(hits, rankedHit{docID: d.ID, score: score})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].docID < hits[j].docID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

func fuseHits(lexical, semantic []rankedHit) []HybridHit {
	type acc struct {
		fused         float64
		lexicalRank   *int
		semanticRank  *int
		lexicalScore  *float64
		semanticScore *float64
	}
	byID := map[string]*acc{}
	var order []string
	get := func(id string) *acc {
		if a, ok := byID[id]; ok {
			return a
		}
		a := &acc{}
		byID[id] = a
		order = append(order, id)
		return a
	}

	for i, h := range lexical {
		a := get(h.docID)
		rank, score := i, h.score
		a.lexicalRank, a.lexicalScore = &rank, &score
		a.fused += 1.0 / (rrfK + float64(rank) + 1.0)
	}
	for i, h := range semantic {
		a := get(h.docID)
		rank, score := i, h.score
		a.semanticRank, a.semanticScore = &rank, &score
		a.fused += 1.0 / (rrfK + float64(rank) + 1.0)
	}

	result := make([]HybridHit, 0, len(order))
	for _, id := range order {
		a := byID[id]
		result = append(result, HybridHit{
			DocID: id, FusedScore: a.fused,
			LexicalRank: a.lexicalRank, SemanticRank: a.semanticRank,
			LexicalScore: a.lexicalScore, SemanticScore: a.semanticScore,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].FusedScore != result[j].FusedScore {
			return result[i].FusedScore > result[j].FusedScore
		}
		li, lj := scoreOrNegInf(result[i].LexicalScore), scoreOrNegInf(result[j].LexicalScore)
		if li != lj {
			return li > lj
		}
		return result[i].DocID < result[j].DocID
	})
	return result
}

func scoreOrNegInf(f *float64) float64 {
	if f == nil {
		return math.Inf(-1)
	}
	return *f
}

var tokenRe = regexp.MustCompile(`[A-Za-z0-9]+`)

func tokenize(s string) []string {
	return tokenRe.FindAllString(strings.ToLower(s), -1)
}

// embed produces a unit-length semanticEmbedDim-dimensional hashing-trick
// vector, so that the dot product between two embeddings equals their
// cosine similarity.
func embed(text string) []float64 {
	vec := make([]float64, semanticEmbedDim)
	for _, tok := range tokenize(text) {
		h := featureHash(tok)
		idx := int(h % semanticEmbedDim)
		if (h>>1)&1 == 1 {
			vec[idx] -= 1
		} else {
			vec[idx] += 1
		}
	}
	normalize(vec)
	return vec
}

func featureHash(token string) uint64 {
	h := embedSeed
	for i := 0; i < len(token); i++ {
		h ^= uint64(token[i])
		h = splitmix64(h)
	}
	return splitmix64(h)
}

func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func normalize(vec []float64) {
	var sumSq float64
	for _, v := range vec {
		sumSq += v * v
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i := range vec {
		vec[i] /= norm
	}
}
