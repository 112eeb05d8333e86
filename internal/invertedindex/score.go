package invertedindex

import (
	"math"

	"github.com/stract/stract/internal/columnar"
)

// bm25FieldParams are the k1/b constants BM25F uses per field (spec.md
// §4.1 "BM25F uses k1/b constants per field").
type bm25FieldParams struct{ K1, B float64 }

var defaultFieldParams = map[Field]bm25FieldParams{
	FieldAllBody:   {K1: 1.2, B: 0.75},
	FieldTitle:     {K1: 1.2, B: 0.3},
	FieldCleanBody: {K1: 1.2, B: 0.6},
	FieldUrlField:  {K1: 1.0, B: 0.2},
	FieldSiteField: {K1: 1.0, B: 0.2},
}

// BM25F computes the shared-IDF BM25F contribution of one term across a
// set of fields a document carries it in. The IDF factor always comes
// from the AllBody field's document frequency regardless of which field
// the TF/length-normalization terms are computed against, so "a term
// rare everywhere gets its rareness boost uniformly" (spec.md §4.1).
type BM25F struct {
	postings    *columnar.PostingIndex
	totalDocs   int
	avgFieldLen map[Field]float64
}

// NewBM25F builds a scorer for one segment's posting index.
func NewBM25F(postings *columnar.PostingIndex, totalDocs int, avgFieldLen map[Field]float64) *BM25F {
	return &BM25F{postings: postings, totalDocs: totalDocs, avgFieldLen: avgFieldLen}
}

func (s *BM25F) idf(term string) float64 {
	df := s.postings.DocFrequency(fieldName(FieldAllBody), term)
	if df == 0 {
		return 0
	}
	n := float64(s.totalDocs)
	return math.Log(1 + (n-float64(df)+0.5)/(float64(df)+0.5))
}

// TermScore returns the BM25F contribution of term in field for doc,
// given the document's length in that field (in tokens) and the term
// frequency in that field.
func (s *BM25F) TermScore(field Field, term string, tf uint32, docFieldLen int) float64 {
	idf := s.idf(term)
	if idf == 0 {
		return 0
	}
	params, ok := defaultFieldParams[field]
	if !ok {
		params = bm25FieldParams{K1: 1.2, B: 0.75}
	}
	avg := s.avgFieldLen[field]
	if avg <= 0 {
		avg = 1
	}
	norm := 1 - params.B + params.B*(float64(docFieldLen)/avg)
	num := float64(tf) * (params.K1 + 1)
	den := float64(tf) + params.K1*norm
	return idf * num / den
}

func fieldName(f Field) string {
	switch f {
	case FieldAllBody:
		return "all_body"
	case FieldTitle:
		return "title"
	case FieldCleanBody:
		return "clean_body"
	case FieldUrlField:
		return "url"
	case FieldSiteField:
		return "site"
	case FieldKeyPhrase:
		return "key_phrases"
	default:
		return "unknown"
	}
}

// Signals holds the non-BM25F scoring inputs read from the document's
// columnar fields (spec.md §4.1 "Score per document = linear combination
// of named signals").
type Signals struct {
	BM25FScore            float64
	ExactTitleMatch        bool
	UrlSlashDepth          int
	CleanBodyRatio         float64
	HostCentralityRank     uint64
	PageCentralityRank     uint64
	EmbeddingCosineTitle   float64
	EmbeddingCosineKeyword float64
	RecencyDays            float64
	IsPaywallOrAds         bool
	OpticBoost             float64
}

// weights are the default linear coefficients combining Signals into a
// final score; an Optic's RankingOverrides (internal/optic) may replace
// any entry by name before calling Combine.
var weights = map[string]float64{
	"bm25f":           1.0,
	"exact_title":     3.0,
	"url_slash_depth": -0.1,
	"clean_body_ratio": 0.5,
	"host_rank":       2.0,
	"page_rank":       1.0,
	"embedding_title": 1.5,
	"embedding_keyword": 1.0,
	"recency":         0.3,
	"paywall_penalty": -2.0,
}

// Combine linearly combines a document's Signals into one score, using
// coeffs to override any named weight (from Optic Ranking directives).
func Combine(s Signals, coeffs map[string]float64) float64 {
	w := func(name string, def float64) float64 {
		if c, ok := coeffs[name]; ok {
			return c
		}
		return def
	}

	score := w("bm25f", weights["bm25f"]) * s.BM25FScore
	if s.ExactTitleMatch {
		score += w("exact_title", weights["exact_title"])
	}
	score += w("url_slash_depth", weights["url_slash_depth"]) * float64(s.UrlSlashDepth)
	score += w("clean_body_ratio", weights["clean_body_ratio"]) * s.CleanBodyRatio
	score += w("host_rank", weights["host_rank"]) * inverseLogRank(s.HostCentralityRank)
	score += w("page_rank", weights["page_rank"]) * inverseLogRank(s.PageCentralityRank)
	score += w("embedding_title", weights["embedding_title"]) * s.EmbeddingCosineTitle
	score += w("embedding_keyword", weights["embedding_keyword"]) * s.EmbeddingCosineKeyword
	score += w("recency", weights["recency"]) * recencyScore(s.RecencyDays)
	if s.IsPaywallOrAds {
		score += w("paywall_penalty", weights["paywall_penalty"])
	}
	score += s.OpticBoost
	return score
}

// inverseLogRank turns a "lower is better" rank into a bounded score
// that favors low ranks without diverging for rank 0.
func inverseLogRank(rank uint64) float64 {
	return 1.0 / math.Log2(float64(rank)+2)
}

func recencyScore(days float64) float64 {
	if days < 0 {
		return 0
	}
	return 1.0 / (1.0 + days/365.0)
}
