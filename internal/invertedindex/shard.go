package invertedindex

import (
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/stract/stract/internal/columnar"
	"github.com/stract/stract/internal/optic"
	"github.com/stract/stract/internal/term"
	"github.com/stract/stract/pkg/text"
)

// Document is the full record returned for a surviving pointer in round
// 2 of distributed search (spec.md §3 "Entity: Document").
type Document struct {
	Url                string
	Title              string
	Description        string
	Language           string
	Region             string
	HostCentralityRank uint64
	PageCentralityRank uint64
	LikelyHasAdsOrPaywall bool
	Keywords           []string
	Snippet            string
}

type docRecord struct {
	Document
	AllBody        string
	CleanBody      string
	Site           string
	RecencyDays    float64
	EmbTitle       float64
	EmbKeyword     float64
}

// Count is re-exported from columnar so callers of this package don't
// need to import columnar directly for the num_websites result shape.
type Count = columnar.Count

// InitialResult is the shard's round-1 response (spec.md §6 "Search{...}
// → Option<InitialWebsiteResult{...}>").
type InitialResult struct {
	Websites    []Pointer
	NumWebsites Count
}

// Shard is a single self-contained inverted index + columnar store +
// document store (spec.md §3 "Entity: Shard"). Building is append-only
// via Insert; Seal freezes the posting index for querying.
type Shard struct {
	id       uint64
	docs     []docRecord
	cb       *columnar.Builder
	pb       *columnar.PostingIndexBuilder
	sealed   *columnar.Segment
	fieldLen map[Field]int // running total, used to compute averages at Seal
}

// NewShard creates an empty, writable shard.
func NewShard(id uint64, capacityHint int) *Shard {
	return &Shard{
		id:       id,
		cb:       columnar.NewBuilder(capacityHint),
		pb:       columnar.NewPostingIndexBuilder(),
		fieldLen: make(map[Field]int),
	}
}

// Insert appends one document to the shard, indexing its searchable
// fields and recording its columnar signal values. Documents must be
// inserted in increasing DocID order (0, 1, 2, ...).
func (s *Shard) Insert(doc Document, allBody, cleanBody, site string, hostRank, pageRank uint64, embTitle, embKeyword, recencyDays float64) columnar.DocID {
	id := columnar.DocID(len(s.docs))
	rec := docRecord{Document: doc, AllBody: allBody, CleanBody: cleanBody, Site: site, RecencyDays: recencyDays, EmbTitle: embTitle, EmbKeyword: embKeyword}
	s.docs = append(s.docs, rec)

	s.indexField(FieldAllBody, allBody, id)
	s.indexField(FieldTitle, doc.Title, id)
	s.indexField(FieldCleanBody, cleanBody, id)
	s.indexField(FieldUrlField, doc.Url, id)
	s.indexField(FieldSiteField, site, id)
	s.indexField(FieldKeyPhrase, strings.Join(doc.Keywords, " "), id)

	s.cb.SetU64("host_rank", id, hostRank)
	s.cb.SetU64("page_rank", id, pageRank)
	return id
}

func (s *Shard) indexField(f Field, text string, id columnar.DocID) {
	toks := term.Tokenize(text)
	s.fieldLen[f] += len(toks)
	for pos, tok := range toks {
		s.pb.AddTerm(fieldName(f), tok.Text, id, uint32(pos))
	}
}

// Seal finalizes the shard's posting index and columnar store.
func (s *Shard) Seal() {
	s.sealed = columnar.Seal(s.cb, s.pb)
}

func (s *Shard) avgFieldLens() map[Field]float64 {
	n := float64(len(s.docs))
	if n == 0 {
		n = 1
	}
	out := make(map[Field]float64)
	for f, total := range s.fieldLen {
		out[f] = float64(total) / n
	}
	return out
}

// ID returns the shard's identifier (spec.md §3 "Entity: Shard ...
// identified by ShardId"), used by the distributed coordinator's
// deterministic cross-shard tie-break (spec.md §4.6, §9 Open Questions).
func (s *Shard) ID() uint64 { return s.id }

// NumDocuments returns the number of documents held in this shard
// (spec.md §4.1 "num_documents()").
func (s *Shard) NumDocuments() int { return len(s.docs) }

// GetWebpage resolves url to its Document, if present in this shard
// (spec.md §4.1 "get_webpage(url)"). The URL-uniqueness invariant
// (spec.md §3) means at most one match is possible per shard.
func (s *Shard) GetWebpage(url string) (Document, bool) {
	for _, d := range s.docs {
		if d.Url == url {
			return d.Document, true
		}
	}
	return Document{}, false
}

// GetSiteUrls lists URLs belonging to site, paginated (spec.md §4.1
// "get_site_urls(site, offset, limit)").
func (s *Shard) GetSiteUrls(site string, offset, limit int) []string {
	var out []string
	skipped := 0
	for _, d := range s.docs {
		if d.Site != site {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if len(out) >= limit {
			break
		}
		out = append(out, d.Url)
	}
	return out
}

// SearchInitial parses query, evaluates it against every document, scores
// matches, and returns the shard's round-1 top-K (spec.md §4.1
// "search_initial(query, de_rank_similar) → InitialResult").
func (s *Shard) SearchInitial(query string, numResults, offset int, deRankSimilar bool, o *optic.Optic) (InitialResult, error) {
	terms, err := ParseQuery(query)
	if err != nil {
		return InitialResult{}, err
	}
	tree := Compact(BuildBoolean(terms))

	capacity := numResults + offset
	if capacity <= 0 {
		capacity = 0
	}
	collector := NewCollector(capacity)
	scorer := NewBM25F(s.sealed.Postings, len(s.docs), s.avgFieldLens())
	counter := columnar.NewApproxCounter(10_000, uint64(len(s.docs)))

	var coeffs map[string]float64
	if o != nil {
		coeffs = optic.RankingCoefficients(o)
	}

	hit := 0
	for i, rec := range s.docs {
		id := columnar.DocID(i)
		matcher := func(f Field, t string) bool { return docHasTerm(s.sealed.Postings, f, t, id) }
		if !Matches(tree, matcher) {
			continue
		}
		hit++

		sig := s.signalsFor(rec, id, terms, scorer)
		if o != nil {
			opRes := optic.Evaluate(o, documentToOptic(rec))
			if opRes.Discard {
				continue
			}
			sig.OpticBoost = opRes.Boost
		}
		score := Combine(sig, coeffs)

		collector.Offer(Pointer{
			Score:   score,
			UrlHash: xxhash.Sum64String(rec.Url),
			DocID:   id,
			Host:    rec.Site,
		})
	}
	counter.Observe(min(hit, 10_000), len(s.docs))

	fruits := collector.Fruits(0)
	if deRankSimilar {
		fruits = collector.Fruits(3)
	}
	return InitialResult{Websites: fruits, NumWebsites: counter.Count()}, nil
}

func docHasTerm(postings *columnar.PostingIndex, f Field, text string, doc columnar.DocID) bool {
	toks := term.Tokenize(text)
	if len(toks) == 0 {
		return false
	}
	for _, tok := range toks {
		pl, ok := postings.Lookup(fieldName(f), tok.Text)
		if !ok {
			return false
		}
		found := false
		for _, p := range pl.Postings() {
			if p.Doc == doc {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (s *Shard) signalsFor(rec docRecord, id columnar.DocID, terms []Term, scorer *BM25F) Signals {
	var bm25 float64
	for _, t := range terms {
		text := t.Text
		if t.Kind == KindPhrase {
			text = joinPhrase(t.Phrase)
		}
		if text == "" {
			continue
		}
		pl, ok := scorer.postings.Lookup(fieldName(FieldAllBody), term.Normalize(text))
		if !ok {
			continue
		}
		for _, p := range pl.Postings() {
			if p.Doc == id {
				bm25 += scorer.TermScore(FieldAllBody, text, p.Frequency, len(term.Tokenize(rec.AllBody)))
			}
		}
	}

	exactTitle := false
	for _, t := range terms {
		if t.Text != "" && strings.EqualFold(rec.Title, t.Text) {
			exactTitle = true
		}
	}

	hostRankCol, _ := s.sealed.Reader.Field("host_rank")
	pageRankCol, _ := s.sealed.Reader.Field("page_rank")

	return Signals{
		BM25FScore:             bm25,
		ExactTitleMatch:        exactTitle,
		UrlSlashDepth:          strings.Count(strings.TrimPrefix(rec.Url, "https://"), "/"),
		CleanBodyRatio:         cleanBodyRatio(rec.CleanBody, rec.AllBody),
		HostCentralityRank:     hostRankCol.U64(id),
		PageCentralityRank:     pageRankCol.U64(id),
		EmbeddingCosineTitle:   rec.EmbTitle,
		EmbeddingCosineKeyword: rec.EmbKeyword,
		RecencyDays:            rec.RecencyDays,
		IsPaywallOrAds:         rec.LikelyHasAdsOrPaywall,
	}
}

func cleanBodyRatio(clean, all string) float64 {
	if len(all) == 0 {
		return 0
	}
	return float64(len(clean)) / float64(len(all))
}

func documentToOptic(rec docRecord) optic.Document {
	return optic.Document{
		Site:        rec.Site,
		Domain:      rec.Site,
		Url:         rec.Url,
		Title:       rec.Title,
		Description: rec.Description,
		Content:     rec.CleanBody,
	}
}

// RetrieveWebsites resolves a set of round-1 Pointers back to full
// Documents, preserving input order (spec.md §4.6 round 2). query
// drives snippet generation: the returned Document.Snippet is the first
// clean-body sentence containing one of query's terms, falling back to
// the first sentence when no term matches (spec.md §4.1
// "retrieve_websites(pointers, query_for_snippets)").
func (s *Shard) RetrieveWebsites(pointers []Pointer, query string) []Document {
	queryTerms := snippetTerms(query)
	out := make([]Document, 0, len(pointers))
	for _, p := range pointers {
		if int(p.DocID) >= len(s.docs) {
			continue
		}
		rec := s.docs[p.DocID]
		doc := rec.Document
		doc.Snippet = buildSnippet(rec.CleanBody, queryTerms)
		out = append(out, doc)
	}
	return out
}

// snippetTerms normalizes query into the lowercased term set a snippet
// match is scored against.
func snippetTerms(query string) map[string]bool {
	toks := term.Tokenize(query)
	out := make(map[string]bool, len(toks))
	for _, t := range toks {
		out[t.Text] = true
	}
	return out
}

// buildSnippet picks the first sentence of body containing a query term,
// falling back to the first non-empty sentence, then to a left-trimmed
// prefix of body (pkg/text.AlignToLeft keeps the fallback free of
// leading whitespace noise from the raw body text).
func buildSnippet(body string, queryTerms map[string]bool) string {
	if body == "" {
		return ""
	}
	ranges := term.SentenceRanges(body)
	runes := []rune(body)
	var fallback string
	for _, r := range ranges {
		sentence := string(runes[r[0]:r[1]])
		if fallback == "" {
			fallback = sentence
		}
		if len(queryTerms) == 0 {
			continue
		}
		for _, tok := range term.Tokenize(sentence) {
			if queryTerms[tok.Text] {
				return sentence
			}
		}
	}
	if fallback != "" {
		return fallback
	}
	lines := text.Lines(body)
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(text.AlignToLeft(lines[0]))
}
