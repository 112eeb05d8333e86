package columnar

import "sort"

// Posting is one entry in a posting list: the doc it occurs in, term
// frequency within that field, and the byte positions needed for phrase
// and proximity scoring (spec.md §4.1/§4.2 "posting lists keyed by
// (field, term)").
type Posting struct {
	Doc       DocID
	Frequency uint32
	Positions []uint32
}

// PostingList is the immutable, doc-id sorted list of postings for a
// single (field, term) key within a segment. Entries is exported so the
// type round-trips through gob when a Segment is saved to disk.
type PostingList struct {
	Entries []Posting
}

// Postings returns the sorted postings, ascending by DocID.
func (p *PostingList) Postings() []Posting { return p.Entries }

// Len returns the document frequency of the term in this segment.
func (p *PostingList) Len() int { return len(p.Entries) }

// postingBuilder accumulates postings for one (field, term) pair before a
// PostingIndex is sealed; doc ids are expected to be appended in
// increasing order since segments are built by streaming documents.
type postingBuilder struct {
	postings []Posting
}

// PostingIndexBuilder accumulates per-field inverted postings lists
// alongside a columnar Builder for the same segment.
type PostingIndexBuilder struct {
	fields map[string]map[string]*postingBuilder
}

// NewPostingIndexBuilder creates an empty posting-index builder.
func NewPostingIndexBuilder() *PostingIndexBuilder {
	return &PostingIndexBuilder{fields: make(map[string]map[string]*postingBuilder)}
}

// AddTerm records one occurrence of term in field for doc at position pos.
// Repeated calls with the same (field, term, doc) accumulate frequency and
// positions; callers are expected to iterate documents in increasing
// DocID order within a segment build.
func (b *PostingIndexBuilder) AddTerm(field, term string, doc DocID, pos uint32) {
	terms, ok := b.fields[field]
	if !ok {
		terms = make(map[string]*postingBuilder)
		b.fields[field] = terms
	}
	pb, ok := terms[term]
	if !ok {
		pb = &postingBuilder{}
		terms[term] = pb
	}
	if n := len(pb.postings); n > 0 && pb.postings[n-1].Doc == doc {
		pb.postings[n-1].Frequency++
		pb.postings[n-1].Positions = append(pb.postings[n-1].Positions, pos)
		return
	}
	pb.postings = append(pb.postings, Posting{Doc: doc, Frequency: 1, Positions: []uint32{pos}})
}

// PostingIndex is the sealed, read-only view over a segment's posting
// lists, keyed by field then term.
type PostingIndex struct {
	fields map[string]map[string]*PostingList
}

// Seal finalizes the builder, sorting each term's postings by DocID (a
// no-op in the common streaming-build case, defensive otherwise).
func (b *PostingIndexBuilder) Seal() *PostingIndex {
	idx := &PostingIndex{fields: make(map[string]map[string]*PostingList)}
	for field, terms := range b.fields {
		sealed := make(map[string]*PostingList)
		for term, pb := range terms {
			sort.Slice(pb.postings, func(i, j int) bool { return pb.postings[i].Doc < pb.postings[j].Doc })
			sealed[term] = &PostingList{Entries: pb.postings}
		}
		idx.fields[field] = sealed
	}
	return idx
}

// Lookup returns the posting list for (field, term), if present.
func (idx *PostingIndex) Lookup(field, term string) (*PostingList, bool) {
	terms, ok := idx.fields[field]
	if !ok {
		return nil, false
	}
	pl, ok := terms[term]
	return pl, ok
}

// DocFrequency returns the number of documents containing term in field,
// used as the df input to IDF computation (spec.md §4.1 BM25F).
func (idx *PostingIndex) DocFrequency(field, term string) int {
	pl, ok := idx.Lookup(field, term)
	if !ok {
		return 0
	}
	return pl.Len()
}
