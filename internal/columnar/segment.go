package columnar

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// segmentPayload is the gob-encodable snapshot of a sealed segment; Column
// and PostingList are plain data so gob round-trips them without custom
// marshalers.
type segmentPayload struct {
	NumDocs  int
	Columns  map[string]*Column
	Postings map[string]map[string]*PostingList
}

// Segment pairs a sealed columnar Reader with its PostingIndex and knows
// how to persist itself to disk.
type Segment struct {
	Reader   *Reader
	Postings *PostingIndex
}

// Seal combines a Builder and PostingIndexBuilder into one immutable
// Segment.
func Seal(cb *Builder, pb *PostingIndexBuilder) *Segment {
	return &Segment{Reader: cb.Seal(), Postings: pb.Seal()}
}

// Save writes the segment to dir/segment.bin.zst, building the file
// out-of-place in a temp sibling and atomically renaming it into place so
// readers never observe a partially-written segment (spec.md §4.2
// "segments are built out-of-place... finalized by atomic rename").
func (s *Segment) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	final := filepath.Join(dir, "segment.bin.zst")
	tmp := final + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp segment: %w", err)
	}
	defer os.Remove(tmp)

	zw, err := zstd.NewWriter(bufio.NewWriter(f))
	if err != nil {
		f.Close()
		return fmt.Errorf("new zstd writer: %w", err)
	}

	payload := segmentPayload{
		NumDocs:  s.Reader.numDocs,
		Columns:  s.Reader.fields,
		Postings: s.Postings.fields,
	}
	if err := gob.NewEncoder(zw).Encode(&payload); err != nil {
		zw.Close()
		f.Close()
		return fmt.Errorf("encode segment: %w", err)
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("close zstd writer: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync temp segment: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, final)
}

// LoadSegment reads a segment previously written by Save.
func LoadSegment(dir string) (*Segment, error) {
	f, err := os.Open(filepath.Join(dir, "segment.bin.zst"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := zstd.NewReader(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("new zstd reader: %w", err)
	}
	defer zr.Close()

	var payload segmentPayload
	if err := gob.NewDecoder(zr).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode segment: %w", err)
	}
	return &Segment{
		Reader:   &Reader{fields: payload.Columns, numDocs: payload.NumDocs},
		Postings: &PostingIndex{fields: payload.Postings},
	}, nil
}
