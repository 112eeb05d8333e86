package crawler

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// fileQueueHeader precedes every record in a FileQueue's data file: a
// fixed-size length prefix, the postcard-style "Header{body_size}" of
// spec.md §4.7. Encoded as a plain fixed-width big-endian uint32 rather
// than an actual postcard varint, since no example repo in the retrieval
// pack pulls in a postcard-equivalent crate; a fixed-width length prefix
// is the idiomatic Go answer for a self-delimiting record stream
// (internal/webgraph's edge log frames its strings with a 4-byte length
// prefix too, in little-endian order).
const headerSize = 4

// FileQueue is the append-only data file + fixed-size pointer file
// described in spec.md §4.7: "Append-only data file + fixed-size pointer
// file storing a monotonic read offset." Records are gob-encoded bodies,
// consumed in insertion order, exactly once per pointer (spec.md §8).
type FileQueue[T any] struct {
	mu         sync.Mutex
	dataPath   string
	pointerPath string
	data       *os.File
	readOffset int64
}

// OpenFileQueue opens (creating if absent) the data/pointer file pair
// under dir.
func OpenFileQueue[T any](dir string) (*FileQueue[T], error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	dataPath := filepath.Join(dir, "data")
	pointerPath := filepath.Join(dir, "pointer")

	f, err := os.OpenFile(dataPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}

	q := &FileQueue[T]{dataPath: dataPath, pointerPath: pointerPath, data: f}
	q.readOffset, err = readPointer(pointerPath)
	if err != nil {
		f.Close()
		return nil, err
	}
	return q, nil
}

func readPointer(path string) (int64, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(b) < 8 {
		return 0, nil
	}
	return int64(binary.LittleEndian.Uint64(b[:8])), nil
}

// writePointer persists offset to the pointer file via a temp-file +
// atomic rename, the same out-of-place-build pattern internal/columnar's
// segment writer uses (spec.md §4.2), so a crash never leaves a
// partially-written pointer.
func writePointer(path string, offset int64) error {
	tmp := path + ".tmp"
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(offset))
	if err := os.WriteFile(tmp, b[:], 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Push appends one record to the tail of the queue.
func (q *FileQueue[T]) Push(v T) error {
	return q.PushAll([]T{v})
}

// PushAll appends every record in vs, in order, to the tail of the queue.
func (q *FileQueue[T]) PushAll(vs []T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, err := q.data.Seek(0, os.SEEK_END); err != nil {
		return err
	}
	for _, v := range vs {
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(v); err != nil {
			return fmt.Errorf("filequeue encode: %w", err)
		}
		body := buf.Bytes()
		var header [headerSize]byte
		binary.BigEndian.PutUint32(header[:], uint32(len(body)))
		if _, err := q.data.Write(header[:]); err != nil {
			return err
		}
		if _, err := q.data.Write(body); err != nil {
			return err
		}
	}
	return nil
}

// Pop reads and returns the next unconsumed record, advancing the
// durable read cursor by sizeof(header)+body_size (spec.md §4.7 "File
// queue"). Returns false once the cursor reaches the end of the data
// file.
func (q *FileQueue[T]) Pop() (T, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	var header [headerSize]byte
	n, err := q.data.ReadAt(header[:], q.readOffset)
	if n < headerSize {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	bodySize := binary.BigEndian.Uint32(header[:])

	body := make([]byte, bodySize)
	if _, err := q.data.ReadAt(body, q.readOffset+headerSize); err != nil {
		return zero, false, err
	}

	var v T
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(&v); err != nil {
		return zero, false, fmt.Errorf("filequeue decode: %w", err)
	}

	newOffset := q.readOffset + headerSize + int64(bodySize)
	if err := writePointer(q.pointerPath, newOffset); err != nil {
		return zero, false, err
	}
	q.readOffset = newOffset
	return v, true, nil
}

// PopAll drains every remaining record from the queue.
func (q *FileQueue[T]) PopAll() ([]T, error) {
	var out []T
	for {
		v, ok, err := q.Pop()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// Close releases the queue's underlying file handle.
func (q *FileQueue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.data.Close()
}
