package webgraph

import (
	"encoding/binary"
	"errors"
	"io"
)

// edgeRecord is the on-disk representation of one logged edge: the four
// node ids, rel flags, and the two node URLs needed to populate id2node,
// plus the edge label. Fixed-width fields are written first, followed by
// three length-prefixed strings, so the log can be replayed sequentially.
type edgeRecord struct {
	Edge
	fromNode Node
	toNode   Node
}

func (r edgeRecord) toEdge() Edge { return r.Edge }

func writeEdgeRecord(w io.Writer, r edgeRecord) error {
	var hdr [4*8 + 4]byte
	binary.LittleEndian.PutUint64(hdr[0:8], uint64(r.From))
	binary.LittleEndian.PutUint64(hdr[8:16], uint64(r.To))
	binary.LittleEndian.PutUint64(hdr[16:24], uint64(r.FromHost))
	binary.LittleEndian.PutUint64(hdr[24:32], uint64(r.ToHost))
	binary.LittleEndian.PutUint32(hdr[32:36], uint32(r.Rel))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	for _, s := range []string{r.Label, r.fromNode.url, r.toNode.url} {
		if err := writeString(w, s); err != nil {
			return err
		}
	}
	return nil
}

func writeString(w io.Writer, s string) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func readEdgeRecord(r io.Reader, rec *edgeRecord) error {
	var hdr [4*8 + 4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("EOF")
		}
		return err
	}
	rec.From = NodeID(binary.LittleEndian.Uint64(hdr[0:8]))
	rec.To = NodeID(binary.LittleEndian.Uint64(hdr[8:16]))
	rec.FromHost = NodeID(binary.LittleEndian.Uint64(hdr[16:24]))
	rec.ToHost = NodeID(binary.LittleEndian.Uint64(hdr[24:32]))
	rec.Rel = RelFlags(binary.LittleEndian.Uint32(hdr[32:36]))

	label, err := readString(r)
	if err != nil {
		return err
	}
	fromURL, err := readString(r)
	if err != nil {
		return err
	}
	toURL, err := readString(r)
	if err != nil {
		return err
	}
	rec.Label = label
	rec.fromNode = Node{url: fromURL}
	rec.toNode = Node{url: toURL}
	return nil
}
