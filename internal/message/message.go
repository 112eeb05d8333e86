// Package message defines the envelope used by every RPC and broadcast in
// the system (search fan-out, crawl coordinator calls, AMPC worker pushes,
// gossip announcements). The wire format itself is out of scope (spec.md
// §1 treats the TCP RPC format as an external contract); this package only
// fixes the logical envelope and its JSON codec.
package message

import "encoding/json"

// ID identifies a message within a Transport's delivery log (e.g. a file
// queue offset or a broker partition offset). Transports that have no
// notion of delivery IDs (in-memory, request/response) may return nil.
type ID any

// Headers carries out-of-band metadata alongside a payload: trace ids,
// deadlines, retry counts.
type Headers map[string]any

func NewHeaders() Headers { return make(Headers) }

func (h Headers) Set(key string, value any) Headers {
	h[key] = value
	return h
}

func (h Headers) Get(key string) (any, bool) {
	v, ok := h[key]
	return v, ok
}

// Envelope is the unit exchanged over a Transport.
type Envelope struct {
	payload []byte
	headers Headers
}

// New wraps v as an Envelope. A []byte is stored verbatim; anything else is
// JSON-marshaled.
func New(v any) (*Envelope, error) {
	if b, ok := v.([]byte); ok {
		return &Envelope{payload: b}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &Envelope{payload: b}, nil
}

func (e *Envelope) Payload() []byte { return e.payload }

func (e *Envelope) Headers() Headers {
	if e.headers == nil {
		e.headers = NewHeaders()
	}
	return e.headers
}

func (e *Envelope) SetHeaders(h Headers) *Envelope {
	e.headers = h
	return e
}

func (e *Envelope) Unmarshal(v any) error {
	return json.Unmarshal(e.payload, v)
}
