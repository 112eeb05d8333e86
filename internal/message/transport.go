package message

import (
	"context"
	"errors"
	"io"
	"sync"
)

// Transport is the broadcast/delivery contract shared by gossip fan-out and
// the AMPC coordinator's per-round DHT metadata push. It is the same shape
// as a message broker (produce/consume/ack) because both problems reduce
// to "deliver this envelope to every interested party, at-least-once."
type Transport interface {
	Produce(ctx context.Context, envs ...*Envelope) error
	Consume(ctx context.Context) (*Envelope, ID, error)
	Ack(ctx context.Context, id ID) error
	io.Closer
}

// ErrClosed is returned by a Transport once Close has been called.
var ErrClosed = errors.New("message: transport closed")

// memoryTransport is an in-process, channel-backed Transport for running
// without a real cluster. It never blocks Produce on a slow Consumer past the channel
// buffer, matching the fire-and-forget nature of a DHT round push.
type memoryTransport struct {
	mu     sync.Mutex
	ch     chan *Envelope
	closed bool
}

// NewMemoryTransport returns a Transport backed by a buffered Go channel.
func NewMemoryTransport(buffer int) Transport {
	return &memoryTransport{ch: make(chan *Envelope, buffer)}
}

func (m *memoryTransport) Produce(ctx context.Context, envs ...*Envelope) error {
	for _, e := range envs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		m.mu.Lock()
		closed := m.closed
		m.mu.Unlock()
		if closed {
			return ErrClosed
		}
		select {
		case m.ch <- e:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (m *memoryTransport) Consume(ctx context.Context) (*Envelope, ID, error) {
	select {
	case e, ok := <-m.ch:
		if !ok {
			return nil, nil, ErrClosed
		}
		return e, nil, nil
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

func (m *memoryTransport) Ack(ctx context.Context, id ID) error { return nil }

func (m *memoryTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.ch)
	return nil
}
