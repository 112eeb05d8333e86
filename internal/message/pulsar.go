package message

import (
	"context"
	"fmt"
	"sync"

	"github.com/apache/pulsar-client-go/pulsar"
)

// PulsarConfig configures a Pulsar-backed Transport.
type PulsarConfig struct {
	URL   string `yaml:"URL"`
	Topic string `yaml:"Topic"`
}

type pulsarTransport struct {
	mu       sync.Mutex
	client   pulsar.Client
	producer pulsar.Producer
	consumer pulsar.Consumer
}

// NewPulsarTransport connects to conf.URL, subscribing and creating a
// producer on conf.Topic.
func NewPulsarTransport(conf *PulsarConfig) (Transport, error) {
	client, err := pulsar.NewClient(pulsar.ClientOptions{URL: conf.URL})
	if err != nil {
		return nil, fmt.Errorf("pulsar client: %w", err)
	}
	producer, err := client.CreateProducer(pulsar.ProducerOptions{Topic: conf.Topic})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("pulsar producer: %w", err)
	}
	consumer, err := client.Subscribe(pulsar.ConsumerOptions{
		Topic:            conf.Topic,
		SubscriptionName: conf.Topic + "-sub",
	})
	if err != nil {
		producer.Close()
		client.Close()
		return nil, fmt.Errorf("pulsar consumer: %w", err)
	}
	return &pulsarTransport{client: client, producer: producer, consumer: consumer}, nil
}

func (p *pulsarTransport) Produce(ctx context.Context, envs ...*Envelope) error {
	for _, e := range envs {
		if _, err := p.producer.Send(ctx, &pulsar.ProducerMessage{Payload: e.Payload()}); err != nil {
			return err
		}
	}
	return nil
}

func (p *pulsarTransport) Consume(ctx context.Context) (*Envelope, ID, error) {
	msg, err := p.consumer.Receive(ctx)
	if err != nil {
		return nil, nil, err
	}
	return &Envelope{payload: msg.Payload()}, msg.ID(), nil
}

func (p *pulsarTransport) Ack(ctx context.Context, id ID) error {
	mid, ok := id.(pulsar.MessageID)
	if !ok {
		return nil
	}
	return p.consumer.AckID(mid)
}

func (p *pulsarTransport) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.consumer.Close()
	p.producer.Close()
	p.client.Close()
	return nil
}
