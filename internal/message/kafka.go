package message

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig configures a Kafka-backed Transport. Used for gossip
// broadcast and AMPC DHT metadata push when running as a real cluster
// instead of single-process.
type KafkaConfig struct {
	Address      string        `yaml:"Address"`
	Topic        string        `yaml:"Topic"`
	Partition    int           `yaml:"Partition"`
	WriteTimeout time.Duration `yaml:"WriteTimeout"`
	ReadTimeout  time.Duration `yaml:"ReadTimeout"`
}

type kafkaTransport struct {
	conf *KafkaConfig
	conn *kafka.Conn
}

// NewKafkaTransport dials the leader for conf.Topic/Partition and returns a
// Transport over that connection.
func NewKafkaTransport(ctx context.Context, conf *KafkaConfig) (Transport, error) {
	conn, err := kafka.DialLeader(ctx, "tcp", conf.Address, conf.Topic, conf.Partition)
	if err != nil {
		return nil, fmt.Errorf("dial kafka leader: %w", err)
	}
	return &kafkaTransport{conf: conf, conn: conn}, nil
}

func (k *kafkaTransport) Produce(ctx context.Context, envs ...*Envelope) error {
	if k.conf.WriteTimeout > 0 {
		_ = k.conn.SetWriteDeadline(time.Now().Add(k.conf.WriteTimeout))
	}
	errs := make([]error, 0, len(envs))
	for _, e := range envs {
		_, err := k.conn.Write(e.Payload())
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (k *kafkaTransport) Consume(ctx context.Context) (*Envelope, ID, error) {
	if k.conf.ReadTimeout > 0 {
		_ = k.conn.SetReadDeadline(time.Now().Add(k.conf.ReadTimeout))
	}
	batch := k.conn.ReadBatch(1, 1<<20)
	defer batch.Close()
	buf := make([]byte, 1<<20)
	n, err := batch.Read(buf)
	if err != nil {
		return nil, nil, err
	}
	return &Envelope{payload: buf[:n]}, nil, nil
}

func (k *kafkaTransport) Ack(ctx context.Context, id ID) error { return nil }

func (k *kafkaTransport) Close() error { return k.conn.Close() }
