package pkg

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// ErrKeyNotFound is returned by NATSKeyValue.Get for a missing key.
var ErrKeyNotFound = errors.New("key not found")

// NATSKeyValue is a thin adapter over a JetStream key-value bucket.
type NATSKeyValue struct {
	conn *nats.Conn
	kv   jetstream.KeyValue
}

// NewNATSKeyValue binds to bucket, creating it when it does not exist yet.
func NewNATSKeyValue(ctx context.Context, url, bucket string) (*NATSKeyValue, error) {
	conn, err := connect(url, "bootheat-kv-"+bucket)
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	kv, err := js.KeyValue(ctx, bucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:  bucket,
			History: 1,
		})
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("cannot bind key-value bucket %s: %w", bucket, err)
	}

	return &NATSKeyValue{conn: conn, kv: kv}, nil
}

func (s *NATSKeyValue) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("cannot get key %s: %w", key, err)
	}
	return entry.Value(), nil
}

func (s *NATSKeyValue) Put(ctx context.Context, key string, value []byte) error {
	if _, err := s.kv.Put(ctx, key, value); err != nil {
		return fmt.Errorf("cannot put key %s: %w", key, err)
	}
	return nil
}

func (s *NATSKeyValue) Delete(ctx context.Context, key string) error {
	if err := s.kv.Delete(ctx, key); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("cannot delete key %s: %w", key, err)
	}
	return nil
}

// Keys lists every live key; an empty bucket yields an empty slice.
func (s *NATSKeyValue) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("cannot list keys: %w", err)
	}
	return keys, nil
}

func (s *NATSKeyValue) Close() error {
	s.conn.Close()
	return nil
}
