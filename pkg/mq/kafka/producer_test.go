package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strawxiguan/zzz-gachalog/pkg/logger"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Topic = ""
	assert.ErrorIs(t, cfg.Validate(), ErrEmptyTopic)

	cfg = DefaultConfig()
	cfg.Brokers = nil
	assert.ErrorIs(t, cfg.Validate(), ErrNoBrokers)
}

func TestNewProducer(t *testing.T) {
	p, err := NewProducer(&Config{Topic: "events"}, logger.NewNoop())
	require.NoError(t, err)
	assert.Equal(t, "events", p.Topic())
	require.NoError(t, p.Close())

	_, err = NewProducer(&Config{
		Topic: "events",
		SASL:  &SASLConfig{Mechanism: "GSSAPI", Username: "u"},
	}, logger.NewNoop())
	assert.ErrorIs(t, err, ErrUnsupportedSASL)

	_, err = NewProducer(&Config{
		Topic: "events",
		TLS:   &TLSConfig{Enable: true, CertFile: "client.pem"},
	}, logger.NewNoop())
	assert.ErrorIs(t, err, ErrInvalidTLS)
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer("events", w, logger.NewNoop())

	err := p.Publish(context.Background(),
		&Message{Key: []byte("1001"), Value: []byte(`{"a":1}`), Headers: map[string]string{"type": "synced"}},
		&Message{Key: []byte("1002"), Value: []byte(`{"a":2}`)},
	)
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, []byte("1001"), w.msgs[0].Key)
	require.Len(t, w.msgs[0].Headers, 1)
	assert.Equal(t, "type", w.msgs[0].Headers[0].Key)
	assert.Empty(t, w.msgs[1].Headers)

	assert.NoError(t, p.Publish(context.Background()))

	stats := p.Stats()
	assert.Equal(t, int64(2), stats.MessagesProduced)
	assert.Equal(t, int64(2), stats.MessagesSucceeded)
}

func TestProducer_PublishError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := newProducer("events", w, logger.NewNoop())

	err := p.Publish(context.Background(), &Message{Value: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
	assert.Equal(t, int64(1), p.Stats().MessagesFailed)
}

func TestProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer("events", w, logger.NewNoop())

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
	assert.ErrorIs(t, p.Publish(context.Background(), &Message{}), ErrProducerClosed)
}

func TestParseCompression(t *testing.T) {
	assert.Equal(t, kafka.Snappy, parseCompression("snappy"))
	assert.Equal(t, kafka.Zstd, parseCompression("zstd"))
	assert.Equal(t, kafka.Compression(0), parseCompression("none"))
}

func TestNewSASLMechanism(t *testing.T) {
	m, err := newSASLMechanism(&SASLConfig{Mechanism: "SCRAM-SHA-512", Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "SCRAM-SHA-512", m.Name())

	m, err = newSASLMechanism(&SASLConfig{Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "PLAIN", m.Name())

	m, err = newSASLMechanism(&SASLConfig{Mechanism: "scram-sha-256", Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "SCRAM-SHA-256", m.Name())
}
