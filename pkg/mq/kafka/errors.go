package kafka

import "errors"

var (
	ErrNoBrokers      = errors.New("kafka: no brokers configured")
	ErrEmptyTopic     = errors.New("kafka: empty topic")
	ErrProducerClosed = errors.New("kafka: producer is closed")

	// ErrUnsupportedSASL 仅支持 PLAIN 与 SCRAM
	ErrUnsupportedSASL = errors.New("kafka: unsupported sasl mechanism")
	ErrInvalidTLS      = errors.New("kafka: invalid tls config")
)
