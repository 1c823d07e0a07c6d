package kafka

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

// transportIdleTimeout 事件稀疏，空闲连接尽早回收
const transportIdleTimeout = 5 * time.Minute

// newTransport 组装 Writer 的 TLS 与 SASL 传输层
func newTransport(cfg *Config) (*kafka.Transport, error) {
	transport := &kafka.Transport{
		ClientID:    "gachalog",
		IdleTimeout: transportIdleTimeout,
	}

	if cfg.TLS != nil && cfg.TLS.Enable {
		tlsConfig, err := newTLSConfig(cfg.TLS)
		if err != nil {
			return nil, err
		}
		transport.TLS = tlsConfig
	}

	if cfg.SASL != nil && cfg.SASL.Username != "" {
		mechanism, err := newSASLMechanism(cfg.SASL)
		if err != nil {
			return nil, err
		}
		transport.SASL = mechanism
	}

	return transport, nil
}

func newTLSConfig(cfg *TLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

	if cfg.CAFile != "" {
		pem, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("%w: read ca file: %v", ErrInvalidTLS, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("%w: no certificates in %s", ErrInvalidTLS, cfg.CAFile)
		}
		tlsConfig.RootCAs = pool
	}

	// 双向认证需要同时给出证书和私钥
	if (cfg.CertFile == "") != (cfg.KeyFile == "") {
		return nil, fmt.Errorf("%w: cert_file and key_file must be set together", ErrInvalidTLS)
	}
	if cfg.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("%w: load key pair: %v", ErrInvalidTLS, err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

// newSASLMechanism 机制名大小写不敏感，空值按 PLAIN 处理
func newSASLMechanism(cfg *SASLConfig) (sasl.Mechanism, error) {
	switch strings.ToUpper(cfg.Mechanism) {
	case "", "PLAIN":
		return plain.Mechanism{Username: cfg.Username, Password: cfg.Password}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, cfg.Username, cfg.Password)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, cfg.Username, cfg.Password)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSASL, cfg.Mechanism)
	}
}
