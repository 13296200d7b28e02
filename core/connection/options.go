package connection

import (
	"context"
	"net"
	"time"

	"github.com/mongocore/driver/core/auth"
)

// Dialer is used to make network connections.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

type config struct {
	appName        string
	authenticator  auth.Authenticator
	compressors    []string
	connectTimeout time.Duration
	dialer         Dialer
	idleTimeout    time.Duration
	lifeTimeout    time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
}

func newConfig(opts ...Option) (*config, error) {
	cfg := &config{
		authenticator:  auth.Noop{},
		connectTimeout: 30 * time.Second,
		dialer:         &net.Dialer{},
		lifeTimeout:    30 * time.Minute,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Option is used to configure a connection.
type Option func(*config) error

// WithAppName sets the application name which gets sent to the server when
// the connection first connects.
func WithAppName(name string) Option {
	return func(c *config) error {
		c.appName = name
		return nil
	}
}

// WithAuthenticator sets the authenticator run during the handshake. The
// default performs no authentication.
func WithAuthenticator(a auth.Authenticator) Option {
	return func(c *config) error {
		c.authenticator = a
		return nil
	}
}

// WithCompressors sets the compressors offered to the server during the
// handshake. Compression is only used when the server also supports one of
// the offered compressors.
func WithCompressors(compressors []string) Option {
	return func(c *config) error {
		c.compressors = compressors
		return nil
	}
}

// WithConnectTimeout configures the maximum amount of time a dial will wait
// for a connect to complete. The default is 30 seconds.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *config) error {
		c.connectTimeout = d
		return nil
	}
}

// WithDialer configures the Dialer to use when making a new connection.
func WithDialer(d Dialer) Option {
	return func(c *config) error {
		c.dialer = d
		return nil
	}
}

// WithIdleTimeout configures the maximum idle time to allow for a connection.
func WithIdleTimeout(d time.Duration) Option {
	return func(c *config) error {
		c.idleTimeout = d
		return nil
	}
}

// WithLifeTimeout configures the maximum life of a connection.
func WithLifeTimeout(d time.Duration) Option {
	return func(c *config) error {
		c.lifeTimeout = d
		return nil
	}
}

// WithReadTimeout configures the maximum read time for a connection.
func WithReadTimeout(d time.Duration) Option {
	return func(c *config) error {
		c.readTimeout = d
		return nil
	}
}

// WithWriteTimeout configures the maximum write time for a connection.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *config) error {
		c.writeTimeout = d
		return nil
	}
}
