package http

import (
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"syscall"
	"time"
)

type httpConfig struct {
	connClientTimeout     time.Duration
	clientKeepAlive       time.Duration
	tlsHandshakeTimeout   time.Duration
	responseHeaderTimeout time.Duration
	idleConnTimeout       time.Duration
	maxIdleConns          int
	maxIdleConnsPerHost   int
	baseTransport         http.RoundTripper
	insecureSkipVerify    bool
}

func defaultHTTPConfig() *httpConfig {
	return &httpConfig{
		connClientTimeout:     10 * time.Second,
		clientKeepAlive:       90 * time.Second,
		tlsHandshakeTimeout:   10 * time.Second,
		responseHeaderTimeout: 0,
		idleConnTimeout:       90 * time.Second,
		maxIdleConns:          100,
		maxIdleConnsPerHost:   10,
		insecureSkipVerify:    false,
	}
}

func newHTTPClient(opts ...HttpOpts) *http.Client {
	cfg := defaultHTTPConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return newInternal(cfg)
}

// newInternal builds the client without a global timeout: every call carries its own
// deadline through the request context.
func newInternal(cfg *httpConfig) *http.Client {
	transport := cfg.baseTransport
	if transport == nil {
		dialer := net.Dialer{
			Timeout:   cfg.connClientTimeout,
			KeepAlive: cfg.clientKeepAlive,
		}

		t := &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			MaxIdleConns:          cfg.maxIdleConns,
			MaxIdleConnsPerHost:   cfg.maxIdleConnsPerHost,
			TLSHandshakeTimeout:   cfg.tlsHandshakeTimeout,
			ResponseHeaderTimeout: cfg.responseHeaderTimeout,
			IdleConnTimeout:       cfg.idleConnTimeout,
		}

		if cfg.insecureSkipVerify {
			t.TLSClientConfig = &tls.Config{
				InsecureSkipVerify: true,
			}
		}
		transport = t
	}

	return &http.Client{
		Transport: transport,
	}
}

// isConnectionPoolError reports whether err means the server process could not accept
// a connection at all (refused, unreachable), as opposed to a timeout, a DNS failure or
// a connection reset after it was established.
func isConnectionPoolError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial" && !opErr.Timeout()
	}

	return false
}
