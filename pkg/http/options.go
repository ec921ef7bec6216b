package http

import (
	"net/http"
	"time"
)

type HttpOpts func(*httpConfig)

func WithConnClientTimeout(timeout time.Duration) HttpOpts {
	return func(c *httpConfig) {
		c.connClientTimeout = timeout
	}
}

func WithClientKeepAlive(keepAlive time.Duration) HttpOpts {
	return func(c *httpConfig) {
		c.clientKeepAlive = keepAlive
	}
}

func WithTLSHandshakeTimeout(timeout time.Duration) HttpOpts {
	return func(c *httpConfig) {
		c.tlsHandshakeTimeout = timeout
	}
}

func WithResponseHeaderTimeout(timeout time.Duration) HttpOpts {
	return func(c *httpConfig) {
		c.responseHeaderTimeout = timeout
	}
}

func WithIdleConnTimeout(timeout time.Duration) HttpOpts {
	return func(c *httpConfig) {
		c.idleConnTimeout = timeout
	}
}

func WithMaxIdleConns(maxConns int) HttpOpts {
	return func(c *httpConfig) {
		c.maxIdleConns = maxConns
	}
}

func WithMaxIdleConnsPerHost(maxConns int) HttpOpts {
	return func(c *httpConfig) {
		c.maxIdleConnsPerHost = maxConns
	}
}

// WithBaseTransport replaces the default *http.Transport, e.g. with a test double.
func WithBaseTransport(rt http.RoundTripper) HttpOpts {
	return func(c *httpConfig) {
		c.baseTransport = rt
	}
}

func WithInsecureSkipVerify(skip bool) HttpOpts {
	return func(c *httpConfig) {
		c.insecureSkipVerify = skip
	}
}

// RequestOpt shapes a single call.
type RequestOpt func(*requestConfig)

type requestConfig struct {
	params  map[string]*string
	json    any
	hasJSON bool
	files   []File
	timeout time.Duration
	retries *int
}

// File is one multipart attachment.
type File struct {
	Field       string
	Filename    string
	Content     []byte
	ContentType string
}

// WithParams sets query parameters. A nil value is dropped from the query string.
func WithParams(params map[string]*string) RequestOpt {
	return func(c *requestConfig) {
		if c.params == nil {
			c.params = make(map[string]*string, len(params))
		}
		for k, v := range params {
			c.params[k] = v
		}
	}
}

// WithParam sets a single query parameter.
func WithParam(key, value string) RequestOpt {
	return func(c *requestConfig) {
		if c.params == nil {
			c.params = make(map[string]*string)
		}
		c.params[key] = &value
	}
}

// WithJSON sets the JSON request body.
func WithJSON(body any) RequestOpt {
	return func(c *requestConfig) {
		c.json = body
		c.hasJSON = true
	}
}

// WithFiles attaches multipart files. Only valid for POST.
func WithFiles(files ...File) RequestOpt {
	return func(c *requestConfig) {
		c.files = append(c.files, files...)
	}
}

// WithTimeout bounds each attempt of the call.
func WithTimeout(timeout time.Duration) RequestOpt {
	return func(c *requestConfig) {
		c.timeout = timeout
	}
}

// WithRetries overrides the number of additional attempts after the first one.
func WithRetries(retries int) RequestOpt {
	return func(c *requestConfig) {
		c.retries = &retries
	}
}
