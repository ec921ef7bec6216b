package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	pkgretry "github.com/futig/rag-console/internal/pkg/retry"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	defaultGetRetries      = 3
	defaultMutatingRetries = 5
	defaultTimeout         = 60 * time.Second

	// PatchSuccessMessage is the acknowledgment emitted after every successful PATCH.
	PatchSuccessMessage = "Update successful."

	clientHeader = "Client"
)

// Session identifies who is talking to the API server. It is never mutated by the client.
type Session struct {
	BaseURL  string
	Token    string
	ClientID string
}

// Notifier surfaces acknowledgments of mutating calls to the user.
type Notifier interface {
	Success(message string)
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}

type ClientConfig struct {
	Session  Session
	Logger   *zap.Logger
	Notifier Notifier
	Retry    *pkgretry.RetryConfig
	// Timer drives backoff sleeps; nil means real time.
	Timer retry.Timer
}

// Client talks to the RAG API server on behalf of one session.
type Client struct {
	session    Session
	baseURL    *url.URL
	httpClient *http.Client
	logger     *zap.Logger
	notifier   Notifier
	retryCfg   *pkgretry.RetryConfig
	timer      retry.Timer
}

func NewClient(config *ClientConfig, options ...HttpOpts) (*Client, error) {
	if strings.TrimSpace(config.Session.Token) == "" {
		return nil, configurationError("API server key is not set; refusing to build an unauthenticated client")
	}

	baseURL, err := url.Parse(config.Session.BaseURL)
	if err != nil || baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, configurationError("invalid API server URL %q", config.Session.BaseURL)
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	notifier := config.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}

	retryCfg := config.Retry
	if retryCfg == nil {
		retryCfg = pkgretry.DefaultRetryConfig()
	}

	return &Client{
		session:    config.Session,
		baseURL:    baseURL,
		httpClient: newHTTPClient(options...),
		logger:     logger,
		notifier:   notifier,
		retryCfg:   retryCfg,
		timer:      config.Timer,
	}, nil
}

// Session returns the session the client was built for.
func (c *Client) Session() Session {
	return c.session
}

// Get fetches endpoint and decodes the JSON response into out (which may be nil).
func (c *Client) Get(ctx context.Context, endpoint string, out any, opts ...RequestOpt) error {
	return c.Do(ctx, MethodGet, endpoint, out, opts...)
}

// Post sends a JSON or multipart body and decodes the JSON response into out.
func (c *Client) Post(ctx context.Context, endpoint string, out any, opts ...RequestOpt) error {
	return c.Do(ctx, MethodPost, endpoint, out, opts...)
}

// Patch sends a partial update and acknowledges success through the notifier.
func (c *Client) Patch(ctx context.Context, endpoint string, opts ...RequestOpt) error {
	if err := c.Do(ctx, MethodPatch, endpoint, nil, opts...); err != nil {
		return err
	}
	c.notifier.Success(PatchSuccessMessage)
	return nil
}

// Delete removes a resource and relays the server's "message" through the notifier.
func (c *Client) Delete(ctx context.Context, endpoint string, opts ...RequestOpt) error {
	var raw json.RawMessage
	if err := c.Do(ctx, MethodDelete, endpoint, &raw, opts...); err != nil {
		return err
	}
	message := gjson.GetBytes(raw, "message").String()
	if message == "" {
		message = "Deleted."
	}
	c.notifier.Success(message)
	return nil
}

type preparedRequest struct {
	method  Method
	url     string
	header  http.Header
	body    []byte
	timeout time.Duration
	retries int
}

// Do performs one logical call: build, log, send with retries, decode.
func (c *Client) Do(ctx context.Context, method Method, endpoint string, out any, opts ...RequestOpt) error {
	if !method.Valid() {
		return c.fail(configurationError("unsupported HTTP method %q", string(method)))
	}

	rc := &requestConfig{}
	for _, opt := range opts {
		opt(rc)
	}

	p, err := c.prepare(method, endpoint, rc)
	if err != nil {
		return c.fail(err)
	}

	c.logRequest(p, rc)

	body, err := c.send(ctx, p)
	if err != nil {
		return c.fail(err)
	}

	if out != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return c.fail(&ApiError{Kind: KindProtocolViolation, Message: protocolBugMessage, Err: fmt.Errorf("decode response: %w", err)})
		}
	}

	return nil
}

func (c *Client) prepare(method Method, endpoint string, rc *requestConfig) (*preparedRequest, *ApiError) {
	if len(rc.files) > 0 && method != MethodPost {
		return nil, configurationError("file uploads are only supported with POST, got %s", method)
	}
	if len(rc.files) > 0 && rc.hasJSON {
		return nil, configurationError("a request cannot carry both a JSON body and files")
	}

	u := c.baseURL.JoinPath(endpoint)
	if len(rc.params) > 0 {
		q := u.Query()
		for k, v := range rc.params {
			if v != nil {
				q.Set(k, *v)
			}
		}
		u.RawQuery = q.Encode()
	}

	header := make(http.Header)
	header.Set("Authorization", "Bearer "+c.session.Token)
	if c.session.ClientID != "" {
		header.Set(clientHeader, c.session.ClientID)
	}
	header.Set("Accept", "application/json")

	var body []byte
	switch {
	case len(rc.files) > 0:
		b, contentType, err := multipartBody(rc.files)
		if err != nil {
			return nil, configurationError("build multipart body: %v", err)
		}
		body = b
		header.Set("Content-Type", contentType)
	case rc.hasJSON:
		b, err := json.Marshal(rc.json)
		if err != nil {
			return nil, configurationError("marshal request body: %v", err)
		}
		body = b
		header.Set("Content-Type", "application/json")
	}

	timeout := rc.timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	retries := method.defaultRetries()
	if c.retryCfg.Retries != nil {
		retries = max(*c.retryCfg.Retries, 0)
	}
	if rc.retries != nil {
		retries = max(*rc.retries, 0)
	}

	return &preparedRequest{
		method:  method,
		url:     u.String(),
		header:  header,
		body:    body,
		timeout: timeout,
		retries: retries,
	}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func multipartBody(files []File) ([]byte, string, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	for _, f := range files {
		field := f.Field
		if field == "" {
			field = "files"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(field), quoteEscaper.Replace(f.Filename)))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)

		part, err := writer.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create form file: %w", err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, "", fmt.Errorf("write file content: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}

// send runs the attempt loop. Only transport failures are retried; connection-pool
// failures sleep backoff_factor * 2^i first, other transport failures retry at once.
func (c *Client) send(ctx context.Context, p *preparedRequest) ([]byte, *ApiError) {
	var (
		attempt  uint
		failed   uint
		lastErr  error
		respBody []byte
	)

	opts := append(c.retryCfg.ToRetryOptions(p.retries),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			var te *transportError
			return errors.As(err, &te)
		}),
		retry.DelayType(func(_ uint, err error, _ *retry.Config) time.Duration {
			var te *transportError
			if errors.As(err, &te) && te.pool {
				return c.retryCfg.Backoff(failed)
			}
			return 0
		}),
		retry.OnRetry(func(_ uint, err error) {
			c.logger.Warn("API request failed, retrying",
				zap.String("method", string(p.method)),
				zap.String("url", p.url),
				zap.Uint("attempt", failed+1),
				zap.Int("max_attempts", p.retries+1),
				zap.Error(err),
			)
		}),
	)
	if c.timer != nil {
		opts = append(opts, retry.WithTimer(c.timer))
	}

	err := retry.Do(func() error {
		failed = attempt
		attempt++

		body, err := c.roundTrip(ctx, p)
		if err != nil {
			lastErr = err
			return err
		}
		respBody = body
		return nil
	}, opts...)
	if err == nil {
		return respBody, nil
	}

	var apiErr *ApiError
	if errors.As(lastErr, &apiErr) {
		return nil, apiErr
	}

	if lastErr == nil {
		lastErr = err
	}
	return nil, &ApiError{Kind: KindUnavailable, Message: unexpectedErrorMessage, Err: lastErr}
}

func (c *Client) roundTrip(ctx context.Context, p *preparedRequest) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var bodyReader io.Reader
	if p.body != nil {
		bodyReader = bytes.NewReader(p.body)
	}

	req, err := http.NewRequestWithContext(attemptCtx, string(p.method), p.url, bodyReader)
	if err != nil {
		return nil, configurationError("create request: %v", err)
	}
	req.Header = p.header.Clone()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &transportError{err: err, pool: isConnectionPoolError(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errorFromResponse(resp.StatusCode, body)
	}

	if len(bytes.TrimSpace(body)) > 0 && !gjson.ValidBytes(body) {
		return nil, &ApiError{
			Kind:       KindProtocolViolation,
			StatusCode: resp.StatusCode,
			Message:    protocolBugMessage,
			Err:        fmt.Errorf("non-JSON response body: %q", truncate(string(body), 256)),
		}
	}

	return body, nil
}

func (c *Client) logRequest(p *preparedRequest, rc *requestConfig) {
	fields := []zap.Field{
		zap.String("method", string(p.method)),
		zap.String("url", p.url),
		zap.Any("headers", redactHeaders(p.header)),
		zap.Duration("timeout", p.timeout),
	}

	if len(rc.params) > 0 {
		fields = append(fields, zap.Any("params", redactParams(rc.params)))
	}

	if rc.hasJSON {
		if tree, err := redactTree(rc.json); err == nil {
			fields = append(fields, zap.Any("json", tree))
		} else {
			fields = append(fields, zap.String("json", "<redaction skipped>"))
		}
	}

	if len(rc.files) > 0 {
		fields = append(fields, zap.Any("files", describeFiles(rc.files)))
	}

	c.logger.Info("API request", fields...)
}

func (c *Client) fail(err *ApiError) error {
	c.logger.Error("API request failed",
		zap.String("kind", err.Kind.String()),
		zap.Int("status", err.StatusCode),
		zap.String("message", err.Message),
		zap.NamedError("cause", err.Err),
	)
	return err
}
