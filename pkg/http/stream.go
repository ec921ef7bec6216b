package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"

	"go.uber.org/zap"
)

// StreamFinished terminates a chat stream.
const StreamFinished = "[stream_finished]"

const streamReadSize = 4096

// Stream posts to a streaming endpoint and hands every fragment to fn as it arrives.
// The call ends on the StreamFinished marker, when the server closes the connection,
// or when fn returns an error. Streams are never retried: a server that is not up yet
// yields a KindUnavailable error the caller can show and let the user retry later.
func (c *Client) Stream(ctx context.Context, endpoint string, fn func(chunk string) error, opts ...RequestOpt) error {
	rc := &requestConfig{}
	for _, opt := range opts {
		opt(rc)
	}

	p, apiErr := c.prepare(MethodPost, endpoint, rc)
	if apiErr != nil {
		return c.fail(apiErr)
	}
	p.header.Set("Accept", "text/plain")

	c.logRequest(p, rc)

	if rc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rc.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(p.body))
	if err != nil {
		return c.fail(configurationError("create request: %v", err))
	}
	req.Header = p.header.Clone()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(&ApiError{Kind: KindUnavailable, Message: streamUnavailableMsg, Err: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return c.fail(errorFromResponse(resp.StatusCode, body))
	}

	if err := readStream(resp.Body, fn); err != nil {
		var apiErr *ApiError
		if errors.As(err, &apiErr) {
			return c.fail(apiErr)
		}
		return err
	}

	c.logger.Debug("API stream finished", zap.String("url", p.url))
	return nil
}

// StreamCollect is Stream that gathers the whole answer.
func (c *Client) StreamCollect(ctx context.Context, endpoint string, payload any, opts ...RequestOpt) (string, error) {
	var buf bytes.Buffer
	opts = append([]RequestOpt{WithJSON(payload)}, opts...)
	err := c.Stream(ctx, endpoint, func(chunk string) error {
		buf.WriteString(chunk)
		return nil
	}, opts...)
	return buf.String(), err
}

func readStream(r io.Reader, fn func(string) error) error {
	marker := []byte(StreamFinished)
	buf := make([]byte, streamReadSize)
	var pending []byte

	for {
		n, err := r.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)

			if i := bytes.Index(pending, marker); i >= 0 {
				return emit(fn, pending[:i])
			}

			keep := holdBack(pending, marker)
			if emitErr := emit(fn, pending[:len(pending)-keep]); emitErr != nil {
				return emitErr
			}
			pending = append([]byte(nil), pending[len(pending)-keep:]...)
		}

		if errors.Is(err, io.EOF) {
			return emit(fn, pending)
		}
		if err != nil {
			return &ApiError{Kind: KindUnavailable, Message: streamUnavailableMsg, Err: fmt.Errorf("read stream: %w", err)}
		}
	}
}

func emit(fn func(string) error, b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return fn(string(b))
}

// holdBack returns how many trailing bytes must wait for the next read: a possible
// prefix of the end marker or an incomplete UTF-8 sequence.
func holdBack(p, marker []byte) int {
	keep := 0
	for k := min(len(p), len(marker)-1); k > 0; k-- {
		if bytes.HasPrefix(marker, p[len(p)-k:]) {
			keep = k
			break
		}
	}

	for i := 1; i <= utf8.UTFMax-1 && i <= len(p); i++ {
		if utf8.RuneStart(p[len(p)-i]) {
			if !utf8.FullRune(p[len(p)-i:]) {
				keep = max(keep, i)
			}
			break
		}
	}

	return keep
}
