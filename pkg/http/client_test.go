package http

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	pkgretry "github.com/futig/rag-console/internal/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeTimer struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (t *fakeTimer) After(d time.Duration) <-chan time.Time {
	t.mu.Lock()
	t.sleeps = append(t.sleeps, d)
	t.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func (t *fakeTimer) total() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	var sum time.Duration
	for _, d := range t.sleeps {
		sum += d
	}
	return sum
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Success(message string) {
	n.messages = append(n.messages, message)
}

// scriptedTransport fails the first `failures` round trips with err, then answers.
type scriptedTransport struct {
	mu       sync.Mutex
	calls    int
	failures int
	err      error
	status   int
	body     string
}

func (s *scriptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures < 0 || s.calls <= s.failures {
		return nil, s.err
	}
	return &http.Response{
		StatusCode: s.status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(s.body)),
		Request:    req,
	}, nil
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func connRefused() error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
}

func newTestClient(t *testing.T, session Session, timer *fakeTimer, notifier Notifier, logger *zap.Logger, opts ...HttpOpts) *Client {
	t.Helper()
	if session.Token == "" {
		session.Token = "secret-token"
	}
	client, err := NewClient(&ClientConfig{
		Session:  session,
		Logger:   logger,
		Notifier: notifier,
		Retry:    &pkgretry.RetryConfig{BackoffFactor: 100 * time.Millisecond},
		Timer:    timer,
	}, opts...)
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresToken(t *testing.T) {
	_, err := NewClient(&ClientConfig{Session: Session{BaseURL: "http://localhost:8000"}})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConfiguration))

	_, err = NewClient(&ClientConfig{Session: Session{BaseURL: "not a url", Token: "t"}})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConfiguration))
}

func TestDo_UnsupportedMethodNeverTouchesTransport(t *testing.T) {
	transport := &scriptedTransport{status: http.StatusOK, body: `{}`}
	client := newTestClient(t, Session{BaseURL: "http://api.local"}, &fakeTimer{}, nil, nil, WithBaseTransport(transport))

	for _, method := range []Method{"PUT", "HEAD", "get", ""} {
		err := client.Do(context.Background(), method, "/v1/settings", nil)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindConfiguration), "method %q", method)
		assert.Contains(t, err.Error(), "unsupported HTTP method")
	}
	assert.Equal(t, 0, transport.calls)
}

func TestDo_HeadersAndURLJoin(t *testing.T) {
	tests := []struct {
		name       string
		clientID   string
		wantClient bool
	}{
		{name: "with client id", clientID: "alice", wantClient: true},
		{name: "without client id", clientID: "", wantClient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *http.Request
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Clone(context.Background())
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"ok":true}`))
			}))
			defer srv.Close()

			client := newTestClient(t, Session{BaseURL: srv.URL + "/api/", Token: "tok", ClientID: tt.clientID}, &fakeTimer{}, nil, nil)

			var out map[string]bool
			err := client.Get(context.Background(), "/v1/settings", &out, WithParams(map[string]*string{
				"client":  ptr("alice"),
				"dropped": nil,
			}))
			require.NoError(t, err)
			assert.True(t, out["ok"])

			require.NotNil(t, got)
			assert.Equal(t, "/api/v1/settings", got.URL.Path)
			assert.Equal(t, "alice", got.URL.Query().Get("client"))
			assert.False(t, got.URL.Query().Has("dropped"))
			assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
			if tt.wantClient {
				assert.Equal(t, tt.clientID, got.Header.Get("Client"))
			} else {
				_, present := got.Header["Client"]
				assert.False(t, present)
			}
		})
	}
}

func TestGet_SameResultTwice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"prompts":[{"name":"Basic Example","category":"sys"}]}`))
	}))
	defer srv.Close()

	client := newTestClient(t, Session{BaseURL: srv.URL}, &fakeTimer{}, nil, nil)

	var first, second any
	require.NoError(t, client.Get(context.Background(), "v1/prompts", &first))
	require.NoError(t, client.Get(context.Background(), "v1/prompts", &second))
	assert.Equal(t, first, second)
}

func TestPost_PasswordRedactedInLogsOnly(t *testing.T) {
	var wire map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&wire)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	core, logs := observer.New(zapcore.InfoLevel)
	client := newTestClient(t, Session{BaseURL: srv.URL}, &fakeTimer{}, nil, zap.New(core))

	payload := map[string]any{
		"name":     "CORE",
		"Password": "top-secret",
		"nested": map[string]any{
			"items": []any{
				map[string]any{"db_PASSWORD": "inner-secret", "user": "admin"},
			},
		},
	}
	require.NoError(t, client.Post(context.Background(), "/v1/databases/CORE", nil, WithJSON(payload)))

	assert.Equal(t, "top-secret", wire["Password"])
	inner := wire["nested"].(map[string]any)["items"].([]any)[0].(map[string]any)
	assert.Equal(t, "inner-secret", inner["db_PASSWORD"])

	entries := logs.FilterMessage("API request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()

	logged, ok := fields["json"].(map[string]any)
	require.True(t, ok, "json field should be a redacted tree, got %T", fields["json"])
	assert.Equal(t, PasswordMask, logged["Password"])
	assert.Equal(t, "CORE", logged["name"])
	loggedInner := logged["nested"].(map[string]any)["items"].([]any)[0].(map[string]any)
	assert.Equal(t, PasswordMask, loggedInner["db_PASSWORD"])
	assert.Equal(t, "admin", loggedInner["user"])

	headers := fields["headers"].(map[string]string)
	assert.NotContains(t, headers["Authorization"], "secret-token")
}

func TestPost_FilesLoggedAsPlaceholder(t *testing.T) {
	var gotName string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		gotName = r.MultipartForm.File["files"][0].Filename
		_, _ = w.Write([]byte(`{"message":"1 file embedded"}`))
	}))
	defer srv.Close()

	core, logs := observer.New(zapcore.InfoLevel)
	client := newTestClient(t, Session{BaseURL: srv.URL}, &fakeTimer{}, nil, zap.New(core))

	err := client.Post(context.Background(), "/v1/databases/CORE/embed", nil, WithFiles(File{
		Field:       "files",
		Filename:    "notes.txt",
		Content:     []byte("very private content"),
		ContentType: "text/plain",
	}))
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", gotName)

	entries := logs.FilterMessage("API request").All()
	require.Len(t, entries, 1)
	files := entries[0].ContextMap()["files"].([]fileDescriptor)
	require.Len(t, files, 1)
	assert.Equal(t, FilePlaceholder, files[0].Content)
}

func TestFilesOnlyAllowedWithPost(t *testing.T) {
	transport := &scriptedTransport{status: http.StatusOK, body: `{}`}
	client := newTestClient(t, Session{BaseURL: "http://api.local"}, &fakeTimer{}, nil, nil, WithBaseTransport(transport))

	err := client.Patch(context.Background(), "/v1/settings", WithFiles(File{Filename: "a.txt"}))
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConfiguration))
	assert.Equal(t, 0, transport.calls)
}

func TestRetry_ConnectionRefusedThenSuccess(t *testing.T) {
	transport := &scriptedTransport{failures: 2, err: connRefused(), status: http.StatusOK, body: `{"status":"ready"}`}
	timer := &fakeTimer{}
	client := newTestClient(t, Session{BaseURL: "http://api.local"}, timer, nil, nil, WithBaseTransport(transport))

	var out map[string]string
	err := client.Get(context.Background(), "/v1/readiness", &out)
	require.NoError(t, err)
	assert.Equal(t, "ready", out["status"])
	assert.Equal(t, 3, transport.calls)
	// 100ms*2^0 + 100ms*2^1
	assert.Equal(t, 300*time.Millisecond, timer.total())
}

func TestRetry_ExhaustedRaisesGenericError(t *testing.T) {
	transport := &scriptedTransport{failures: -1, err: connRefused()}
	timer := &fakeTimer{}
	client := newTestClient(t, Session{BaseURL: "http://api.local"}, timer, nil, nil, WithBaseTransport(transport))

	err := client.Post(context.Background(), "/v1/chat/completions", nil, WithJSON(map[string]any{}), WithRetries(3))
	require.Error(t, err)
	assert.True(t, IsKind(err, KindUnavailable))
	assert.Contains(t, err.Error(), "unexpected error")
	assert.Equal(t, 4, transport.calls)
	assert.Equal(t, (100+200+400)*time.Millisecond, timer.total())
}

func TestRetry_DefaultBudgets(t *testing.T) {
	get := &scriptedTransport{failures: -1, err: connRefused()}
	client := newTestClient(t, Session{BaseURL: "http://api.local"}, &fakeTimer{}, nil, nil, WithBaseTransport(get))
	require.Error(t, client.Get(context.Background(), "/v1/settings", nil))
	assert.Equal(t, defaultGetRetries+1, get.calls)

	del := &scriptedTransport{failures: -1, err: connRefused()}
	client = newTestClient(t, Session{BaseURL: "http://api.local"}, &fakeTimer{}, nil, nil, WithBaseTransport(del))
	require.Error(t, client.Delete(context.Background(), "/v1/chat/history"))
	assert.Equal(t, defaultMutatingRetries+1, del.calls)
}

func TestRetry_ConfiguredBudget(t *testing.T) {
	retries := 1
	transport := &scriptedTransport{failures: -1, err: connRefused()}
	client, err := NewClient(&ClientConfig{
		Session: Session{BaseURL: "http://api.local", Token: "secret-token"},
		Retry:   &pkgretry.RetryConfig{BackoffFactor: 100 * time.Millisecond, Retries: &retries},
		Timer:   &fakeTimer{},
	}, WithBaseTransport(transport))
	require.NoError(t, err)

	require.Error(t, client.Get(context.Background(), "/v1/settings", nil))
	assert.Equal(t, 2, transport.calls)

	transport.calls = 0
	require.Error(t, client.Get(context.Background(), "/v1/settings", nil, WithRetries(0)))
	assert.Equal(t, 1, transport.calls)
}

func TestRetry_OtherTransportErrorsDoNotSleep(t *testing.T) {
	transport := &scriptedTransport{failures: 2, err: &net.OpError{Op: "read", Net: "tcp", Err: timeoutError{}}, status: http.StatusOK, body: `{}`}
	timer := &fakeTimer{}
	client := newTestClient(t, Session{BaseURL: "http://api.local"}, timer, nil, nil, WithBaseTransport(transport))

	require.NoError(t, client.Get(context.Background(), "/v1/settings", nil))
	assert.Equal(t, 3, transport.calls)
	assert.Equal(t, time.Duration(0), timer.total())
}

func TestHTTPError_NoRetry(t *testing.T) {
	transport := &scriptedTransport{status: http.StatusNotFound, body: `{"detail": "Prompt: X (sys) not found."}`}
	timer := &fakeTimer{}
	client := newTestClient(t, Session{BaseURL: "http://api.local"}, timer, nil, nil, WithBaseTransport(transport))

	err := client.Get(context.Background(), "/v1/prompts/sys/X", nil)
	require.Error(t, err)

	var apiErr *ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindServerRejected, apiErr.Kind)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Prompt: X (sys) not found.", apiErr.Message)
	assert.Equal(t, 1, transport.calls)
	assert.Empty(t, timer.sleeps)
}

func TestHTTPError_DetailList(t *testing.T) {
	transport := &scriptedTransport{status: http.StatusUnprocessableEntity, body: `{"detail":[{"loc":["body","prompt"],"msg":"field required"},{"msg":"too short"}]}`}
	client := newTestClient(t, Session{BaseURL: "http://api.local"}, &fakeTimer{}, nil, nil, WithBaseTransport(transport))

	err := client.Patch(context.Background(), "/v1/prompts/sys/Custom", WithJSON(map[string]string{}))
	var apiErr *ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "field required; too short", apiErr.Message)
}

func TestMalformedBody_IsBug(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusInternalServerError} {
		transport := &scriptedTransport{status: status, body: `<html>oops</html>`}
		client := newTestClient(t, Session{BaseURL: "http://api.local"}, &fakeTimer{}, nil, nil, WithBaseTransport(transport))

		err := client.Get(context.Background(), "/v1/settings", nil)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindProtocolViolation), "status %d", status)
		assert.Contains(t, err.Error(), "bug")
		assert.Equal(t, 1, transport.calls)
	}
}

func TestPatch_NotifiesOnce(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/v1/prompts/sys/Custom", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"name":"Custom","category":"sys","prompt":"Hello"}`))
	}))
	defer srv.Close()

	notifier := &recordingNotifier{}
	client := newTestClient(t, Session{BaseURL: srv.URL}, &fakeTimer{}, notifier, nil)

	err := client.Patch(context.Background(), "/v1/prompts/sys/Custom", WithJSON(map[string]string{"prompt": "Hello"}))
	require.NoError(t, err)
	assert.Equal(t, "Hello", body["prompt"])
	assert.Equal(t, []string{PatchSuccessMessage}, notifier.messages)
}

func TestDelete_NotifiesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"Chat history cleared."}`))
	}))
	defer srv.Close()

	notifier := &recordingNotifier{}
	client := newTestClient(t, Session{BaseURL: srv.URL}, &fakeTimer{}, notifier, nil)

	require.NoError(t, client.Delete(context.Background(), "/v1/chat/history"))
	assert.Equal(t, []string{"Chat history cleared."}, notifier.messages)
}

func TestFailedPatchDoesNotNotify(t *testing.T) {
	transport := &scriptedTransport{status: http.StatusBadRequest, body: `{"detail":"bad"}`}
	notifier := &recordingNotifier{}
	client := newTestClient(t, Session{BaseURL: "http://api.local"}, &fakeTimer{}, notifier, nil, WithBaseTransport(transport))

	require.Error(t, client.Patch(context.Background(), "/v1/settings"))
	assert.Empty(t, notifier.messages)
}

func ptr(s string) *string {
	return &s
}
