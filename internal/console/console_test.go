package console

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/futig/rag-console/internal/entity"
	pkghttp "github.com/futig/rag-console/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type recorded struct {
	method string
	path   string
	query  string
	client string
	body   []byte
}

type fakeServer struct {
	mu       sync.Mutex
	requests []recorded
	handler  http.HandlerFunc
}

func (s *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.requests = append(s.requests, recorded{
		method: r.Method,
		path:   r.URL.Path,
		query:  r.URL.RawQuery,
		client: r.Header.Get("Client"),
		body:   body,
	})
	s.mu.Unlock()

	r.Body = io.NopCloser(bytes.NewReader(body))
	w.Header().Set("Content-Type", "application/json")
	s.handler(w, r)
}

func (s *fakeServer) last() recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

func run(t *testing.T, handler http.HandlerFunc, args ...string) (*fakeServer, string, string, int) {
	t.Helper()

	fs := &fakeServer{handler: handler}
	srv := httptest.NewServer(fs)
	t.Cleanup(srv.Close)

	connect := func(_ string, client string, notifier pkghttp.Notifier) (API, error) {
		if client == "" {
			client = entity.DefaultClient
		}
		api, err := pkghttp.NewClient(&pkghttp.ClientConfig{
			Session:  pkghttp.Session{BaseURL: srv.URL, Token: "secret", ClientID: client},
			Notifier: notifier,
		})
		if err != nil {
			return nil, err
		}
		return api, nil
	}

	var out, errOut bytes.Buffer
	code := Execute(context.Background(), connect, args, &out, &errOut)
	return fs, out.String(), errOut.String(), code
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestSettingsShow(t *testing.T) {
	fs, out, _, code := run(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, entity.DefaultSettings("alice"))
	}, "settings", "show", "--client", "alice")

	require.Equal(t, 0, code)
	assert.Equal(t, "alice", fs.last().client)
	assert.Contains(t, out, `"client": "alice"`)
}

func TestSettingsSetModelSendsMinimalPatch(t *testing.T) {
	fs, out, _, code := run(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, entity.DefaultSettings("default"))
	}, "settings", "set-model", "gpt-4o")

	require.Equal(t, 0, code)
	req := fs.last()
	assert.Equal(t, http.MethodPatch, req.method)
	assert.JSONEq(t, `{"ll_model":{"model":"gpt-4o"}}`, string(req.body))
	assert.Contains(t, out, pkghttp.PatchSuccessMessage)
}

func TestSettingsSetParsesJSONValues(t *testing.T) {
	fs, _, _, code := run(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	}, "settings", "set", "vector_search.top_k", "6")

	require.Equal(t, 0, code)
	assert.JSONEq(t, `{"vector_search":{"top_k":6}}`, string(fs.last().body))
}

func TestToggleHistory(t *testing.T) {
	fs, out, _, code := run(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, entity.DefaultSettings("default"))
	}, "settings", "toggle-history")

	require.Equal(t, 0, code)
	assert.JSONEq(t, `{"ll_model":{"chat_history":false}}`, string(fs.last().body))
	assert.Contains(t, out, "Chat history is now off.")
}

func TestServerRejectionIsPrintedInRed(t *testing.T) {
	_, _, errOut, code := run(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Client: bob not found."})
	}, "settings", "show", "--client", "bob")

	assert.Equal(t, 1, code)
	assert.Equal(t, "✘ Client: bob not found.\n", errOut)
}

func TestProtocolViolationAsksForReport(t *testing.T) {
	_, _, errOut, code := run(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>oops</html>"))
	}, "history", "show")

	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "report")
}

func TestChatCompletion(t *testing.T) {
	fs, out, _, code := run(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, entity.ChatCompletion{Choices: []entity.ChatChoice{{
			Message: entity.ChatMessage{Role: entity.RoleAssistant, Content: "RAG retrieves then generates."},
		}}})
	}, "chat", "what", "is", "RAG?")

	require.Equal(t, 0, code)
	var req entity.ChatRequest
	require.NoError(t, json.Unmarshal(fs.last().body, &req))
	assert.Equal(t, "what is RAG?", req.Messages[0].Content)
	assert.Equal(t, "RAG retrieves then generates.\n", out)
}

func TestChatStream(t *testing.T) {
	_, out, _, code := run(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "Hello, ")
		_, _ = io.WriteString(w, "world"+pkghttp.StreamFinished)
	}, "chat", "--stream", "hi")

	require.Equal(t, 0, code)
	assert.Equal(t, "Hello, world\n", out)
}

func TestHistoryClearRelaysMessage(t *testing.T) {
	_, out, _, code := run(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Chat history for default cleared (2 messages)."})
	}, "history", "clear")

	require.Equal(t, 0, code)
	assert.Equal(t, "✔ Chat history for default cleared (2 messages).\n", out)
}

func TestPromptEditFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("Answer briefly."), 0o600))

	fs, _, _, code := run(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, entity.Prompt{Name: "Custom", Category: entity.PromptCategorySys, Prompt: "Answer briefly."})
	}, "prompts", "edit", "sys", "Custom", "--file", path)

	require.Equal(t, 0, code)
	req := fs.last()
	assert.Equal(t, "/v1/prompts/sys/Custom", req.path)
	assert.JSONEq(t, `{"prompt":"Answer briefly."}`, string(req.body))
}

func TestEmbedUploadsFilesWithQueryParameters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Notes"), 0o600))

	fs, out, _, code := run(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, entity.EmbedResponse{Message: "Embedded 1 file.", VectorStore: "DOCS", Files: 1, Chunks: 1})
	}, "embed", "DEFAULT", path, "--alias", "docs", "--chunk-size", "500", "--chunk-overlap", "50")

	require.Equal(t, 0, code)
	req := fs.last()
	assert.Equal(t, "/v1/databases/DEFAULT/embed", req.path)
	assert.Contains(t, req.query, "alias=docs")
	assert.Contains(t, req.query, "chunk_size=500")
	assert.NotContains(t, req.query, "distance_metric")
	assert.Contains(t, string(req.body), `filename="notes.md"`)
	assert.Contains(t, out, "✔ Embedded 1 file.")
}

func TestVectorStoreDrop(t *testing.T) {
	fs, out, _, code := run(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Vector store DOCS dropped."})
	}, "vector-stores", "drop", "DEFAULT", "DOCS")

	require.Equal(t, 0, code)
	assert.Equal(t, http.MethodDelete, fs.last().method)
	assert.Equal(t, "/v1/databases/DEFAULT/vector_stores/DOCS", fs.last().path)
	assert.Contains(t, out, "Vector store DOCS dropped.")
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "short", firstLine("short", 10))
	assert.Equal(t, "one …", firstLine("one\ntwo", 10))
	assert.Equal(t, "abcd…", firstLine("abcdefgh", 5))
}
