package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/futig/rag-console/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	calls    int
	messages []entity.ChatMessage
	params   entity.CompletionParams
	answer   string
	err      error
}

func (f *fakeLLM) ChatModel() string { return "default-model" }

func (f *fakeLLM) Complete(_ context.Context, params entity.CompletionParams, messages []entity.ChatMessage) (*entity.ChatCompletion, error) {
	f.calls++
	f.params = params
	f.messages = messages
	if f.err != nil {
		return nil, f.err
	}
	return &entity.ChatCompletion{
		ID:    "chatcmpl-1",
		Model: params.Model,
		Choices: []entity.ChatChoice{{
			Message:      entity.ChatMessage{Role: entity.RoleAssistant, Content: f.answer},
			FinishReason: "stop",
		}},
	}, nil
}

func (f *fakeLLM) Stream(_ context.Context, params entity.CompletionParams, messages []entity.ChatMessage, fn func(string) error) error {
	f.calls++
	f.params = params
	f.messages = messages
	for _, w := range strings.SplitAfter(f.answer, " ") {
		if err := fn(w); err != nil {
			return err
		}
	}
	return f.err
}

type fakeSettings map[string]*entity.Settings

func (f fakeSettings) Get(_ context.Context, client string) (*entity.Settings, error) {
	s, ok := f[client]
	if !ok {
		return nil, entity.ErrClientNotFound
	}
	c := *s
	return &c, nil
}

type fakePrompts struct{}

func (fakePrompts) Get(_ context.Context, category entity.PromptCategory, name string) (*entity.Prompt, error) {
	if name == "missing" {
		return nil, entity.ErrPromptNotFound
	}
	return &entity.Prompt{Category: category, Name: name, Prompt: string(category) + " prompt"}, nil
}

type fakeRetriever struct {
	docs  []*entity.RetrievedDocument
	query string
	err   error
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ *entity.Settings, query string) ([]*entity.RetrievedDocument, error) {
	f.query = query
	return f.docs, f.err
}

func newTestUsecase(s *entity.Settings, llm *fakeLLM, retriever *fakeRetriever) *Usecase {
	uc := NewUsecase(llm, fakeSettings{s.Client: s}, fakePrompts{}, retriever, time.Hour)
	uc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return uc
}

func ask(text string) *entity.ChatRequest {
	return &entity.ChatRequest{Messages: []entity.ChatMessage{{Role: entity.RoleUser, Content: text}}}
}

func TestComplete_BuildsPromptAndRecordsHistory(t *testing.T) {
	s := entity.DefaultSettings("alice")
	llm := &fakeLLM{answer: "42"}
	uc := newTestUsecase(s, llm, &fakeRetriever{})
	ctx := context.Background()

	res, err := uc.Complete(ctx, "alice", ask("meaning of life?"))
	require.NoError(t, err)
	assert.Equal(t, "42", res.Choices[0].Message.Content)
	assert.Equal(t, "default-model", llm.params.Model)
	assert.Equal(t, 0.5, llm.params.Temperature)

	require.Len(t, llm.messages, 2)
	assert.Equal(t, entity.ChatMessage{Role: entity.RoleSystem, Content: "sys prompt"}, llm.messages[0])

	_, err = uc.Complete(ctx, "alice", ask("and again?"))
	require.NoError(t, err)
	require.Len(t, llm.messages, 4)
	assert.Equal(t, "meaning of life?", llm.messages[1].Content)
	assert.Equal(t, "42", llm.messages[2].Content)

	assert.Len(t, uc.History(ctx, "alice"), 4)
}

func TestComplete_HistoryDisabled(t *testing.T) {
	s := entity.DefaultSettings("bob")
	s.LLModel.ChatHistory = false
	s.LLModel.Model = "gpt-4o"
	llm := &fakeLLM{answer: "ok"}
	uc := newTestUsecase(s, llm, &fakeRetriever{})
	ctx := context.Background()

	_, err := uc.Complete(ctx, "bob", ask("one"))
	require.NoError(t, err)
	_, err = uc.Complete(ctx, "bob", ask("two"))
	require.NoError(t, err)

	assert.Len(t, llm.messages, 2)
	assert.Equal(t, "gpt-4o", llm.params.Model)
	assert.Empty(t, uc.History(ctx, "bob"))
}

func TestComplete_VectorSearch(t *testing.T) {
	s := entity.DefaultSettings("carol")
	s.VectorSearch.Enabled = true
	s.VectorSearch.VectorStore = "DOCS"
	llm := &fakeLLM{answer: "from docs"}
	retriever := &fakeRetriever{docs: []*entity.RetrievedDocument{{Text: "RAG combines retrieval and generation.", Source: "intro.md"}}}
	uc := newTestUsecase(s, llm, retriever)

	_, err := uc.Complete(context.Background(), "carol", ask("what is rag?"))
	require.NoError(t, err)

	assert.Equal(t, "what is rag?", retriever.query)
	require.Len(t, llm.messages, 3)
	assert.Equal(t, entity.RoleSystem, llm.messages[1].Role)
	assert.Equal(t, "ctx prompt\n\n[1] intro.md\nRAG combines retrieval and generation.", llm.messages[1].Content)
}

func TestComplete_RetrievalFailure(t *testing.T) {
	s := entity.DefaultSettings("dave")
	s.VectorSearch.Enabled = true
	s.VectorSearch.VectorStore = "GONE"
	llm := &fakeLLM{}
	uc := newTestUsecase(s, llm, &fakeRetriever{err: entity.ErrVectorStoreNotFound})

	_, err := uc.Complete(context.Background(), "dave", ask("q"))
	assert.ErrorIs(t, err, entity.ErrVectorStoreNotFound)
	assert.Zero(t, llm.calls)
}

func TestComplete_Errors(t *testing.T) {
	s := entity.DefaultSettings("erin")
	s.Prompts.Sys = "missing"
	llm := &fakeLLM{err: entity.ErrModelUnavailable}
	uc := newTestUsecase(s, llm, &fakeRetriever{})
	ctx := context.Background()

	_, err := uc.Complete(ctx, "erin", &entity.ChatRequest{})
	assert.ErrorIs(t, err, entity.ErrEmptyConversation)

	_, err = uc.Complete(ctx, "nobody", ask("q"))
	assert.ErrorIs(t, err, entity.ErrClientNotFound)

	_, err = uc.Complete(ctx, "erin", ask("q"))
	assert.ErrorIs(t, err, entity.ErrModelUnavailable)
	require.Len(t, llm.messages, 1)
	assert.Equal(t, entity.RoleUser, llm.messages[0].Role)
	assert.Empty(t, uc.History(ctx, "erin"))
}

func TestStream(t *testing.T) {
	s := entity.DefaultSettings("frank")
	llm := &fakeLLM{answer: "streamed answer here"}
	uc := newTestUsecase(s, llm, &fakeRetriever{})
	ctx := context.Background()

	var chunks []string
	err := uc.Stream(ctx, "frank", ask("hi"), func(c string) error {
		chunks = append(chunks, c)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"streamed ", "answer ", "here"}, chunks)

	history := uc.History(ctx, "frank")
	require.Len(t, history, 2)
	assert.Equal(t, "streamed answer here", history[1].Content)
}

func TestStream_ConsumerError(t *testing.T) {
	s := entity.DefaultSettings("gina")
	uc := newTestUsecase(s, &fakeLLM{answer: "a b c"}, &fakeRetriever{})
	boom := errors.New("client went away")

	err := uc.Stream(context.Background(), "gina", ask("hi"), func(string) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, uc.History(context.Background(), "gina"))
}

func TestClearAndExport(t *testing.T) {
	s := entity.DefaultSettings("hana")
	uc := newTestUsecase(s, &fakeLLM{answer: "hello"}, &fakeRetriever{})
	ctx := context.Background()

	_, err := uc.Export(ctx, "hana", entity.ExportMarkdown)
	assert.ErrorIs(t, err, entity.ErrEmptyConversation)

	_, err = uc.Complete(ctx, "hana", ask("hi"))
	require.NoError(t, err)

	file, err := uc.Export(ctx, "hana", entity.ExportMarkdown)
	require.NoError(t, err)
	assert.Equal(t, "chat-hana-20260102-030405.md", file.Filename)
	assert.Contains(t, string(file.Content), "**Assistant:**\n\nhello")

	_, err = uc.Export(ctx, "hana", "xml")
	assert.ErrorIs(t, err, entity.ErrInvalidParameter)

	assert.Equal(t, 2, uc.ClearHistory(ctx, "hana"))
	assert.Empty(t, uc.History(ctx, "hana"))
}
