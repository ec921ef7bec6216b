package entity

import (
	"encoding/json"
	"fmt"
)

const DefaultClient = "default"

// Settings is the per-client configuration of the assistant.
type Settings struct {
	Client       string               `json:"client"`
	LLModel      LLSettings           `json:"ll_model"`
	Prompts      PromptSelection      `json:"prompts"`
	VectorSearch VectorSearchSettings `json:"vector_search"`
	Database     DatabaseSelection    `json:"database"`
}

type LLSettings struct {
	Model               string  `json:"model"`
	ChatHistory         bool    `json:"chat_history"`
	Temperature         float64 `json:"temperature"`
	MaxCompletionTokens int     `json:"max_completion_tokens"`
	TopP                float64 `json:"top_p"`
	FrequencyPenalty    float64 `json:"frequency_penalty"`
	PresencePenalty     float64 `json:"presence_penalty"`
}

// PromptSelection names the system and context prompts in use.
type PromptSelection struct {
	Sys string `json:"sys"`
	Ctx string `json:"ctx"`
}

type VectorSearchSettings struct {
	Enabled     bool   `json:"enabled"`
	VectorStore string `json:"vector_store"`
	TopK        int    `json:"top_k"`
}

type DatabaseSelection struct {
	Alias string `json:"alias"`
}

// DefaultSettings returns the settings new clients start from.
func DefaultSettings(client string) *Settings {
	return &Settings{
		Client: client,
		LLModel: LLSettings{
			ChatHistory:         true,
			Temperature:         0.5,
			MaxCompletionTokens: 256,
			TopP:                1.0,
		},
		Prompts: PromptSelection{
			Sys: "Basic Example",
			Ctx: "Basic Example",
		},
		VectorSearch: VectorSearchSettings{
			TopK: 4,
		},
		Database: DatabaseSelection{
			Alias: "DEFAULT",
		},
	}
}

// Clone returns a deep copy re-labelled for client.
func (s *Settings) Clone(client string) *Settings {
	c := *s
	c.Client = client
	return &c
}

// Merge overlays the fields present in patch (a JSON document) onto a copy of s.
// Absent fields keep their current value; the client name never changes.
func (s *Settings) Merge(patch []byte) (*Settings, error) {
	merged := *s
	if err := json.Unmarshal(patch, &merged); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	merged.Client = s.Client

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

func (s *Settings) Validate() error {
	if s.LLModel.Temperature < 0 || s.LLModel.Temperature > 2 {
		return fmt.Errorf("%w: ll_model.temperature must be between 0 and 2", ErrInvalidParameter)
	}
	if s.LLModel.TopP < 0 || s.LLModel.TopP > 1 {
		return fmt.Errorf("%w: ll_model.top_p must be between 0 and 1", ErrInvalidParameter)
	}
	if s.LLModel.MaxCompletionTokens < 1 {
		return fmt.Errorf("%w: ll_model.max_completion_tokens must be positive", ErrInvalidParameter)
	}
	if s.LLModel.FrequencyPenalty < -2 || s.LLModel.FrequencyPenalty > 2 {
		return fmt.Errorf("%w: ll_model.frequency_penalty must be between -2 and 2", ErrInvalidParameter)
	}
	if s.LLModel.PresencePenalty < -2 || s.LLModel.PresencePenalty > 2 {
		return fmt.Errorf("%w: ll_model.presence_penalty must be between -2 and 2", ErrInvalidParameter)
	}
	if s.VectorSearch.TopK < 1 || s.VectorSearch.TopK > 50 {
		return fmt.Errorf("%w: vector_search.top_k must be between 1 and 50", ErrInvalidParameter)
	}
	if s.VectorSearch.Enabled && s.VectorSearch.VectorStore == "" {
		return fmt.Errorf("%w: vector_search.vector_store is required when vector search is enabled", ErrMissingField)
	}
	return nil
}

// ChangedSections lists the top-level sections that differ between s and other.
func (s *Settings) ChangedSections(other *Settings) []string {
	var changed []string
	if s.LLModel != other.LLModel {
		changed = append(changed, "ll_model")
	}
	if s.Prompts != other.Prompts {
		changed = append(changed, "prompts")
	}
	if s.VectorSearch != other.VectorSearch {
		changed = append(changed, "vector_search")
	}
	if s.Database != other.Database {
		changed = append(changed, "database")
	}
	return changed
}
