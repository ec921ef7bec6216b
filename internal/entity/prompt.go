package entity

import (
	"fmt"
	"time"
)

type PromptCategory string

const (
	PromptCategorySys PromptCategory = "sys"
	PromptCategoryCtx PromptCategory = "ctx"
)

func (c PromptCategory) Validate() error {
	switch c {
	case PromptCategorySys, PromptCategoryCtx:
		return nil
	default:
		return fmt.Errorf("%w: %q (expected sys or ctx)", ErrInvalidCategory, string(c))
	}
}

type Prompt struct {
	Name      string         `json:"name"`
	Category  PromptCategory `json:"category"`
	Prompt    string         `json:"prompt"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type PromptUpdateRequest struct {
	Prompt string `json:"prompt"`
}

type ListPromptsResponse struct {
	Prompts []*Prompt `json:"prompts"`
}
