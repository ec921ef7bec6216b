package repository

import (
	"github.com/futig/rag-console/internal/entity"
)

func toEntityPrompt(row *promptRow) *entity.Prompt {
	return &entity.Prompt{
		Name:      row.Name,
		Category:  entity.PromptCategory(row.Category),
		Prompt:    row.Prompt,
		UpdatedAt: row.UpdatedAt,
	}
}

func toEntityDatabase(row *databaseRow) *entity.Database {
	return &entity.Database{
		Name:      row.Name,
		User:      row.User,
		Password:  row.Password,
		DSN:       row.DSN,
		UpdatedAt: row.UpdatedAt,
	}
}
