package formatter

import (
	"fmt"
	"strings"

	"github.com/futig/rag-console/internal/entity"
)

const baseTitle = "Chat history"

type Formatter interface {
	Format(t *entity.Transcript) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(format entity.ExportFormat) (Formatter, error) {
	switch format {
	case entity.ExportMarkdown:
		return NewMarkdownFormatter(), nil
	case entity.ExportDOCX:
		return NewDOCXFormatter(), nil
	case entity.ExportPDF:
		return NewPDFFormatter(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported format: %s", entity.ErrInvalidParameter, format)
	}
}

func title(t *entity.Transcript) string {
	if t.Client == "" {
		return baseTitle
	}
	return fmt.Sprintf("%s (%s)", baseTitle, t.Client)
}

func subtitle(t *entity.Transcript) string {
	return "Exported " + t.ExportedAt.UTC().Format("2006-01-02 15:04 MST")
}

func roleLabel(role string) string {
	switch role {
	case entity.RoleAssistant:
		return "Assistant"
	case entity.RoleSystem:
		return "System"
	case entity.RoleUser:
		return "User"
	default:
		if role == "" {
			return "Unknown"
		}
		return strings.ToUpper(role[:1]) + role[1:]
	}
}
