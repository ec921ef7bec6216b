package formatter

import (
	"bytes"
	"fmt"

	"github.com/futig/rag-console/internal/entity"
)

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (mf *MarkdownFormatter) Format(t *entity.Transcript) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n_%s_\n", title(t), subtitle(t))
	for _, m := range t.Messages {
		fmt.Fprintf(&buf, "\n**%s:**\n\n%s\n", roleLabel(m.Role), m.Content)
	}
	return buf.Bytes(), nil
}

func (mf *MarkdownFormatter) ContentType() string {
	return markdownContentType
}

func (mf *MarkdownFormatter) FileExtension() string {
	return markdownFileExtension
}
