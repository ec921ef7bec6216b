package vectorstore

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/futig/rag-console/internal/entity"
	"github.com/unidoc/unioffice/document"
)

// ExtractText returns the plain text of a .txt, .md or .docx upload.
func ExtractText(f entity.UploadedFile) (string, error) {
	switch strings.ToLower(filepath.Ext(f.Filename)) {
	case ".txt", ".md":
		if !utf8.Valid(f.Content) {
			return "", fmt.Errorf("%w: %s is not valid UTF-8", entity.ErrInvalidFile, f.Filename)
		}
		return string(f.Content), nil
	case ".docx":
		return docxText(f)
	default:
		return "", fmt.Errorf("%w: %s", entity.ErrInvalidExtension, f.Filename)
	}
}

func docxText(f entity.UploadedFile) (string, error) {
	doc, err := document.Read(bytes.NewReader(f.Content), int64(len(f.Content)))
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", entity.ErrInvalidFile, f.Filename, err)
	}
	defer doc.Close()

	var sb strings.Builder
	for _, p := range doc.Paragraphs() {
		for _, r := range p.Runs() {
			sb.WriteString(r.Text())
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
