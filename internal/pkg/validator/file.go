package validator

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/futig/rag-console/internal/config"
	"github.com/futig/rag-console/internal/entity"
)

var AllowedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".docx": true,
}

// Validator validates file uploads
type Validator struct {
	cfg config.FileUploadConfig
}

func NewFileValidator(cfg config.FileUploadConfig) *Validator {
	return &Validator{cfg: cfg}
}

// MaxUploadSize bounds the multipart form kept in memory.
func (v *Validator) MaxUploadSize() int64 {
	return v.cfg.MaxUploadSize
}

// ValidateUpload validates multiple file uploads
func (v *Validator) ValidateUpload(files []*multipart.FileHeader) error {
	if len(files) == 0 {
		return fmt.Errorf("%w: files", entity.ErrMissingField)
	}

	if len(files) > v.cfg.MaxFileCount {
		return fmt.Errorf("%w: maximum %d files allowed, got %d", entity.ErrTooManyFiles, v.cfg.MaxFileCount, len(files))
	}

	var totalSize int64
	for _, fh := range files {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if _, ok := AllowedExtensions[ext]; !ok {
			return fmt.Errorf("%w: %s (allowed: txt, md, docx)", entity.ErrInvalidExtension, ext)
		}

		if fh.Size > v.cfg.MaxFileSize {
			return fmt.Errorf("%w: file '%s' is %d bytes (max %d)", entity.ErrFileTooLarge, fh.Filename, fh.Size, v.cfg.MaxFileSize)
		}

		totalSize += fh.Size
	}

	if totalSize > v.cfg.MaxTotalSize {
		return fmt.Errorf("%w: total size is %d bytes (max %d)", entity.ErrTotalSizeTooLarge, totalSize, v.cfg.MaxTotalSize)
	}

	return nil
}

// ReadUploads loads validated uploads into memory.
func ReadUploads(files []*multipart.FileHeader) ([]entity.UploadedFile, error) {
	out := make([]entity.UploadedFile, 0, len(files))

	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open file %s: %w", fh.Filename, err)
		}

		content, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return nil, fmt.Errorf("read file %s: %w", fh.Filename, err)
		}

		out = append(out, entity.UploadedFile{
			Filename: SanitizeFilename(fh.Filename),
			Content:  content,
		})
	}

	return out, nil
}

// SanitizeFilename sanitizes a filename for safe storage
func SanitizeFilename(filename string) string {
	filename = filepath.Base(filename)
	replacer := strings.NewReplacer(
		" ", "_",
		"(", "",
		")", "",
		"[", "",
		"]", "",
		"{", "",
		"}", "",
	)
	return replacer.Replace(filename)
}
