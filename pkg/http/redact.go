package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
)

const (
	// PasswordMask replaces the value of any password field in logs.
	PasswordMask = "*****"
	// FilePlaceholder replaces file contents in logs.
	FilePlaceholder = "<binary data>"
)

// redactTree renders v as a generic JSON tree and masks password fields in it.
// The original value is left untouched.
func redactTree(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}

	return redactValue(tree), nil
}

// redactValue walks an object/array/scalar tree produced by encoding/json.
func redactValue(v any) any {
	switch node := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(node))
		for k, child := range node {
			if isPasswordKey(k) {
				out[k] = PasswordMask
				continue
			}
			out[k] = redactValue(child)
		}
		return out
	case []any:
		out := make([]any, len(node))
		for i, child := range node {
			out[i] = redactValue(child)
		}
		return out
	default:
		return node
	}
}

func isPasswordKey(key string) bool {
	return strings.Contains(strings.ToLower(key), "password")
}

func redactParams(params map[string]*string) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		if v == nil {
			continue
		}
		if isPasswordKey(k) {
			out[k] = PasswordMask
			continue
		}
		out[k] = *v
	}
	return out
}

func redactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		if strings.EqualFold(k, "Authorization") {
			out[k] = "Bearer " + PasswordMask
			continue
		}
		out[k] = h.Get(k)
	}
	return out
}

type fileDescriptor struct {
	Field       string `json:"field"`
	Filename    string `json:"filename"`
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
}

func describeFiles(files []File) []fileDescriptor {
	out := make([]fileDescriptor, 0, len(files))
	for _, f := range files {
		out = append(out, fileDescriptor{
			Field:       f.Field,
			Filename:    f.Filename,
			Content:     FilePlaceholder,
			ContentType: f.ContentType,
		})
	}
	return out
}
