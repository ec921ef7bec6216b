package http

import "net/http"

// Method is an HTTP verb the backend API accepts.
type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPatch  Method = http.MethodPatch
	MethodDelete Method = http.MethodDelete
)

// Valid reports whether the client knows how to dispatch m.
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPatch, MethodDelete:
		return true
	default:
		return false
	}
}

// defaultRetries returns the retry budget used when a call does not set one.
func (m Method) defaultRetries() int {
	switch m {
	case MethodGet:
		return defaultGetRetries
	default:
		return defaultMutatingRetries
	}
}
