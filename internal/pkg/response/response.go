package response

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/futig/rag-console/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// JSON writes a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Can't change response at this point, just log
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// Success writes a 200 OK response
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes a 201 Created response
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// Message acknowledges a mutation with {"message": ...}.
func Message(w http.ResponseWriter, message string) {
	JSON(w, http.StatusOK, entity.MessageResponse{Message: message})
}

// Detail writes {"detail": message} and logs the failure.
func Detail(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	fields := []zap.Field{zap.Int("status", status), zap.String("detail", message)}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	if status >= http.StatusInternalServerError {
		ctxzap.Error(ctx, "request failed", fields...)
	} else {
		ctxzap.Warn(ctx, "request rejected", fields...)
	}

	JSON(w, status, entity.DetailResponse{Detail: message})
}

// Validation writes a 422 with a list of {"loc", "msg"} objects.
func Validation(ctx context.Context, w http.ResponseWriter, issues ...entity.ValidationIssue) {
	ctxzap.Warn(ctx, "request validation failed", zap.Int("issues", len(issues)))
	JSON(w, http.StatusUnprocessableEntity, entity.DetailResponse{Detail: issues})
}

// FromError maps a usecase error onto a status code and detail message.
func FromError(ctx context.Context, w http.ResponseWriter, err error) {
	status := StatusOf(err)

	message := err.Error()
	var de *entity.DetailError
	if errors.As(err, &de) {
		message = de.Detail
	}
	if status == http.StatusInternalServerError {
		message = "Internal server error."
	}

	Detail(ctx, w, status, message, err)
}

// StatusOf returns the HTTP status for a domain error.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, entity.ErrClientNotFound),
		errors.Is(err, entity.ErrPromptNotFound),
		errors.Is(err, entity.ErrDatabaseNotFound),
		errors.Is(err, entity.ErrVectorStoreNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrClientExists),
		errors.Is(err, entity.ErrVectorStoreConflict):
		return http.StatusConflict
	case errors.Is(err, entity.ErrDatabaseConnection),
		errors.Is(err, entity.ErrDatabaseNotConnected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, entity.ErrInvalidParameter),
		errors.Is(err, entity.ErrMissingField),
		errors.Is(err, entity.ErrInvalidFormat),
		errors.Is(err, entity.ErrInvalidCategory),
		errors.Is(err, entity.ErrEmptyConversation):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrInvalidFile),
		errors.Is(err, entity.ErrInvalidExtension):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrFileTooLarge),
		errors.Is(err, entity.ErrTooManyFiles),
		errors.Is(err, entity.ErrTotalSizeTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, entity.ErrModelUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
