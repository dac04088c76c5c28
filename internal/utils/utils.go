package utils

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"canvas_ai_server/internal/types"

	"github.com/sashabaranov/go-openai"
)

// ShouldRetry reports whether a failed generation call is worth one more attempt.
// Caller cancellation is never retried.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var openAIErr *openai.APIError
	if errors.As(err, &openAIErr) {
		return openAIErr.HTTPStatusCode >= 500 || openAIErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode >= 500 || reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "rate limit") ||
		strings.Contains(errMsg, "500 internal server error") ||
		strings.Contains(errMsg, "502 bad gateway") ||
		strings.Contains(errMsg, "503 service unavailable") ||
		strings.Contains(errMsg, "504 gateway timeout") ||
		strings.Contains(errMsg, "connection reset by peer") ||
		strings.Contains(errMsg, "resource_exhausted") {
		return true
	}
	return false
}

// KindForFilename infers a file's kind from its suffix. Anything that is not
// a stylesheet or a script is treated as markup.
func KindForFilename(filename string) types.FileKind {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(filename))) {
	case ".css":
		return types.KindStyle
	case ".js":
		return types.KindScript
	default:
		return types.KindMarkup
	}
}
