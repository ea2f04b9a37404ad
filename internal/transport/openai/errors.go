package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/AitoDotAI/aito-demo/internal/domain"
)

// APIError is a provider failure with the status the provider returned.
// It unwraps to domain.ErrLLMProvider.
type APIError struct {
	StatusCode int
	Message    string
	Code       any
	Type       string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return "chat completion failed: " + e.Message
	}
	return fmt.Sprintf("chat completion error %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return domain.ErrLLMProvider }

// HTTPStatus is the status to relay to proxy callers.
func (e *APIError) HTTPStatus() int {
	if e.StatusCode == 0 {
		return http.StatusInternalServerError
	}
	return e.StatusCode
}

// parseAPIError extracts status and message from a go-openai error.
func parseAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
			Code:       apiErr.Code,
			Type:       apiErr.Type,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := extractMessage(reqErr.Body)
		if msg == "" {
			msg = string(reqErr.Body)
		}
		if msg == "" && reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &APIError{StatusCode: reqErr.HTTPStatusCode, Message: msg}
	}

	return &APIError{Message: err.Error()}
}

// extractMessage reads error.message or message from a JSON error body.
func extractMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) != nil {
		return ""
	}
	if parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return parsed.Message
}
