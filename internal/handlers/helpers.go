package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/stockstory/internal/services/chat"
	"github.com/ternarybob/stockstory/internal/services/pipeline"
	"github.com/ternarybob/stockstory/internal/services/prices"
	"github.com/ternarybob/stockstory/internal/services/story"
	"github.com/ternarybob/stockstory/internal/services/tools"
)

var validate = validator.New()

// ErrInvalidBody is returned when a request body is not valid JSON
var ErrInvalidBody = errors.New("invalid request body")

// ValidationError reports request fields that failed validation
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + strings.Join(e.Fields, ", ")
}

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// WriteServiceError maps err to its status code and writes it
func WriteServiceError(w http.ResponseWriter, err error) error {
	return WriteError(w, StatusForError(err), err.Error())
}

// StatusForError maps service errors to HTTP status codes
func StatusForError(err error) int {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr),
		errors.Is(err, ErrInvalidBody),
		errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, prices.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, prices.ErrNoData),
		errors.Is(err, story.ErrNoSummaries),
		errors.Is(err, tools.ErrUnknownTool):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrRunInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// DecodeRequest decodes the JSON body into dst and validates its `validate` tags
func DecodeRequest(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			fields := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				fields = append(fields, fmt.Sprintf("%s is %s", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return &ValidationError{Fields: fields}
		}
		return err
	}
	return nil
}
