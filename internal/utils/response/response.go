// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client, so the
// header/status/encode sequence lives here once.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ─────────────────────────────────────────────────────────────────────────────
// Response is the standard envelope for errors and accepted commands.
//
//	{ "status": "error", "error": "field Name is required" }
//	{ "status": "accepted" }
//
// Successful reads return the data itself (a student or a list).
// ─────────────────────────────────────────────────────────────────────────────
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

const (
	StatusAccepted = "accepted"
	StatusError    = "error"
)

// WriteJSON writes data as JSON with the given HTTP status code.
// Header() → WriteHeader() → body, in that order; headers are locked once
// WriteHeader is called.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// Accepted is the body of a command that was handed to the directory. The
// outcome shows up later in the student list, not in this response.
func Accepted() Response {
	return Response{Status: StatusAccepted}
}

// GeneralError wraps any Go error into our standard Response shape.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// ValidationError converts validator.FieldError values into a single
// human-readable Response, one sentence per failing field joined by ", ".
//
//	{ "status": "error", "error": "field ID is required, field Name is required" }
//
// ─────────────────────────────────────────────────────────────────────────────
func ValidationError(errs validator.ValidationErrors) Response {
	var errMessages []string

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is required", e.Field()))
		default:
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(errMessages, ", "),
	}
}
