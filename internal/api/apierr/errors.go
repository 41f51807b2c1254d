package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/bullscows/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Codes that only the HTTP API produces. Everything else reuses the
// websocket codes from model.Code.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInternalError  = model.CodeInternalError
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	code := model.Code(err)
	if code == model.CodeInternalError {
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
	return &httpError{statusFor(err), APIError{code, err.Error()}}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrRoomNotFound),
		errors.Is(err, model.ErrNoChoicePending):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrNotYourTurn),
		errors.Is(err, model.ErrNotInMatch),
		errors.Is(err, model.ErrNotInRoom):
		return http.StatusForbidden
	case errors.Is(err, model.ErrRoomFull),
		errors.Is(err, model.ErrNameTaken),
		errors.Is(err, model.ErrAlreadyInRoom),
		errors.Is(err, model.ErrMatchNotStarted),
		errors.Is(err, model.ErrMatchOver),
		errors.Is(err, model.ErrReconnectionRequired):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
