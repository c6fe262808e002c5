package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/civlobby/internal/model"
	"github.com/mcoot/civlobby/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeNotFound        = "NOT_FOUND"
	CodeRoomNotFound    = "ROOM_NOT_FOUND"
	CodeMemberNotFound  = "MEMBER_NOT_FOUND"
	CodeNotInAnyRoom    = "NOT_IN_ANY_ROOM"
	CodeAlreadyInRoom   = "ALREADY_IN_ROOM"
	CodeRoomFull        = "ROOM_FULL"
	CodeColorTaken      = "COLOR_TAKEN"
	CodeConflict        = "CONFLICT"
	CodeNotHost         = "NOT_HOST"
	CodeNotMember       = "NOT_MEMBER"
	CodeCannotKickHost  = "CANNOT_KICK_HOST"
	CodeForbidden       = "FORBIDDEN"
	CodeRoomNotWaiting  = "ROOM_NOT_WAITING"
	CodeRoomNotFull     = "ROOM_NOT_FULL"
	CodeNotConfigured   = "NOT_CONFIGURED"
	CodeMemberReady     = "MEMBER_READY"
	CodeRoomNotReady    = "ROOM_NOT_READY"
	CodeInvalidState    = "INVALID_STATE"
	CodeValidation      = "VALIDATION_FAILED"
	CodeUnavailable     = "TEMPORARILY_UNAVAILABLE"
	CodeInternalError   = "INTERNAL_ERROR"
	kindUnauthenticated = "unauthenticated"
)

// retryAfterSeconds is advertised on transient failures
const retryAfterSeconds = "1"

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// specific maps individual domain errors to dedicated codes
var specific = []struct {
	err  error
	code string
}{
	{model.ErrRoomNotFound, CodeRoomNotFound},
	{model.ErrMemberNotFound, CodeMemberNotFound},
	{model.ErrNotInAnyRoom, CodeNotInAnyRoom},
	{model.ErrAlreadyInRoom, CodeAlreadyInRoom},
	{model.ErrRoomFull, CodeRoomFull},
	{model.ErrColorTaken, CodeColorTaken},
	{model.ErrNotHost, CodeNotHost},
	{model.ErrNotMember, CodeNotMember},
	{model.ErrCannotKickHost, CodeCannotKickHost},
	{model.ErrRoomNotWaiting, CodeRoomNotWaiting},
	{model.ErrRoomNotFull, CodeRoomNotFull},
	{model.ErrNotConfigured, CodeNotConfigured},
	{model.ErrMemberReady, CodeMemberReady},
	{model.ErrRoomNotReady, CodeRoomNotReady},
}

// byKind holds the status and fallback code for each error kind
var byKind = map[model.ErrorKind]struct {
	status int
	code   string
}{
	model.KindNotFound:     {http.StatusNotFound, CodeNotFound},
	model.KindConflict:     {http.StatusConflict, CodeConflict},
	model.KindForbidden:    {http.StatusForbidden, CodeForbidden},
	model.KindInvalidState: {http.StatusUnprocessableEntity, CodeInvalidState},
	model.KindValidation:   {http.StatusBadRequest, CodeValidation},
	model.KindTransient:    {http.StatusServiceUnavailable, CodeUnavailable},
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	if he.status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// StatusOf returns the HTTP status WriteError would use for err
func StatusOf(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	if errors.Is(err, auth.ErrInvalidSession) {
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, kindUnauthenticated, "Invalid or expired session"}}
	}

	kind := model.KindOf(err)
	mapping, ok := byKind[kind]
	if !ok {
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, string(model.KindInternal), "Internal server error"}}
	}

	code := mapping.code
	for _, s := range specific {
		if errors.Is(err, s.err) {
			code = s.code
			break
		}
	}
	return &httpError{mapping.status, APIError{code, string(kind), err.Error()}}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, string(model.KindValidation), message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, kindUnauthenticated, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, string(model.KindInternal), "Internal server error"}}
}
