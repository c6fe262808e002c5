package model

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a failure for callers deciding whether to retry
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindForbidden    ErrorKind = "forbidden"
	KindInvalidState ErrorKind = "invalid_state"
	KindValidation   ErrorKind = "validation"
	KindTransient    ErrorKind = "transient"
	KindInternal     ErrorKind = "internal"
)

// Error is a domain error carrying its kind
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NewError creates a domain error of the given kind
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Common errors used across the application
var (
	// Not found
	ErrRoomNotFound   = NewError(KindNotFound, "room not found")
	ErrMemberNotFound = NewError(KindNotFound, "member not found")
	ErrNotInAnyRoom   = NewError(KindNotFound, "user is not in any room")
	ErrUserNotFound   = NewError(KindNotFound, "user not found")

	// Conflict
	ErrAlreadyInRoom          = NewError(KindConflict, "user is already in a room")
	ErrRoomFull               = NewError(KindConflict, "room is full")
	ErrColorTaken             = NewError(KindConflict, "color is already taken")
	ErrInviteCodeTaken        = NewError(KindConflict, "invite code already in use")
	ErrConcurrentModification = NewError(KindConflict, "room was modified concurrently")

	// Forbidden
	ErrNotHost        = NewError(KindForbidden, "only the host can perform this action")
	ErrNotMember      = NewError(KindForbidden, "user is not a member of this room")
	ErrCannotKickHost = NewError(KindForbidden, "the host cannot be kicked")

	// Invalid state
	ErrRoomNotWaiting = NewError(KindInvalidState, "room is not accepting players")
	ErrRoomNotFull    = NewError(KindInvalidState, "room must be full to start")
	ErrNotConfiguring = NewError(KindInvalidState, "room is not in configuration")
	ErrNotConfigured  = NewError(KindInvalidState, "civilization and color must be chosen before readying")
	ErrMemberReady    = NewError(KindInvalidState, "cancel ready before changing configuration")
	ErrRoomNotReady   = NewError(KindInvalidState, "not every member is ready")
	ErrNoGameToStop   = NewError(KindInvalidState, "no game is being set up or played")

	// Validation
	ErrInvalidRoomName     = NewError(KindValidation, "room name must be 1-64 characters")
	ErrInvalidMaxPlayers   = NewError(KindValidation, fmt.Sprintf("max players must be between %d and %d", MinPlayers, MaxPlayers))
	ErrInvalidCivilization = NewError(KindValidation, "unknown civilization")
	ErrInvalidColor        = NewError(KindValidation, "unknown color")
	ErrInvalidMemberID     = NewError(KindValidation, "invalid member id")
	ErrInvalidInviteCode   = NewError(KindValidation, "invalid invite code")
)

// transientError wraps a storage or collaborator failure
type transientError struct {
	err error
}

func (e *transientError) Error() string {
	return "temporarily unavailable: " + e.err.Error()
}

func (e *transientError) Unwrap() error {
	return e.err
}

// Transient marks err as a retryable infrastructure failure.
// Nil and already-classified errors are returned unchanged.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	var me *Error
	if errors.As(err, &me) {
		return err
	}
	var te *transientError
	if errors.As(err, &te) {
		return err
	}
	return &transientError{err: err}
}

// KindOf classifies err. Unknown errors are internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	var te *transientError
	if errors.As(err, &te) {
		return KindTransient
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	return KindInternal
}

// IsRetryable reports whether the caller may retry the same command
func IsRetryable(err error) bool {
	return KindOf(err) == KindTransient
}
