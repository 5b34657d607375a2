package services

import "errors"

// Shared service errors, mapped to HTTP status codes by the handlers.
var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrValidationFailed = errors.New("validation failed")

	// Authentication and authorization.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")

	// Conflicts.
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrUserNicknameConflict = errors.New("nickname is already in use")

	// Tournament lifecycle. These are structural failures: they are
	// rejected before any work starts and never mutate state partially.
	ErrRegistrationClosed   = errors.New("tournament registration is closed")
	ErrTournamentFull       = errors.New("tournament registration is full")
	ErrDuplicateParticipant = errors.New("user is already registered for this tournament")
	ErrScriptNotOwned       = errors.New("script does not belong to the user")
	ErrInvalidTransition    = errors.New("invalid tournament status transition")
	ErrTournamentNotRunning = errors.New("tournament is not running")

	// Entity-specific not-found variants for more useful diagnostics.
	ErrUserNotFound        = errors.New("user not found")
	ErrScriptNotFound      = errors.New("script not found")
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrMatchNotFound       = errors.New("match not found")
	ErrReplayNotAvailable  = errors.New("replay is not available for this match")
)
