package domain

import "errors"

// ErrInvalidCredentials covers every ordinary authentication failure. Wrong
// password and unknown user deliberately share it so callers cannot tell
// which factor failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrPossibleClone is a passkey signature counter regression. The credential
// may have been duplicated; authentication is denied and the event is logged
// with high severity, but clients see it as ErrInvalidCredentials.
var ErrPossibleClone = errors.New("possible credential clone detected")

// ErrSessionNotFound is returned when no session matches a presented token.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionExpired is returned when a session exists but its expiry passed.
var ErrSessionExpired = errors.New("session expired")

// ErrAccountExists is the loser of an email-uniqueness race during
// first-time registration or identity linking. Safe to retry as a link.
var ErrAccountExists = errors.New("account already exists")

// ErrUnauthorized means the caller is authenticated but does not own the
// resource.
var ErrUnauthorized = errors.New("not the resource owner")

// ErrNotFound is an unknown request, user, or credential id.
var ErrNotFound = errors.New("not found")

// ErrConflict is a generic storage-level transaction failure, safe to retry.
var ErrConflict = errors.New("storage conflict")
