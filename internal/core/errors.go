package core

import "errors"

// Routing error kinds. Every one is reported to the initiating caller
// only and never broadcast; a failed route leaves all state unchanged.
var (
	ErrUnknownUser       = errors.New("unknown user")
	ErrUnknownGroup      = errors.New("unknown group")
	ErrUnknownDM         = errors.New("unknown dm")
	ErrForbidden         = errors.New("forbidden")
	ErrTargetUnreachable = errors.New("target unreachable")
)
