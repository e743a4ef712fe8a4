package core

import "github.com/okris/Parley/internal/domain"

// Frame is a serialized event ready for the wire.
type Frame []byte

// ConnID is an opaque handle to one live transport session.
// The core stores and compares it, never looks inside.
type ConnID string

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// UserStore is the external account collaborator the routing core reads from.
type UserStore interface {
	Exists(id domain.UserID) bool
	DisplayName(id domain.UserID) (string, bool)
}

// DeliveryResult reports fan-out stats to the caller.
type DeliveryResult struct {
	SentTo  int
	Skipped int
	Dropped int
}
