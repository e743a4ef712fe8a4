package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/okris/Parley/internal/core"
	"github.com/okris/Parley/internal/domain"
)

type connEntry struct {
	Conn   core.SignalConnection
	Rooms  map[domain.RoomID]struct{}
	Cancel context.CancelFunc
}

// Registry tracks live connections and which rooms each one has joined.
// The room set is bookkeeping for cleanup and client UI state; it never
// gates a router delivery.
type Registry struct {
	mu    sync.RWMutex
	conns map[core.ConnID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[core.ConnID]*connEntry)}
}

func (r *Registry) Bind(cid core.ConnID, conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[cid] = &connEntry{
		Conn:   conn,
		Rooms:  make(map[domain.RoomID]struct{}),
		Cancel: cancel,
	}
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Msg("bound connection")
}

func (r *Registry) Unbind(cid core.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, cid)
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Msg("unbound connection")
}

// Conn returns the live transport for cid, if still bound.
func (r *Registry) Conn(cid core.ConnID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[cid]; ok {
		return e.Conn, true
	}
	return nil, false
}

// Join records that cid has joined room. Idempotent; unknown cid is a no-op.
func (r *Registry) Join(cid core.ConnID, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[cid]; ok {
		e.Rooms[room] = struct{}{}
		log.Info().Str("module", "app.registry").Str("cid", string(cid)).Str("room", string(room)).Msg("joined room")
	}
}

func (r *Registry) Leave(cid core.ConnID, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[cid]; ok {
		delete(e.Rooms, room)
	}
}

// LeaveAll clears the room set on disconnect. Idempotent, never errors.
func (r *Registry) LeaveAll(cid core.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[cid]; ok {
		e.Rooms = make(map[domain.RoomID]struct{})
	}
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Msg("left all rooms")
}

// Rooms returns a snapshot of the rooms cid has joined.
func (r *Registry) Rooms(cid core.ConnID) []domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[cid]
	if !ok {
		return nil
	}
	out := make([]domain.RoomID, 0, len(e.Rooms))
	for room := range e.Rooms {
		out = append(out, room)
	}
	return out
}

func (r *Registry) Cancel(cid core.ConnID) bool {
	r.mu.RLock()
	e, ok := r.conns[cid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Msg("canceled connection")
	return true
}
