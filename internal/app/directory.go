package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/okris/Parley/internal/core"
	"github.com/okris/Parley/internal/domain"
)

// Directory maps stable user identities to their current live connection
// handle. One handle per user; a rebind replaces the prior session.
type Directory struct {
	users core.UserStore

	mu     sync.RWMutex
	byUser map[domain.UserID]core.ConnID
	byConn map[core.ConnID]map[domain.UserID]struct{}
}

func NewDirectory(users core.UserStore) *Directory {
	return &Directory{
		users:  users,
		byUser: make(map[domain.UserID]core.ConnID),
		byConn: make(map[core.ConnID]map[domain.UserID]struct{}),
	}
}

// Bind associates uid with cid. Last bind wins on both sides: a reconnect
// replaces the user's prior handle, and a re-registration replaces the
// connection's prior identity.
func (d *Directory) Bind(uid domain.UserID, cid core.ConnID) error {
	if !d.users.Exists(uid) {
		return core.ErrUnknownUser
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if prev, ok := d.byUser[uid]; ok {
		if prev == cid {
			return nil
		}
		d.dropReverse(prev, uid)
	}
	for other := range d.byConn[cid] {
		delete(d.byUser, other)
	}
	delete(d.byConn, cid)
	d.byUser[uid] = cid
	set, ok := d.byConn[cid]
	if !ok {
		set = make(map[domain.UserID]struct{})
		d.byConn[cid] = set
	}
	set[uid] = struct{}{}
	log.Info().Str("module", "app.directory").Str("user", string(uid)).Str("cid", string(cid)).Msg("bound user")
	return nil
}

// Unbind clears every user association for cid. Idempotent, never errors.
func (d *Directory) Unbind(cid core.ConnID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for uid := range d.byConn[cid] {
		delete(d.byUser, uid)
	}
	delete(d.byConn, cid)
	log.Info().Str("module", "app.directory").Str("cid", string(cid)).Msg("unbound connection")
}

// Resolve returns the live handle bound to uid, if any.
func (d *Directory) Resolve(uid domain.UserID) (core.ConnID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	cid, ok := d.byUser[uid]
	return cid, ok
}

// UserOf returns the identity currently registered on cid, if any.
func (d *Directory) UserOf(cid core.ConnID) (domain.UserID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for uid := range d.byConn[cid] {
		return uid, true
	}
	return "", false
}

func (d *Directory) dropReverse(cid core.ConnID, uid domain.UserID) {
	if set, ok := d.byConn[cid]; ok {
		delete(set, uid)
		if len(set) == 0 {
			delete(d.byConn, cid)
		}
	}
}
