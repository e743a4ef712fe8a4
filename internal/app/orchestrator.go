package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/okris/Parley/internal/core"
	"github.com/okris/Parley/internal/domain"
)

// Orchestrator wires the connection lifecycle to the routing tables and
// fronts the router and relay for the transport adapter. All state is
// injected so tests can build isolated instances.
type Orchestrator struct {
	Users     core.UserStore
	Directory *Directory
	Members   *Membership
	Conns     *Registry
	Router    *Router
	Relay     *Relay
}

func NewOrchestrator(users core.UserStore) *Orchestrator {
	dir := NewDirectory(users)
	members := NewMembership()
	conns := NewRegistry()
	return &Orchestrator{
		Users:     users,
		Directory: dir,
		Members:   members,
		Conns:     conns,
		Router:    NewRouter(dir, members, conns),
		Relay:     NewRelay(conns),
	}
}

// Connect binds a fresh transport connection.
func (o *Orchestrator) Connect(cid core.ConnID, conn core.SignalConnection, cancel context.CancelFunc) {
	o.Conns.Bind(cid, conn, cancel)
}

// Register associates the connection with a logged-in user identity.
// Last registration wins; a reconnect replaces the prior session.
func (o *Orchestrator) Register(cid core.ConnID, uid domain.UserID) error {
	return o.Directory.Bind(uid, cid)
}

// JoinGroup adds uid to the group and records the advisory room join.
func (o *Orchestrator) JoinGroup(cid core.ConnID, uid domain.UserID, gid domain.GroupID) error {
	if err := o.Members.AddMember(gid, uid); err != nil {
		return err
	}
	o.Conns.Join(cid, gid.Room())
	return nil
}

// JoinDM records the advisory room join for an existing DM. Only a peer of
// the DM may join it.
func (o *Orchestrator) JoinDM(cid core.ConnID, uid domain.UserID, dmID domain.DMID) error {
	dm, err := o.Members.DM(dmID)
	if err != nil {
		return err
	}
	if !dm.Has(uid) {
		return core.ErrForbidden
	}
	o.Conns.Join(cid, dmID.Room())
	return nil
}

func (o *Orchestrator) Leave(cid core.ConnID, room domain.RoomID) {
	o.Conns.Leave(cid, room)
}

// OnDisconnect tears down everything keyed by the connection handle.
// Runs under each table's lock, so a concurrent resolve never sees a
// half-torn-down handle.
func (o *Orchestrator) OnDisconnect(cid core.ConnID) {
	o.Directory.Unbind(cid)
	o.Conns.LeaveAll(cid)
	o.Conns.Unbind(cid)
	log.Info().Str("module", "app.orchestrator").Str("cid", string(cid)).Msg("disconnect cleanup done")
}
