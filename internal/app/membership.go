package app

import (
	"errors"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/okris/Parley/internal/core"
	"github.com/okris/Parley/internal/domain"
)

var ErrSamePeer = errors.New("dm peers must be distinct")

type groupEntry struct {
	name    string
	members map[domain.UserID]struct{}
}

// Membership is the read model the router consults: group member sets and
// immutable DM peer pairs. Creation policy (invites, access control) lives
// upstream; this store only records the result.
type Membership struct {
	mu     sync.RWMutex
	groups map[domain.GroupID]*groupEntry
	dms    map[domain.DMID]domain.DirectChannel
}

func NewMembership() *Membership {
	return &Membership{
		groups: make(map[domain.GroupID]*groupEntry),
		dms:    make(map[domain.DMID]domain.DirectChannel),
	}
}

func (m *Membership) CreateGroup(name string) domain.Group {
	if len(name) > domain.MaxGroupNameLen {
		cut := domain.MaxGroupNameLen
		// Never split a rune in half.
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut]
	}
	g := domain.Group{ID: domain.GroupID(uuid.NewString()), Name: name}
	m.mu.Lock()
	m.groups[g.ID] = &groupEntry{name: name, members: make(map[domain.UserID]struct{})}
	m.mu.Unlock()
	log.Info().Str("module", "app.membership").Str("group", string(g.ID)).Str("name", name).Msg("group created")
	return g
}

// AddMember is idempotent; adding an existing member is a no-op.
func (m *Membership) AddMember(gid domain.GroupID, uid domain.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[gid]
	if !ok {
		return core.ErrUnknownGroup
	}
	if _, ok := g.members[uid]; ok {
		return nil
	}
	g.members[uid] = struct{}{}
	log.Info().Str("module", "app.membership").Str("group", string(gid)).Str("user", string(uid)).Msg("member added")
	return nil
}

// GroupMembers returns a snapshot of the member set.
func (m *Membership) GroupMembers(gid domain.GroupID) ([]domain.UserID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.groups[gid]
	if !ok {
		return nil, core.ErrUnknownGroup
	}
	out := make([]domain.UserID, 0, len(g.members))
	for uid := range g.members {
		out = append(out, uid)
	}
	return out, nil
}

// CreateDM registers a two-party channel. Membership is write-once.
func (m *Membership) CreateDM(a, b domain.UserID) (domain.DirectChannel, error) {
	if a == b {
		return domain.DirectChannel{}, ErrSamePeer
	}
	d := domain.DirectChannel{ID: domain.DMID(uuid.NewString()), Peers: [2]domain.UserID{a, b}}
	m.mu.Lock()
	m.dms[d.ID] = d
	m.mu.Unlock()
	log.Info().Str("module", "app.membership").Str("dm", string(d.ID)).Str("a", string(a)).Str("b", string(b)).Msg("dm created")
	return d, nil
}

func (m *Membership) DM(id domain.DMID) (domain.DirectChannel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.dms[id]
	if !ok {
		return domain.DirectChannel{}, core.ErrUnknownDM
	}
	return d, nil
}

// DMPeers returns both peer ids of a registered DM.
func (m *Membership) DMPeers(id domain.DMID) ([2]domain.UserID, error) {
	d, err := m.DM(id)
	if err != nil {
		return [2]domain.UserID{}, err
	}
	return d.Peers, nil
}
