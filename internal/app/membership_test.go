package app_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okris/Parley/internal/app"
	"github.com/okris/Parley/internal/core"
	"github.com/okris/Parley/internal/domain"
)

func TestMembershipGroups(t *testing.T) {
	m := app.NewMembership()
	g := m.CreateGroup("devs")

	require.NoError(t, m.AddMember(g.ID, "u1"))
	require.NoError(t, m.AddMember(g.ID, "u2"))
	// Adding an existing member is a no-op.
	require.NoError(t, m.AddMember(g.ID, "u1"))

	members, err := m.GroupMembers(g.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.UserID{"u1", "u2"}, members)
}

func TestMembershipUnknownGroup(t *testing.T) {
	m := app.NewMembership()
	_, err := m.GroupMembers("nope")
	assert.ErrorIs(t, err, core.ErrUnknownGroup)
	assert.ErrorIs(t, m.AddMember("nope", "u1"), core.ErrUnknownGroup)
}

func TestMembershipDM(t *testing.T) {
	m := app.NewMembership()
	dm, err := m.CreateDM("u1", "u2")
	require.NoError(t, err)

	peers, err := m.DMPeers(dm.ID)
	require.NoError(t, err)
	assert.Equal(t, [2]domain.UserID{"u1", "u2"}, peers)

	assert.True(t, dm.Has("u1"))
	assert.True(t, dm.Has("u2"))
	assert.False(t, dm.Has("u3"))
	assert.EqualValues(t, "u2", dm.Other("u1"))
	assert.EqualValues(t, "u1", dm.Other("u2"))
}

func TestMembershipDMSamePeerRejected(t *testing.T) {
	m := app.NewMembership()
	_, err := m.CreateDM("u1", "u1")
	assert.ErrorIs(t, err, app.ErrSamePeer)
}

func TestMembershipUnknownDM(t *testing.T) {
	m := app.NewMembership()
	_, err := m.DMPeers("nope")
	assert.ErrorIs(t, err, core.ErrUnknownDM)
}

func TestMembershipGroupNameTruncated(t *testing.T) {
	m := app.NewMembership()
	long := make([]byte, domain.MaxGroupNameLen+10)
	for i := range long {
		long[i] = 'a'
	}
	g := m.CreateGroup(string(long))
	assert.Len(t, g.Name, domain.MaxGroupNameLen)
}

func TestMembershipGroupNameTruncatedOnRuneBoundary(t *testing.T) {
	m := app.NewMembership()
	// Three-byte runes straddle the byte limit; the cut must back off to a
	// rune start instead of emitting invalid UTF-8.
	name := strings.Repeat("é", 10) + strings.Repeat("雪", 10)
	require.Greater(t, len(name), domain.MaxGroupNameLen)

	g := m.CreateGroup(name)
	assert.True(t, utf8.ValidString(g.Name), "truncated name must stay valid UTF-8")
	assert.LessOrEqual(t, len(g.Name), domain.MaxGroupNameLen)
	assert.True(t, strings.HasPrefix(name, g.Name))
}
