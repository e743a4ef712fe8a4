package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okris/Parley/internal/app"
	"github.com/okris/Parley/internal/domain"
)

func TestRegistryBindConn(t *testing.T) {
	r := app.NewRegistry()
	c := &fakeConn{}
	r.Bind("c1", c, nil)

	got, ok := r.Conn("c1")
	require.True(t, ok)
	assert.Same(t, c, got.(*fakeConn))

	_, ok = r.Conn("c2")
	assert.False(t, ok)
}

func TestRegistryJoinLeave(t *testing.T) {
	r := app.NewRegistry()
	r.Bind("c1", &fakeConn{}, nil)

	r.Join("c1", "room-a")
	r.Join("c1", "room-b")
	// Idempotent join.
	r.Join("c1", "room-a")
	assert.ElementsMatch(t, []domain.RoomID{"room-a", "room-b"}, r.Rooms("c1"))

	r.Leave("c1", "room-a")
	assert.Equal(t, []domain.RoomID{"room-b"}, r.Rooms("c1"))

	r.LeaveAll("c1")
	assert.Empty(t, r.Rooms("c1"))
}

func TestRegistryJoinUnknownConnIsNoop(t *testing.T) {
	r := app.NewRegistry()
	r.Join("ghost", "room-a")
	assert.Nil(t, r.Rooms("ghost"))
	r.Leave("ghost", "room-a")
	r.LeaveAll("ghost")
}

func TestRegistryUnbind(t *testing.T) {
	r := app.NewRegistry()
	r.Bind("c1", &fakeConn{}, nil)
	r.Unbind("c1")
	_, ok := r.Conn("c1")
	assert.False(t, ok)
}

func TestRegistryCancel(t *testing.T) {
	r := app.NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	r.Bind("c1", &fakeConn{}, cancel)

	require.True(t, r.Cancel("c1"))
	<-ctx.Done()

	assert.False(t, r.Cancel("ghost"))
}
