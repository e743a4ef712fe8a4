package signal

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okris/Parley/internal/app"
	"github.com/okris/Parley/internal/core"
	"github.com/okris/Parley/internal/domain"
)

type stubUsers map[domain.UserID]string

func (s stubUsers) Exists(id domain.UserID) bool { _, ok := s[id]; return ok }
func (s stubUsers) DisplayName(id domain.UserID) (string, bool) {
	name, ok := s[id]
	return name, ok
}

// testConn builds a WsSignalConn whose outbound frames can be drained
// without a real websocket behind it.
func testConn() *WsSignalConn {
	return &WsSignalConn{send: make(chan core.Frame, 32)}
}

func drain(t *testing.T, c *WsSignalConn) []map[string]any {
	t.Helper()
	var out []map[string]any
	for {
		select {
		case f := <-c.send:
			var m map[string]any
			require.NoError(t, json.Unmarshal(f, &m))
			out = append(out, m)
		default:
			return out
		}
	}
}

func lastOfType(msgs []map[string]any, typ string) (map[string]any, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i]["type"] == typ {
			return msgs[i], true
		}
	}
	return nil, false
}

func newTestController(users stubUsers) *SignalWSController {
	orch := app.NewOrchestrator(users)
	return NewSignalWSController(orch, 100, time.Minute)
}

func TestDispatchRegisterAndWhoAmI(t *testing.T) {
	ctl := newTestController(stubUsers{"u1": "alice"})
	conn := testConn()
	ctl.Orch.Connect("c1", conn, nil)

	ctl.handleSignal("c1", conn, []byte(`{"type":"register","userId":"u1"}`))
	ctl.handleSignal("c1", conn, []byte(`{"type":"whoami"}`))

	msgs := drain(t, conn)
	reg, ok := lastOfType(msgs, "registered")
	require.True(t, ok)
	assert.Equal(t, "u1", reg["userId"])
	assert.Equal(t, "alice", reg["username"])

	who, ok := lastOfType(msgs, "whoami")
	require.True(t, ok)
	assert.Equal(t, "u1", who["userId"])
}

func TestDispatchRegisterUnknownUser(t *testing.T) {
	ctl := newTestController(stubUsers{})
	conn := testConn()
	ctl.Orch.Connect("c1", conn, nil)

	ctl.handleSignal("c1", conn, []byte(`{"type":"register","userId":"ghost"}`))

	msgs := drain(t, conn)
	errMsg, ok := lastOfType(msgs, "error")
	require.True(t, ok)
	assert.Equal(t, "unknown_user", errMsg["error"])
}

func TestDispatchGroupFlow(t *testing.T) {
	ctl := newTestController(stubUsers{"u1": "alice", "u2": "bob"})
	a, b := testConn(), testConn()
	ctl.Orch.Connect("c1", a, nil)
	ctl.Orch.Connect("c2", b, nil)
	ctl.handleSignal("c1", a, []byte(`{"type":"register","userId":"u1"}`))
	ctl.handleSignal("c2", b, []byte(`{"type":"register","userId":"u2"}`))

	ctl.handleSignal("c1", a, []byte(`{"type":"create_group","name":"devs"}`))
	created, ok := lastOfType(drain(t, a), "group_created")
	require.True(t, ok)
	gid := created["group"].(map[string]any)["id"].(string)

	ctl.handleSignal("c2", b, []byte(fmt.Sprintf(`{"type":"join_group","groupId":%q}`, gid)))
	ctl.handleSignal("c1", a, []byte(fmt.Sprintf(`{"type":"group_message","groupId":%q,"content":"hi"}`, gid)))

	bMsgs := drain(t, b)
	ev, ok := lastOfType(bMsgs, "group_message")
	require.True(t, ok)
	assert.Equal(t, "u1", ev["from"])
	assert.Equal(t, "hi", ev["content"])

	aMsgs := drain(t, a)
	ackMsg, ok := lastOfType(aMsgs, "ack")
	require.True(t, ok)
	assert.Equal(t, "group_message", ackMsg["of"])
	_, echoed := lastOfType(aMsgs, "group_message")
	assert.False(t, echoed, "sender must not receive its own message")
}

func TestDispatchDirectMessageFlow(t *testing.T) {
	ctl := newTestController(stubUsers{"u1": "alice", "u2": "bob"})
	a, b := testConn(), testConn()
	ctl.Orch.Connect("c1", a, nil)
	ctl.Orch.Connect("c2", b, nil)
	ctl.handleSignal("c1", a, []byte(`{"type":"register","userId":"u1"}`))
	ctl.handleSignal("c2", b, []byte(`{"type":"register","userId":"u2"}`))

	ctl.handleSignal("c1", a, []byte(`{"type":"create_dm","peerId":"u2"}`))
	created, ok := lastOfType(drain(t, a), "dm_created")
	require.True(t, ok)
	dmID := created["dm"].(map[string]any)["id"].(string)

	ctl.handleSignal("c1", a, []byte(fmt.Sprintf(`{"type":"direct_message","dmId":%q,"content":"ping"}`, dmID)))

	ev, ok := lastOfType(drain(t, b), "direct_message")
	require.True(t, ok)
	assert.Equal(t, "ping", ev["content"])
}

func TestDispatchCallSignaling(t *testing.T) {
	ctl := newTestController(stubUsers{})
	caller, callee := testConn(), testConn()
	ctl.Orch.Connect("h1", caller, nil)
	ctl.Orch.Connect("h2", callee, nil)

	ctl.handleSignal("h1", caller, []byte(`{"type":"call","to":"h2","offer":{"type":"offer","sdp":"v=0"}}`))
	in, ok := lastOfType(drain(t, callee), "incoming_call")
	require.True(t, ok)
	assert.Equal(t, "h1", in["from"])

	ctl.handleSignal("h2", callee, []byte(`{"type":"answer","to":"h1","answer":{"type":"answer","sdp":"v=0"}}`))
	acc, ok := lastOfType(drain(t, caller), "call_accepted")
	require.True(t, ok)
	answer := acc["answer"].(map[string]any)
	assert.Equal(t, "v=0", answer["sdp"])

	ctl.handleSignal("h2", callee, []byte(`{"type":"candidate","to":"h1","candidate":{"candidate":"cand-1"}}`))
	cand, ok := lastOfType(drain(t, caller), "candidate")
	require.True(t, ok)
	assert.Equal(t, "cand-1", cand["candidate"].(map[string]any)["candidate"])
}

func TestDispatchCallUnreachable(t *testing.T) {
	ctl := newTestController(stubUsers{})
	caller := testConn()
	ctl.Orch.Connect("h1", caller, nil)

	ctl.handleSignal("h1", caller, []byte(`{"type":"call","to":"gone","offer":{"type":"offer","sdp":"v=0"}}`))
	errMsg, ok := lastOfType(drain(t, caller), "error")
	require.True(t, ok)
	assert.Equal(t, "target_unreachable", errMsg["error"])

	// Candidate to a dead handle is swallowed, no error reply.
	ctl.handleSignal("h1", caller, []byte(`{"type":"candidate","to":"gone","candidate":{"candidate":"c"}}`))
	_, ok = lastOfType(drain(t, caller), "error")
	assert.False(t, ok)
}

func TestDispatchPing(t *testing.T) {
	ctl := newTestController(stubUsers{})
	conn := testConn()
	ctl.Orch.Connect("c1", conn, nil)

	ctl.handleSignal("c1", conn, []byte(`{"type":"ping"}`))
	_, ok := lastOfType(drain(t, conn), "pong")
	assert.True(t, ok)
}

func TestDispatchUnregisteredSendRejected(t *testing.T) {
	ctl := newTestController(stubUsers{})
	conn := testConn()
	ctl.Orch.Connect("c1", conn, nil)

	ctl.handleSignal("c1", conn, []byte(`{"type":"group_message","groupId":"g","content":"hi"}`))
	errMsg, ok := lastOfType(drain(t, conn), "error")
	require.True(t, ok)
	assert.Equal(t, "not_registered", errMsg["error"])
}

func TestReconnectSurvivesStaleTeardown(t *testing.T) {
	ctl := newTestController(stubUsers{"u1": "a", "u2": "b"})
	oldConn, newConn, peer := testConn(), testConn(), testConn()

	// Same user, two upgrades: each gets its own handle.
	ctl.Orch.Connect("h-old", oldConn, nil)
	ctl.handleSignal("h-old", oldConn, []byte(`{"type":"register","userId":"u1"}`))
	ctl.Orch.Connect("h-new", newConn, nil)
	ctl.handleSignal("h-new", newConn, []byte(`{"type":"register","userId":"u1"}`))

	reg, ok := lastOfType(drain(t, newConn), "registered")
	require.True(t, ok)
	assert.Equal(t, "h-new", reg["connId"])

	ctl.Orch.Connect("h-peer", peer, nil)
	ctl.handleSignal("h-peer", peer, []byte(`{"type":"register","userId":"u2"}`))
	ctl.handleSignal("h-peer", peer, []byte(`{"type":"create_dm","peerId":"u1"}`))
	created, ok := lastOfType(drain(t, peer), "dm_created")
	require.True(t, ok)
	dmID := created["dm"].(map[string]any)["id"].(string)

	// The stale socket's readPump finally exits and tears down its handle.
	ctl.Orch.OnDisconnect("h-old")

	ctl.handleSignal("h-peer", peer, []byte(fmt.Sprintf(`{"type":"direct_message","dmId":%q,"content":"hi"}`, dmID)))
	ev, ok := lastOfType(drain(t, newConn), "direct_message")
	require.True(t, ok, "live reconnected session must stay reachable")
	assert.Equal(t, "hi", ev["content"])
	_, stale := lastOfType(drain(t, oldConn), "direct_message")
	assert.False(t, stale)
}

func TestDisconnectStopsDelivery(t *testing.T) {
	ctl := newTestController(stubUsers{"u1": "a", "u2": "b"})
	a, b := testConn(), testConn()
	ctl.Orch.Connect("c1", a, nil)
	ctl.Orch.Connect("c2", b, nil)
	ctl.handleSignal("c1", a, []byte(`{"type":"register","userId":"u1"}`))
	ctl.handleSignal("c2", b, []byte(`{"type":"register","userId":"u2"}`))

	ctl.handleSignal("c1", a, []byte(`{"type":"create_group","name":"g"}`))
	created, ok := lastOfType(drain(t, a), "group_created")
	require.True(t, ok)
	gid := created["group"].(map[string]any)["id"].(string)
	ctl.handleSignal("c2", b, []byte(fmt.Sprintf(`{"type":"join_group","groupId":%q}`, gid)))
	drain(t, b)

	ctl.Orch.OnDisconnect("c2")

	ctl.handleSignal("c1", a, []byte(fmt.Sprintf(`{"type":"group_message","groupId":%q,"content":"hi"}`, gid)))
	_, delivered := lastOfType(drain(t, b), "group_message")
	assert.False(t, delivered)
	// Sender still gets a clean ack.
	ackMsg, ok := lastOfType(drain(t, a), "ack")
	require.True(t, ok)
	assert.Equal(t, true, ackMsg["ok"])
}
