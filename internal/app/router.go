package app

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/okris/Parley/internal/core"
	"github.com/okris/Parley/internal/domain"
)

// Router fans messages out to the live members of a channel. Delivery is
// best-effort at-most-once: offline members are skipped, transport
// backpressure is counted and dropped, nothing is queued or retried.
type Router struct {
	Directory *Directory
	Members   *Membership
	Conns     *Registry

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewRouter(dir *Directory, members *Membership, conns *Registry) *Router {
	return &Router{Directory: dir, Members: members, Conns: conns, Now: time.Now}
}

// RouteGroupMessage delivers content to every live member of gid except the
// sender. The error covers validation only; per-recipient outcomes are in
// the DeliveryResult.
func (rt *Router) RouteGroupMessage(sender domain.UserID, gid domain.GroupID, content string) (core.DeliveryResult, error) {
	members, err := rt.Members.GroupMembers(gid)
	if err != nil {
		return core.DeliveryResult{}, err
	}
	frame, err := encode(core.GroupMessageEvent{
		Type:    core.EventGroupMessage,
		From:    sender,
		GroupID: gid,
		Content: content,
		TS:      rt.Now().UnixMilli(),
	})
	if err != nil {
		return core.DeliveryResult{}, err
	}

	var res core.DeliveryResult
	for _, uid := range members {
		if uid == sender {
			continue
		}
		rt.deliver(uid, frame, &res)
	}
	log.Debug().Str("module", "app.router").Str("group", string(gid)).Str("from", string(sender)).
		Int("sent_to", res.SentTo).Int("skipped", res.Skipped).Int("dropped", res.Dropped).Msg("group fan-out")
	return res, nil
}

// RouteDirectMessage delivers content to the other DM peer, if live.
// Sender must be one of the two peers; the sending client does local echo.
func (rt *Router) RouteDirectMessage(sender domain.UserID, dmID domain.DMID, content string) (core.DeliveryResult, error) {
	dm, err := rt.Members.DM(dmID)
	if err != nil {
		return core.DeliveryResult{}, err
	}
	if !dm.Has(sender) {
		return core.DeliveryResult{}, core.ErrForbidden
	}
	frame, err := encode(core.DirectMessageEvent{
		Type:    core.EventDirectMessage,
		From:    sender,
		DMID:    dmID,
		Content: content,
		TS:      rt.Now().UnixMilli(),
	})
	if err != nil {
		return core.DeliveryResult{}, err
	}

	var res core.DeliveryResult
	rt.deliver(dm.Other(sender), frame, &res)
	log.Debug().Str("module", "app.router").Str("dm", string(dmID)).Str("from", string(sender)).
		Int("sent_to", res.SentTo).Int("skipped", res.Skipped).Msg("dm delivery")
	return res, nil
}

func (rt *Router) deliver(uid domain.UserID, frame core.Frame, res *core.DeliveryResult) {
	cid, ok := rt.Directory.Resolve(uid)
	if !ok {
		res.Skipped++
		return
	}
	conn, ok := rt.Conns.Conn(cid)
	if !ok {
		res.Skipped++
		return
	}
	if err := conn.TrySend(frame); err != nil {
		log.Warn().Str("module", "app.router").Str("user", string(uid)).Err(err).Msg("delivery dropped")
		res.Dropped++
		return
	}
	res.SentTo++
}

func encode(v any) (core.Frame, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return core.Frame(b), nil
}
