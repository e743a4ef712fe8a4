package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/okris/Parley/internal/app"
	"github.com/okris/Parley/internal/core"
	"github.com/okris/Parley/internal/domain"
)

func (ctl *SignalWSController) handleCreateGroup(
	cid core.ConnID,
	conn *WsSignalConn,
	data []byte,
) {
	uid, ok := ctl.identity(cid, conn)
	if !ok {
		return
	}
	type createPayload struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	var p createPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad create_group payload")
		ctl.sendError(conn, "bad_payload")
		return
	}

	g := ctl.Orch.Members.CreateGroup(p.Name)
	if err := ctl.Orch.JoinGroup(cid, uid, g.ID); err != nil {
		ctl.sendError(conn, "join_failed")
		return
	}
	ctl.sendJSON(conn, struct {
		Type  string       `json:"type"`
		Group domain.Group `json:"group"`
	}{
		Type:  "group_created",
		Group: g,
	})
}

func (ctl *SignalWSController) handleCreateDM(
	cid core.ConnID,
	conn *WsSignalConn,
	data []byte,
) {
	uid, ok := ctl.identity(cid, conn)
	if !ok {
		return
	}
	type createPayload struct {
		Type   string `json:"type"`
		PeerID string `json:"peerId"`
	}
	var p createPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad create_dm payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	peer := domain.UserID(p.PeerID)
	if !ctl.Orch.Users.Exists(peer) {
		ctl.sendError(conn, "unknown_user")
		return
	}

	dm, err := ctl.Orch.Members.CreateDM(uid, peer)
	if err != nil {
		if errors.Is(err, app.ErrSamePeer) {
			ctl.sendError(conn, "same_peer")
			return
		}
		ctl.sendError(conn, "create_failed")
		return
	}
	if err := ctl.Orch.JoinDM(cid, uid, dm.ID); err != nil {
		ctl.sendError(conn, "join_failed")
		return
	}
	ctl.sendJSON(conn, struct {
		Type string               `json:"type"`
		DM   domain.DirectChannel `json:"dm"`
	}{
		Type: "dm_created",
		DM:   dm,
	})
}

func (ctl *SignalWSController) handleJoinGroup(
	cid core.ConnID,
	conn *WsSignalConn,
	data []byte,
) {
	uid, ok := ctl.identity(cid, conn)
	if !ok {
		return
	}
	type joinPayload struct {
		Type    string `json:"type"`
		GroupID string `json:"groupId"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join_group payload")
		ctl.sendError(conn, "bad_payload")
		return
	}

	gid := domain.GroupID(p.GroupID)
	if err := ctl.Orch.JoinGroup(cid, uid, gid); err != nil {
		log.Warn().Str("module", "signal").Str("cid", string(cid)).Str("group", p.GroupID).Err(err).Msg("join_group failed")
		ctl.sendError(conn, errorReason(err))
		return
	}
	ctl.sendJSON(conn, struct {
		Type string        `json:"type"`
		Room domain.RoomID `json:"room"`
	}{
		Type: "joined",
		Room: gid.Room(),
	})
}

func (ctl *SignalWSController) handleJoinDM(
	cid core.ConnID,
	conn *WsSignalConn,
	data []byte,
) {
	uid, ok := ctl.identity(cid, conn)
	if !ok {
		return
	}
	type joinPayload struct {
		Type string `json:"type"`
		DMID string `json:"dmId"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join_dm payload")
		ctl.sendError(conn, "bad_payload")
		return
	}

	dmID := domain.DMID(p.DMID)
	if err := ctl.Orch.JoinDM(cid, uid, dmID); err != nil {
		log.Warn().Str("module", "signal").Str("cid", string(cid)).Str("dm", p.DMID).Err(err).Msg("join_dm failed")
		ctl.sendError(conn, errorReason(err))
		return
	}
	ctl.sendJSON(conn, struct {
		Type string        `json:"type"`
		Room domain.RoomID `json:"room"`
	}{
		Type: "joined",
		Room: dmID.Room(),
	})
}

func (ctl *SignalWSController) handleLeave(
	cid core.ConnID,
	conn *WsSignalConn,
	data []byte,
) {
	type leavePayload struct {
		Type string `json:"type"`
		Room string `json:"roomId"`
	}
	var p leavePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad leave payload")
		ctl.sendError(conn, "bad_payload")
		return
	}

	ctl.Orch.Leave(cid, domain.RoomID(p.Room))
	ctl.sendJSON(conn, struct {
		Type string        `json:"type"`
		Room domain.RoomID `json:"room"`
	}{
		Type: "left",
		Room: domain.RoomID(p.Room),
	})
}

func (ctl *SignalWSController) handleGroupMessage(
	cid core.ConnID,
	conn *WsSignalConn,
	data []byte,
) {
	uid, ok := ctl.identity(cid, conn)
	if !ok {
		return
	}
	if !ctl.Limiter.Allow(uid) {
		ctl.sendError(conn, "rate_limited")
		return
	}
	type msgPayload struct {
		Type    string `json:"type"`
		GroupID string `json:"groupId"`
		Content string `json:"content"`
	}
	var p msgPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad group_message payload")
		ctl.sendError(conn, "bad_payload")
		return
	}

	if _, err := ctl.Orch.Router.RouteGroupMessage(uid, domain.GroupID(p.GroupID), p.Content); err != nil {
		ctl.sendError(conn, errorReason(err))
		return
	}
	ctl.sendAck(conn, "group_message")
}

func (ctl *SignalWSController) handleDirectMessage(
	cid core.ConnID,
	conn *WsSignalConn,
	data []byte,
) {
	uid, ok := ctl.identity(cid, conn)
	if !ok {
		return
	}
	if !ctl.Limiter.Allow(uid) {
		ctl.sendError(conn, "rate_limited")
		return
	}
	type msgPayload struct {
		Type    string `json:"type"`
		DMID    string `json:"dmId"`
		Content string `json:"content"`
	}
	var p msgPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad direct_message payload")
		ctl.sendError(conn, "bad_payload")
		return
	}

	if _, err := ctl.Orch.Router.RouteDirectMessage(uid, domain.DMID(p.DMID), p.Content); err != nil {
		ctl.sendError(conn, errorReason(err))
		return
	}
	ctl.sendAck(conn, "direct_message")
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, core.ErrUnknownUser):
		return "unknown_user"
	case errors.Is(err, core.ErrUnknownGroup):
		return "unknown_group"
	case errors.Is(err, core.ErrUnknownDM):
		return "unknown_dm"
	case errors.Is(err, core.ErrForbidden):
		return "forbidden"
	case errors.Is(err, core.ErrTargetUnreachable):
		return "target_unreachable"
	default:
		return "internal_error"
	}
}
