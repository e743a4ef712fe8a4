package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/okris/Parley/internal/core"
	"github.com/okris/Parley/internal/domain"
)

func (ctl *SignalWSController) handleRegister(
	cid core.ConnID,
	conn *WsSignalConn,
	data []byte,
) {
	type registerPayload struct {
		Type   string `json:"type"`
		UserID string `json:"userId"`
	}
	var p registerPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad register payload")
		ctl.sendError(conn, "bad_payload")
		return
	}

	uid := domain.UserID(p.UserID)
	if err := ctl.Orch.Register(cid, uid); err != nil {
		log.Warn().Str("module", "signal").Str("cid", string(cid)).Str("user", p.UserID).Msg("register for unknown user")
		ctl.sendError(conn, "unknown_user")
		return
	}

	log.Info().Str("module", "signal").Str("cid", string(cid)).Str("user", p.UserID).Msg("registered")
	name, _ := ctl.Orch.Users.DisplayName(uid)
	ctl.sendJSON(conn, struct {
		Type     string        `json:"type"`
		UserID   domain.UserID `json:"userId"`
		Username string        `json:"username"`
		ConnID   core.ConnID   `json:"connId"`
	}{
		Type:     "registered",
		UserID:   uid,
		Username: name,
		ConnID:   cid,
	})
}

func (ctl *SignalWSController) handleWhoAmI(
	cid core.ConnID,
	conn *WsSignalConn,
) {
	resp := struct {
		Type     string          `json:"type"`
		ConnID   core.ConnID     `json:"connId"`
		UserID   domain.UserID   `json:"userId,omitempty"`
		Username string          `json:"username,omitempty"`
		Rooms    []domain.RoomID `json:"rooms,omitempty"`
	}{
		Type:   "whoami",
		ConnID: cid,
	}
	if uid, ok := ctl.Orch.Directory.UserOf(cid); ok {
		resp.UserID = uid
		resp.Username, _ = ctl.Orch.Users.DisplayName(uid)
	}
	resp.Rooms = ctl.Orch.Conns.Rooms(cid)
	ctl.sendJSON(conn, resp)
}

// identity resolves the registered user for cid or replies with an error.
func (ctl *SignalWSController) identity(cid core.ConnID, conn *WsSignalConn) (domain.UserID, bool) {
	uid, ok := ctl.Orch.Directory.UserOf(cid)
	if !ok {
		ctl.sendError(conn, "not_registered")
	}
	return uid, ok
}
