package signal

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/okris/Parley/internal/core"
)

// Call signaling is connection-handle-addressed: `to` is the peer's
// connection id obtained out of band, not a user id. Payloads are checked
// for shape with pion types, then forwarded verbatim.

func (ctl *SignalWSController) handleCall(
	cid core.ConnID,
	conn *WsSignalConn,
	data []byte,
) {
	type callPayload struct {
		Type  string          `json:"type"`
		To    string          `json:"to"`
		Offer json.RawMessage `json:"offer"`
	}
	var p callPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad call payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	var sd webrtc.SessionDescription
	if err := json.Unmarshal(p.Offer, &sd); err != nil || sd.SDP == "" {
		ctl.sendError(conn, "bad_offer")
		return
	}

	if err := ctl.Orch.Relay.RelayOffer(cid, core.ConnID(p.To), p.Offer); err != nil {
		log.Warn().Str("module", "signal").Str("cid", string(cid)).Str("to", p.To).Err(err).Msg("offer relay failed")
		ctl.sendError(conn, errorReason(err))
		return
	}
	ctl.sendAck(conn, "call")
}

func (ctl *SignalWSController) handleAnswer(
	cid core.ConnID,
	conn *WsSignalConn,
	data []byte,
) {
	type answerPayload struct {
		Type   string          `json:"type"`
		To     string          `json:"to"`
		Answer json.RawMessage `json:"answer"`
	}
	var p answerPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad answer payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	var sd webrtc.SessionDescription
	if err := json.Unmarshal(p.Answer, &sd); err != nil || sd.SDP == "" {
		ctl.sendError(conn, "bad_answer")
		return
	}

	if err := ctl.Orch.Relay.RelayAnswer(cid, core.ConnID(p.To), p.Answer); err != nil {
		log.Warn().Str("module", "signal").Str("cid", string(cid)).Str("to", p.To).Err(err).Msg("answer relay failed")
		ctl.sendError(conn, errorReason(err))
		return
	}
	ctl.sendAck(conn, "answer")
}

func (ctl *SignalWSController) handleCandidate(
	cid core.ConnID,
	conn *WsSignalConn,
	data []byte,
) {
	type candidatePayload struct {
		Type      string          `json:"type"`
		To        string          `json:"to"`
		Candidate json.RawMessage `json:"candidate"`
	}
	var p candidatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad candidate payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	var ci webrtc.ICECandidateInit
	if err := json.Unmarshal(p.Candidate, &ci); err != nil {
		ctl.sendError(conn, "bad_candidate")
		return
	}

	// Best-effort on purpose: a dead target is not an error here.
	ctl.Orch.Relay.RelayICECandidate(cid, core.ConnID(p.To), p.Candidate)
}
