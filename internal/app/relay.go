package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/okris/Parley/internal/core"
)

// Relay forwards call signaling between two live connections, addressed by
// connection handle rather than identity: call setup predates any
// membership concept, the caller only knows the callee's current handle.
//
// The relay is a dumb pipe on purpose. It does not track call sessions and
// does not check that an answer or candidate matches a prior offer between
// the same pair; a client could forward a fabricated answer to any live
// handle. Inherited simplification, kept as-is.
type Relay struct {
	Conns *Registry
}

func NewRelay(conns *Registry) *Relay {
	return &Relay{Conns: conns}
}

// RelayOffer forwards offer to the callee, tagging the caller's handle so
// the callee can address replies.
func (rl *Relay) RelayOffer(from, to core.ConnID, offer json.RawMessage) error {
	return rl.send(to, core.IncomingCallEvent{Type: core.EventIncomingCall, From: from, Offer: offer})
}

// RelayAnswer forwards answer verbatim to the original caller.
func (rl *Relay) RelayAnswer(from, to core.ConnID, answer json.RawMessage) error {
	return rl.send(to, core.CallAcceptedEvent{Type: core.EventCallAccepted, Answer: answer})
}

// RelayICECandidate forwards candidate to the peer. Unreachable targets are
// silently dropped: candidates are numerous and inherently best-effort.
func (rl *Relay) RelayICECandidate(from, to core.ConnID, candidate json.RawMessage) {
	if err := rl.send(to, core.CandidateEvent{Type: core.EventCandidate, Candidate: candidate}); err != nil {
		log.Debug().Str("module", "app.relay").Str("to", string(to)).Err(err).Msg("candidate dropped")
	}
}

func (rl *Relay) send(to core.ConnID, v any) error {
	conn, ok := rl.Conns.Conn(to)
	if !ok {
		return core.ErrTargetUnreachable
	}
	frame, err := encode(v)
	if err != nil {
		return err
	}
	if err := conn.TrySend(frame); err != nil {
		return core.ErrTargetUnreachable
	}
	return nil
}
