package core

import (
	"encoding/json"

	"github.com/okris/Parley/internal/domain"
)

// Outbound event shapes. The `type` field is the envelope discriminator
// the clients switch on.

type GroupMessageEvent struct {
	Type    string         `json:"type"`
	From    domain.UserID  `json:"from"`
	GroupID domain.GroupID `json:"groupId"`
	Content string         `json:"content"`
	TS      int64          `json:"ts"`
}

type DirectMessageEvent struct {
	Type    string        `json:"type"`
	From    domain.UserID `json:"from"`
	DMID    domain.DMID   `json:"dmId"`
	Content string        `json:"content"`
	TS      int64         `json:"ts"`
}

// IncomingCallEvent carries the caller's connection handle so the callee
// can address the answer and candidates back without any directory lookup.
type IncomingCallEvent struct {
	Type  string          `json:"type"`
	From  ConnID          `json:"from"`
	Offer json.RawMessage `json:"offer"`
}

type CallAcceptedEvent struct {
	Type   string          `json:"type"`
	Answer json.RawMessage `json:"answer"`
}

type CandidateEvent struct {
	Type      string          `json:"type"`
	Candidate json.RawMessage `json:"candidate"`
}

const (
	EventGroupMessage  = "group_message"
	EventDirectMessage = "direct_message"
	EventIncomingCall  = "incoming_call"
	EventCallAccepted  = "call_accepted"
	EventCandidate     = "candidate"
)
