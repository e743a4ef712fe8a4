package domain

const MaxGroupNameLen = 36

type (
	// RoomID addresses any logical channel a connection can join:
	// either a GroupID or a DMID, as-is.
	RoomID  string
	GroupID string
	DMID    string
)

type Group struct {
	ID   GroupID `json:"id"`
	Name string  `json:"name"`
}

// DirectChannel is a two-party channel. Peers never change after creation.
type DirectChannel struct {
	ID    DMID      `json:"id"`
	Peers [2]UserID `json:"peers"`
}

func (d DirectChannel) Has(uid UserID) bool {
	return d.Peers[0] == uid || d.Peers[1] == uid
}

// Other returns the peer opposite to uid. Callers check Has first.
func (d DirectChannel) Other(uid UserID) UserID {
	if d.Peers[0] == uid {
		return d.Peers[1]
	}
	return d.Peers[0]
}

func (g GroupID) Room() RoomID { return RoomID(g) }
func (d DMID) Room() RoomID    { return RoomID(d) }
