package session

import "encoding/json"

// clientMessage is the client->server tagged union discriminated on Type.
// Fields not relevant to a given Type are left zero.
type clientMessage struct {
	Type     string          `json:"type"`
	Password *string         `json:"password,omitempty"`
	RoomID   string          `json:"room_id,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

func (m clientMessage) password() string {
	if m.Password == nil {
		return ""
	}
	return *m.Password
}

// Server->client frame constructors. Each returns the encoded bytes ready
// to push onto a peer's outbound mailbox.

func roomCreatedFrame(roomID string) []byte {
	return must(map[string]any{"type": "RoomCreated", "room_id": roomID})
}

func roomJoinedFrame() []byte {
	return must(map[string]any{"type": "RoomJoined"})
}

func pongFrame() []byte {
	return must(map[string]any{"type": "Pong"})
}

func errorFrame(code, message string) []byte {
	return must(map[string]any{"type": "Error", "code": code, "message": message})
}

func must(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// Wire error codes: the six from spec.md §7 plus the ALREADY_IN_ROOM
// addition from SPEC_FULL.md §4.7.
const (
	codeRoomNotFound  = "ROOM_NOT_FOUND"
	codeInvalidPass   = "INVALID_PASSWORD"
	codeRoomFull      = "ROOM_FULL"
	codeNotInRoom     = "NOT_IN_ROOM"
	codeInvalidMsg    = "INVALID_MESSAGE"
	codeRateLimited   = "RATE_LIMITED"
	codeAlreadyInRoom = "ALREADY_IN_ROOM"
)
