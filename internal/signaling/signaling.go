// Package signaling fans out Signal / PeerJoined / PeerLeft frames to the
// right subset of peers in a room. It never inspects or rewrites the
// opaque SDP/ICE payloads it carries.
package signaling

import (
	"encoding/json"

	"github.com/signalbrew/server/internal/room"
)

type signalFrame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type peerCountFrame struct {
	Type      string `json:"type"`
	PeerCount int    `json:"peer_count"`
}

// BroadcastSignal sends Signal{data} to every peer whose ID is not
// senderID. data is opaque and is not validated or rewritten.
func BroadcastSignal(r *room.Room, senderID string, data interface{}) {
	msg := encode(signalFrame{Type: "Signal", Data: data})
	for _, p := range r.Peers() {
		if p.ID == senderID {
			continue
		}
		push(p, msg)
	}
}

// BroadcastPeerJoined sends PeerJoined{peer_count} to every peer whose ID
// is not the newly joined peer's.
func BroadcastPeerJoined(r *room.Room, newPeerID string, peerCount int) {
	msg := encode(peerCountFrame{Type: "PeerJoined", PeerCount: peerCount})
	for _, p := range r.Peers() {
		if p.ID == newPeerID {
			continue
		}
		push(p, msg)
	}
}

// BroadcastPeerLeft sends PeerLeft{peer_count} to every peer still in the
// room's map.
func BroadcastPeerLeft(r *room.Room, peerCount int) {
	msg := encode(peerCountFrame{Type: "PeerLeft", PeerCount: peerCount})
	for _, p := range r.Peers() {
		push(p, msg)
	}
}

func encode(msg interface{}) []byte {
	b, err := json.Marshal(msg)
	if err != nil {
		// signalFrame's Data field is caller-supplied JSON-able content;
		// a marshal failure here means the caller handed us something
		// json.Marshal can't serialize, which is a programmer error, not
		// a runtime condition to recover from silently.
		panic(err)
	}
	return b
}

// push is a non-blocking send into a peer's outbound mailbox. A full
// mailbox means a stuck or very slow client; the message is dropped rather
// than blocking the broadcaster and stalling every other peer in the room.
func push(p *room.Peer, msg []byte) {
	defer func() { recover() }() // p.Send may be closed concurrently by the owning session's teardown
	select {
	case p.Send <- msg:
	default:
	}
}
