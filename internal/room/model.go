// Package room implements the Room Coordinator: the data model, storage,
// and business logic for live signaling rooms.
package room

import (
	"sync"
	"time"
)

// Peer is one connected WebSocket endpoint inside a Room.
type Peer struct {
	ID       string
	Send     chan []byte
	JoinedAt time.Time
}

// newPeer wraps the caller-supplied outbound mailbox (owned by the
// session handler) in a Peer record. The room package never allocates a
// peer's mailbox itself — the caller's forwarder goroutine is the only
// consumer, and it must exist before the peer is admitted.
func newPeer(id string, send chan []byte) *Peer {
	return &Peer{
		ID:       id,
		Send:     send,
		JoinedAt: time.Now(),
	}
}

// Room is a named meeting point: a set of peers plus optional access
// control. A *Room returned by Store.Get remains valid and usable even
// after it has been removed from the store — nothing else holds the only
// reference to it, so Go's garbage collector keeps it alive for exactly as
// long as some goroutine still has the pointer.
type Room struct {
	id           string
	passwordHash string // empty means "no password"

	peersMu sync.RWMutex
	peers   map[string]*Peer

	createdAt time.Time

	activityMu   sync.RWMutex
	lastActivity time.Time
}

// newRoom creates an empty room. passwordHash must already be hashed (or
// empty for "no password").
func newRoom(id, passwordHash string) *Room {
	now := time.Now()
	return &Room{
		id:           id,
		passwordHash: passwordHash,
		peers:        make(map[string]*Peer),
		createdAt:    now,
		lastActivity: now,
	}
}

func (r *Room) ID() string { return r.id }

func (r *Room) HasPassword() bool { return r.passwordHash != "" }

func (r *Room) PasswordHash() string { return r.passwordHash }

func (r *Room) CreatedAt() time.Time { return r.createdAt }

func (r *Room) LastActivity() time.Time {
	r.activityMu.RLock()
	defer r.activityMu.RUnlock()
	return r.lastActivity
}

func (r *Room) touch() {
	r.activityMu.Lock()
	r.lastActivity = time.Now()
	r.activityMu.Unlock()
}

// PeerCount returns the number of peers currently in the room.
func (r *Room) PeerCount() int {
	r.peersMu.RLock()
	defer r.peersMu.RUnlock()
	return len(r.peers)
}

// Peers returns a snapshot slice of the current peers. Callers must not
// mutate the Room through the returned peers; this is for broadcast fan-out
// only, grounded in the same "copy under read lock, then iterate" idiom the
// original Rust signaling service uses.
func (r *Room) Peers() []*Peer {
	r.peersMu.RLock()
	defer r.peersMu.RUnlock()
	out := make([]*Peer, 0, len(r.peers))
	for _, p := range r.peers {
		out = append(out, p)
	}
	return out
}
