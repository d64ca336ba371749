package room

import (
	"time"

	"github.com/signalbrew/server/internal/authn"
	"github.com/signalbrew/server/internal/logs"
	"github.com/signalbrew/server/internal/metrics"
	"github.com/signalbrew/server/internal/slug"
	"github.com/google/uuid"
)

// Service is the authoritative coordinator: every room-altering operation
// goes through it. It contains all business logic; Store is just storage.
type Service struct {
	store           Store
	log             logs.Logger
	maxPeers        int
	slugMaxAttempts int
}

func NewService(store Store, log logs.Logger, maxPeers, slugMaxAttempts int) *Service {
	return &Service{
		store:           store,
		log:             log.Named("room"),
		maxPeers:        maxPeers,
		slugMaxAttempts: slugMaxAttempts,
	}
}

// CreateRoom creates a fresh, empty room and returns its ID. An empty
// password is treated as "no password"; a non-empty one is hashed.
func (s *Service) CreateRoom(password string) (string, error) {
	id, err := s.generateUniqueRoomID()
	if err != nil {
		return "", err
	}

	var hash string
	if password != "" {
		h, err := authn.Hash(password)
		if err != nil {
			s.log.Error("password hash failed", logs.F("err", err))
			return "", ErrInternal
		}
		hash = h
	}

	r := newRoom(id, hash)
	s.store.Insert(r)

	s.log.Info("room created", logs.F("room_id", id), logs.F("has_password", hash != ""))
	return id, nil
}

// generateUniqueRoomID draws a slug up to slugMaxAttempts times, probing
// the store between draws; it falls back to a random UUID if every attempt
// collides. The probe-then-insert sequence is not atomic as a whole — a
// concurrent create racing on the exact same slug could in principle both
// succeed, overwriting one room with another. With ~400 adjective/noun
// combinations times 1000 numbers, this is astronomically rare in a
// single process and is accepted rather than engineered around.
func (s *Service) generateUniqueRoomID() (string, error) {
	for i := 0; i < s.slugMaxAttempts; i++ {
		candidate := slug.New()
		if _, exists := s.store.Get(candidate); !exists {
			return candidate, nil
		}
	}
	id := slug.Fallback()
	s.log.Warn("slug collision limit reached, falling back to uuid", logs.F("room_id", id))
	return id, nil
}

// JoinRoom validates the room and password, then admits a new peer whose
// outbound frames are pushed onto the caller-supplied send channel.
// Returns the new peer and the peer count after admission.
func (s *Service) JoinRoom(roomID, password string, send chan []byte) (*Room, *Peer, int, error) {
	r, ok := s.store.Get(roomID)
	if !ok {
		return nil, nil, 0, ErrNotFound
	}

	if r.HasPassword() {
		if !authn.Verify(password, r.PasswordHash()) {
			s.log.Warn("invalid password attempt", logs.F("room_id", roomID))
			return nil, nil, 0, ErrInvalidPassword
		}
	}

	r.peersMu.Lock()
	if len(r.peers) >= s.maxPeers {
		r.peersMu.Unlock()
		s.log.Warn("room capacity exceeded", logs.F("room_id", roomID))
		return nil, nil, 0, ErrCapacityExceeded
	}
	p := newPeer(uuid.NewString(), send)
	r.peers[p.ID] = p
	count := len(r.peers)
	r.peersMu.Unlock()

	r.touch()
	metrics.SetPeers(s.totalPeers())

	s.log.Info("peer joined", logs.F("room_id", roomID), logs.F("peer_id", p.ID), logs.F("peer_count", count))
	return r, p, count, nil
}

// LeaveRoom removes peerID from roomID. Returns whether the room was
// deleted as a result (i.e. it became empty). Idempotent: calling it twice
// for the same (roomID, peerID) yields the same final state and no error,
// since a second call simply finds the peer already absent.
func (s *Service) LeaveRoom(roomID, peerID string) (wasDeleted bool, err error) {
	r, ok := s.store.Get(roomID)
	if !ok {
		return false, nil
	}

	r.peersMu.Lock()
	delete(r.peers, peerID)
	empty := len(r.peers) == 0
	r.peersMu.Unlock()

	metrics.SetPeers(s.totalPeers())

	if empty {
		s.store.Remove(roomID)
		s.log.Info("room deleted (empty)", logs.F("room_id", roomID))
		return true, nil
	}
	s.log.Info("peer left", logs.F("room_id", roomID), logs.F("peer_id", peerID))
	return false, nil
}

// GetRoomInfo is the read-only existence/has-password check. It never
// updates activity.
func (s *Service) GetRoomInfo(roomID string) (exists, hasPassword bool) {
	r, ok := s.store.Get(roomID)
	if !ok {
		return false, false
	}
	return true, r.HasPassword()
}

// GetRoom returns the room for signaling operations, or nil if it's gone.
func (s *Service) GetRoom(roomID string) *Room {
	r, ok := s.store.Get(roomID)
	if !ok {
		return nil
	}
	return r
}

// CleanupStaleRooms removes every room whose last activity is older than
// maxAge. Remaining peers on a stale room, if any, are assumed dead by the
// TTL definition and are not separately notified — they'll observe the
// disconnect on the transport.
func (s *Service) CleanupStaleRooms(maxAge time.Duration) {
	for _, id := range s.store.StaleIDs(maxAge) {
		s.store.Remove(id)
		metrics.RoomsReaped.Inc()
		s.log.Info("stale room reaped", logs.F("room_id", id))
	}
}

// Count reports the number of live rooms, for metrics/diagnostics.
func (s *Service) Count() int { return s.store.Count() }

func (s *Service) totalPeers() int {
	ms, ok := s.store.(*MemoryStore)
	if !ok {
		return 0
	}
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	total := 0
	for _, r := range ms.rooms {
		total += r.PeerCount()
	}
	return total
}
