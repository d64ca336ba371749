// Package session owns one WebSocket connection end-to-end: the reader
// and forwarder goroutines, the peer context state machine, and dispatch
// of client frames to the room and signaling services.
package session

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/signalbrew/server/internal/config"
	"github.com/signalbrew/server/internal/logs"
	"github.com/signalbrew/server/internal/metrics"
	"github.com/signalbrew/server/internal/room"
	"github.com/signalbrew/server/internal/signaling"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  32 << 10,
	WriteBufferSize: 32 << 10,
	CheckOrigin:     func(r *http.Request) bool { return true }, // CORS is enforced in internal/httpmw
}

// peerContext is the per-connection session state: Unbound -> Bound, with
// no transition back — disconnect tears the whole session down.
type peerContext struct {
	mu     sync.RWMutex
	roomID string
	peerID string
	bound  bool
}

func (c *peerContext) bind(roomID, peerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID, c.peerID, c.bound = roomID, peerID, true
}

func (c *peerContext) get() (roomID, peerID string, bound bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID, c.peerID, c.bound
}

// Handler upgrades HTTP requests to WebSocket connections and runs the
// signaling session loop on each one.
type Handler struct {
	cfg   config.Config
	log   logs.Logger
	rooms *room.Service
}

func NewHandler(cfg config.Config, log logs.Logger, rooms *room.Service) *Handler {
	return &Handler{cfg: cfg, log: log.Named("session"), rooms: rooms}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "upgrade required", http.StatusUpgradeRequired)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", logs.F("err", err))
		return
	}
	metrics.WSConnections.Inc()
	h.log.Info("ws-upgraded", logs.F("remote", r.RemoteAddr))

	conn.SetReadLimit(h.cfg.WSMaxMessageSize)

	s := &connSession{
		Handler: h,
		conn:    conn,
		ctx:     &peerContext{},
		send:    make(chan []byte, 16),
		bucket:  newTokenBucket(h.cfg.RateLimitRPM),
		remote:  r.RemoteAddr,
	}
	s.run()
}

// connSession is the live state of one connection, split out from Handler
// so Handler stays an immutable, reusable http.Handler.
type connSession struct {
	*Handler
	conn   *websocket.Conn
	ctx    *peerContext
	send   chan []byte
	bucket *tokenBucket
	remote string

	rateLimitStrikes int
}

func (s *connSession) run() {
	defer func() {
		h := s.Handler
		h.log.Info("ws-closed", logs.F("remote", s.remote))
		s.cleanup()
		_ = s.conn.Close()
	}()

	deadline := func() time.Time {
		return time.Now().Add(s.cfg.WSHeartbeatInterval + s.cfg.WSHeartbeatTimeout)
	}
	_ = s.conn.SetReadDeadline(deadline())
	s.conn.SetPongHandler(func(string) error {
		_ = s.conn.SetReadDeadline(deadline())
		return nil
	})

	tickerDone := make(chan struct{})
	go s.pingLoop(tickerDone)
	defer close(tickerDone)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.forward()
	}()
	defer func() {
		close(s.send)
		wg.Wait()
	}()

	s.readLoop()
}

func (s *connSession) pingLoop(done <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.WSHeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			_ = s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(2*time.Second))
		}
	}
}

// forward is the single consumer of s.send, and therefore the only
// goroutine that ever writes to the socket (gorilla/websocket permits at
// most one concurrent writer).
func (s *connSession) forward() {
	for msg := range s.send {
		if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (s *connSession) readLoop() {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		if !s.bucket.Allow() {
			metrics.WSRateLimited.Inc()
			s.rateLimitStrikes++
			s.reply(errorFrame(codeRateLimited, "rate limit exceeded"))
			if s.rateLimitStrikes >= 3 {
				return
			}
			continue
		}
		s.rateLimitStrikes = 0

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			metrics.WSErrors.WithLabelValues(codeInvalidMsg).Inc()
			s.reply(errorFrame(codeInvalidMsg, "malformed message"))
			continue
		}

		switch msg.Type {
		case "CreateRoom":
			metrics.WSMessages.WithLabelValues("CreateRoom").Inc()
			s.handleCreateRoom(msg)
		case "JoinRoom":
			metrics.WSMessages.WithLabelValues("JoinRoom").Inc()
			s.handleJoinRoom(msg)
		case "Signal":
			metrics.WSMessages.WithLabelValues("Signal").Inc()
			s.handleSignal(msg)
		case "Ping":
			metrics.WSMessages.WithLabelValues("Ping").Inc()
			s.reply(pongFrame())
		default:
			metrics.WSErrors.WithLabelValues(codeInvalidMsg).Inc()
			s.reply(errorFrame(codeInvalidMsg, "unknown message type"))
		}
	}
}

func (s *connSession) handleCreateRoom(msg clientMessage) {
	if _, _, bound := s.ctx.get(); bound {
		s.reply(errorFrame(codeAlreadyInRoom, "already bound to a room"))
		return
	}

	roomID, err := s.rooms.CreateRoom(msg.password())
	if err != nil {
		s.replyServiceError(err)
		return
	}

	// The creator immediately joins as the first peer.
	_, peer, _, err := s.rooms.JoinRoom(roomID, msg.password(), s.send)
	if err != nil {
		s.replyServiceError(err)
		return
	}
	s.ctx.bind(roomID, peer.ID)
	s.reply(roomCreatedFrame(roomID))
}

func (s *connSession) handleJoinRoom(msg clientMessage) {
	if _, _, bound := s.ctx.get(); bound {
		s.reply(errorFrame(codeAlreadyInRoom, "already bound to a room"))
		return
	}

	r, peer, count, err := s.rooms.JoinRoom(msg.RoomID, msg.password(), s.send)
	if err != nil {
		s.replyServiceError(err)
		return
	}
	s.ctx.bind(msg.RoomID, peer.ID)

	// PeerJoined must reach every pre-existing peer before this connection
	// can possibly emit a Signal — broadcasting synchronously here, before
	// RoomJoined is sent to the joiner, is what guarantees that (P5).
	signaling.BroadcastPeerJoined(r, peer.ID, count)

	s.reply(roomJoinedFrame())
}

func (s *connSession) handleSignal(msg clientMessage) {
	roomID, peerID, bound := s.ctx.get()
	if !bound {
		s.reply(errorFrame(codeNotInRoom, "not in a room"))
		return
	}

	r := s.rooms.GetRoom(roomID)
	if r == nil {
		return
	}

	var data interface{}
	if len(msg.Data) > 0 {
		_ = json.Unmarshal(msg.Data, &data)
	}
	signaling.BroadcastSignal(r, peerID, data)
}

// cleanup runs the leave path exactly once when the reader loop exits.
func (s *connSession) cleanup() {
	roomID, peerID, bound := s.ctx.get()
	if !bound {
		return
	}

	r := s.rooms.GetRoom(roomID)
	wasDeleted, err := s.rooms.LeaveRoom(roomID, peerID)
	if err != nil {
		s.log.Error("leave room failed", logs.F("err", err))
		return
	}
	if !wasDeleted && r != nil {
		remaining := r.PeerCount()
		signaling.BroadcastPeerLeft(r, remaining)
	}
}

func (s *connSession) replyServiceError(err error) {
	switch err {
	case room.ErrNotFound:
		metrics.WSErrors.WithLabelValues(codeRoomNotFound).Inc()
		s.reply(errorFrame(codeRoomNotFound, err.Error()))
	case room.ErrInvalidPassword:
		metrics.WSErrors.WithLabelValues(codeInvalidPass).Inc()
		s.reply(errorFrame(codeInvalidPass, err.Error()))
	case room.ErrCapacityExceeded:
		metrics.WSErrors.WithLabelValues(codeRoomFull).Inc()
		s.reply(errorFrame(codeRoomFull, err.Error()))
	default:
		metrics.WSErrors.WithLabelValues("INTERNAL").Inc()
		s.log.Error("internal error", logs.F("err", err))
		// Internal errors close the connection; the reader's next read
		// fails and the usual teardown runs.
		_ = s.conn.Close()
	}
}

// reply pushes a frame onto this connection's own outbound mailbox,
// non-blocking for the same reason signaling.push is: a reader that is
// also dispatching synchronous broadcasts must never be able to wedge
// itself against its own full mailbox.
func (s *connSession) reply(frame []byte) {
	select {
	case s.send <- frame:
	default:
	}
}
