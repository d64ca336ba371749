package session_test

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/signalbrew/server/internal/config"
	"github.com/signalbrew/server/internal/logs"
	"github.com/signalbrew/server/internal/room"
	"github.com/signalbrew/server/internal/session"
)

func newTestServer(t *testing.T, maxPeers int) (*httptest.Server, string) {
	t.Helper()
	cfg := config.Config{
		RoomMaxPeers:        maxPeers,
		SlugMaxAttempts:     5,
		WSHeartbeatInterval: time.Minute,
		WSHeartbeatTimeout:  time.Minute,
		WSMaxMessageSize:    64 * 1024,
		RateLimitRPM:        600,
	}
	svc := room.NewService(room.NewMemoryStore(), logs.New("error"), cfg.RoomMaxPeers, cfg.SlugMaxAttempts)
	h := session.NewHandler(cfg, logs.New("error"), svc)
	srv := httptest.NewServer(h)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	return srv, wsURL
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial() error = %v", err)
	}
	return conn
}

func sendJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func recvFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	return m
}

func TestCreateRoomThenSoloJoinerSeesNoPeerJoined(t *testing.T) {
	srv, url := newTestServer(t, 2)
	defer srv.Close()

	conn := dial(t, url)
	defer conn.Close()

	sendJSON(t, conn, map[string]any{"type": "CreateRoom"})
	frame := recvFrame(t, conn)
	if frame["type"] != "RoomCreated" {
		t.Fatalf("got %v, want RoomCreated", frame)
	}
	if _, ok := frame["room_id"].(string); !ok {
		t.Fatalf("room_id missing or not a string: %v", frame)
	}

	// The next frame after RoomCreated must be the reply to this Ping,
	// so no PeerJoined was queued for the solo creator.
	sendJSON(t, conn, map[string]any{"type": "Ping"})
	if next := recvFrame(t, conn); next["type"] != "Pong" {
		t.Fatalf("got %v after RoomCreated, want Pong (no PeerJoined)", next)
	}
}

func TestJoinRoomThenSignalReachesOtherPeer(t *testing.T) {
	srv, url := newTestServer(t, 2)
	defer srv.Close()

	creator := dial(t, url)
	defer creator.Close()
	sendJSON(t, creator, map[string]any{"type": "CreateRoom"})
	created := recvFrame(t, creator)
	roomID := created["room_id"].(string)

	joiner := dial(t, url)
	defer joiner.Close()
	sendJSON(t, joiner, map[string]any{"type": "JoinRoom", "room_id": roomID})

	peerJoined := recvFrame(t, creator)
	if peerJoined["type"] != "PeerJoined" {
		t.Fatalf("creator got %v, want PeerJoined", peerJoined)
	}

	joined := recvFrame(t, joiner)
	if joined["type"] != "RoomJoined" {
		t.Fatalf("joiner got %v, want RoomJoined", joined)
	}

	sendJSON(t, joiner, map[string]any{"type": "Signal", "data": map[string]any{"sdp": "hello"}})
	signal := recvFrame(t, creator)
	if signal["type"] != "Signal" {
		t.Fatalf("creator got %v, want Signal", signal)
	}
}

func TestJoinRoomWrongPasswordReturnsError(t *testing.T) {
	srv, url := newTestServer(t, 2)
	defer srv.Close()

	creator := dial(t, url)
	defer creator.Close()
	sendJSON(t, creator, map[string]any{"type": "CreateRoom", "password": "s3cret"})
	created := recvFrame(t, creator)
	roomID := created["room_id"].(string)

	joiner := dial(t, url)
	defer joiner.Close()
	sendJSON(t, joiner, map[string]any{"type": "JoinRoom", "room_id": roomID, "password": "wrong"})

	got := recvFrame(t, joiner)
	if got["type"] != "Error" || got["code"] != "INVALID_PASSWORD" {
		t.Fatalf("got %v, want Error/INVALID_PASSWORD", got)
	}
}

func TestRoomFullReturnsError(t *testing.T) {
	srv, url := newTestServer(t, 1)
	defer srv.Close()

	creator := dial(t, url)
	defer creator.Close()
	sendJSON(t, creator, map[string]any{"type": "CreateRoom"})
	roomID := recvFrame(t, creator)["room_id"].(string)

	joiner := dial(t, url)
	defer joiner.Close()
	sendJSON(t, joiner, map[string]any{"type": "JoinRoom", "room_id": roomID})

	got := recvFrame(t, joiner)
	if got["type"] != "Error" || got["code"] != "ROOM_FULL" {
		t.Fatalf("got %v, want Error/ROOM_FULL", got)
	}
}

func TestSecondBindIsRejected(t *testing.T) {
	srv, url := newTestServer(t, 3)
	defer srv.Close()

	conn := dial(t, url)
	defer conn.Close()
	sendJSON(t, conn, map[string]any{"type": "CreateRoom"})
	recvFrame(t, conn)

	sendJSON(t, conn, map[string]any{"type": "CreateRoom"})
	got := recvFrame(t, conn)
	if got["type"] != "Error" || got["code"] != "ALREADY_IN_ROOM" {
		t.Fatalf("got %v, want Error/ALREADY_IN_ROOM", got)
	}
}

func TestSignalBeforeJoinReturnsNotInRoom(t *testing.T) {
	srv, url := newTestServer(t, 2)
	defer srv.Close()

	conn := dial(t, url)
	defer conn.Close()
	sendJSON(t, conn, map[string]any{"type": "Signal", "data": map[string]any{}})

	got := recvFrame(t, conn)
	if got["type"] != "Error" || got["code"] != "NOT_IN_ROOM" {
		t.Fatalf("got %v, want Error/NOT_IN_ROOM", got)
	}
}

func TestMalformedJSONReturnsInvalidMessage(t *testing.T) {
	srv, url := newTestServer(t, 2)
	defer srv.Close()

	conn := dial(t, url)
	defer conn.Close()
	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := recvFrame(t, conn)
	if got["type"] != "Error" || got["code"] != "INVALID_MESSAGE" {
		t.Fatalf("got %v, want Error/INVALID_MESSAGE", got)
	}
}

func TestPingPong(t *testing.T) {
	srv, url := newTestServer(t, 2)
	defer srv.Close()

	conn := dial(t, url)
	defer conn.Close()
	sendJSON(t, conn, map[string]any{"type": "Ping"})

	got := recvFrame(t, conn)
	if got["type"] != "Pong" {
		t.Fatalf("got %v, want Pong", got)
	}
}

// TestLeaveNotifiesRemainingPeer exercises the leave path end-to-end:
// closing one socket must deliver PeerLeft to the other and leave the room
// joinable again for a third connection.
func TestLeaveNotifiesRemainingPeer(t *testing.T) {
	srv, url := newTestServer(t, 2)
	defer srv.Close()

	creator := dial(t, url)
	defer creator.Close()
	sendJSON(t, creator, map[string]any{"type": "CreateRoom"})
	roomID := recvFrame(t, creator)["room_id"].(string)

	joiner := dial(t, url)
	sendJSON(t, joiner, map[string]any{"type": "JoinRoom", "room_id": roomID})
	recvFrame(t, creator) // PeerJoined
	recvFrame(t, joiner)  // RoomJoined

	joiner.Close()

	left := recvFrame(t, creator)
	if left["type"] != "PeerLeft" || left["peer_count"] != float64(1) {
		t.Fatalf("got %v, want PeerLeft/1", left)
	}

	third := dial(t, url)
	defer third.Close()
	sendJSON(t, third, map[string]any{"type": "JoinRoom", "room_id": roomID})
	if got := recvFrame(t, third); got["type"] != "RoomJoined" {
		t.Fatalf("third connection got %v, want RoomJoined", got)
	}
}
