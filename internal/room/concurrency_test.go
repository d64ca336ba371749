package room

import (
	"sync"
	"sync/atomic"
	"testing"
)

// TestConcurrentJoinsRespectCapacity is P1: |peers(room)| <= room_max_peers
// at every observable point, even when many goroutines race to join the
// same room simultaneously. Grounded in the WaitGroup+atomic
// exactly-N-succeed pattern from the teacher's rendezvous concurrency
// tests.
func TestConcurrentJoinsRespectCapacity(t *testing.T) {
	const maxPeers = 2
	const contenders = 50

	svc := newTestService(maxPeers)
	id, err := svc.CreateRoom("")
	if err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}

	var wg sync.WaitGroup
	var succeeded int64
	var full int64

	start := make(chan struct{})
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, _, _, err := svc.JoinRoom(id, "", make(chan []byte, 16))
			switch err {
			case nil:
				atomic.AddInt64(&succeeded, 1)
			case ErrCapacityExceeded:
				atomic.AddInt64(&full, 1)
			default:
				t.Errorf("unexpected JoinRoom error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := atomic.LoadInt64(&succeeded); got != maxPeers {
		t.Errorf("succeeded joins = %d, want %d", got, maxPeers)
	}
	if got := atomic.LoadInt64(&full); got != contenders-maxPeers {
		t.Errorf("rejected joins = %d, want %d", got, contenders-maxPeers)
	}
	if r := svc.GetRoom(id); r != nil && r.PeerCount() != maxPeers {
		t.Errorf("final peer count = %d, want %d", r.PeerCount(), maxPeers)
	}
}

// TestConcurrentLeaveNeverDoubleDeletes exercises many goroutines racing
// to remove the last peers from a room, asserting exactly one observer
// sees wasDeleted=true.
func TestConcurrentLeaveNeverDoubleDeletes(t *testing.T) {
	svc := newTestService(8)
	id, _ := svc.CreateRoom("")

	peerIDs := make([]string, 8)
	for i := range peerIDs {
		_, p, _, err := svc.JoinRoom(id, "", make(chan []byte, 16))
		if err != nil {
			t.Fatalf("JoinRoom() error = %v", err)
		}
		peerIDs[i] = p.ID
	}

	var wg sync.WaitGroup
	var deletions int64
	start := make(chan struct{})
	for _, pid := range peerIDs {
		wg.Add(1)
		go func(pid string) {
			defer wg.Done()
			<-start
			deleted, err := svc.LeaveRoom(id, pid)
			if err != nil {
				t.Errorf("LeaveRoom() error = %v", err)
				return
			}
			if deleted {
				atomic.AddInt64(&deletions, 1)
			}
		}(pid)
	}
	close(start)
	wg.Wait()

	if deletions != 1 {
		t.Errorf("deletions = %d, want exactly 1", deletions)
	}
	if exists, _ := svc.GetRoomInfo(id); exists {
		t.Error("room should be gone after every peer left")
	}
}

// TestConcurrentCreateUniqueIDs exercises many concurrent CreateRoom calls
// and asserts every resulting room ID is unique, per spec.md §4.5's note
// that same-slug races are tolerated in theory but astronomically rare.
func TestConcurrentCreateUniqueIDs(t *testing.T) {
	svc := newTestService(2)
	const n = 200

	var wg sync.WaitGroup
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := svc.CreateRoom("")
			if err != nil {
				t.Errorf("CreateRoom() error = %v", err)
				return
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate room id generated: %q", id)
		}
		seen[id] = true
	}
}
