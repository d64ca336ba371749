// Package reaper runs the background sweep that evicts rooms which have
// had no activity for longer than their TTL.
package reaper

import (
	"context"
	"time"

	"github.com/signalbrew/server/internal/logs"
	"github.com/signalbrew/server/internal/room"
)

const sweepInterval = time.Minute

// Start launches the TTL sweep loop and returns immediately; the loop
// stops when ctx is cancelled. Grounded in the teacher's StartJanitor
// ticker shape, retargeted at room.Service.CleanupStaleRooms.
func Start(ctx context.Context, svc *room.Service, ttl time.Duration, log logs.Logger) {
	t := time.NewTicker(sweepInterval)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				before := svc.Count()
				svc.CleanupStaleRooms(ttl)
				if after := svc.Count(); after != before {
					log.Info("ttl-sweep", logs.F("reaped", before-after), logs.F("remaining", after))
				}
			}
		}
	}()
}
