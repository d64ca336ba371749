// Package metrics exposes Prometheus counters and gauges for the signaling
// server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	reg = prometheus.NewRegistry()

	WSConnections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signalbrew_ws_connections_total", Help: "Total WebSocket connections accepted",
	})
	WSMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "signalbrew_ws_messages_total", Help: "WebSocket messages processed by type",
	}, []string{"type"})
	WSErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "signalbrew_ws_errors_total", Help: "WebSocket session errors by code",
	}, []string{"code"})
	WSRateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signalbrew_ws_rate_limited_total", Help: "Messages rejected by the per-connection rate limiter",
	})
	RoomsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "signalbrew_rooms_active", Help: "Currently live rooms",
	})
	PeersActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "signalbrew_peers_active", Help: "Currently connected peers across all rooms",
	})
	RoomsReaped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signalbrew_rooms_reaped_total", Help: "Rooms removed by the TTL reaper",
	})
)

// Init registers every collector. Call once at process start.
func Init() {
	reg.MustRegister(
		WSConnections, WSMessages, WSErrors, WSRateLimited,
		RoomsActive, PeersActive, RoomsReaped,
	)
}

// Handler serves the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// SetRooms updates the active-room gauge; called by the room store.
func SetRooms(n int) { RoomsActive.Set(float64(n)) }

// SetPeers updates the active-peer gauge; called by the room service.
func SetPeers(n int) { PeersActive.Set(float64(n)) }
