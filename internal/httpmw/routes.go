package httpmw

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/signalbrew/server/internal/config"
	"github.com/signalbrew/server/internal/ice"
	"github.com/signalbrew/server/internal/room"
)

// RoomExistenceHandler serves GET /api/rooms/{id}: the read-only query
// described in SPEC_FULL.md §4.9. It never touches last_activity.
func RoomExistenceHandler(svc *room.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		exists, hasPassword := svc.GetRoomInfo(id)
		w.Header().Set("Content-Type", "application/json")
		if !exists {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"type":   "RoomExists",
				"exists": false,
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type":         "RoomExists",
			"exists":       true,
			"has_password": hasPassword,
		})
	}
}

// ICEServersHandler serves GET /api/ice-servers.
func ICEServersHandler(cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ice.Build(cfg))
	}
}

// HealthHandler serves GET /health.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}
