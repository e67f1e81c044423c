package api

import (
	"net/http"
)

// HandleWebSocket upgrades to the realtime hub connection.
// The token is optional: anonymous sockets still count toward presence.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.ws == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Message: "Realtime updates are disabled"})
		return
	}
	h.ws.ServeHTTP(w, r)
}
