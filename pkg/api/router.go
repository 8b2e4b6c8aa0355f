// Package api exposes the synchronization core over HTTP. Routing and
// handler conventions follow a plain JSON-over-REST shape; live message
// feeds are served as SSE streams.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"chatsync/pkg/api/handlers"
)

// Handler returns the router for all /v1 endpoints plus the liveness
// probe.
func Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	v1 := r.PathPrefix("/v1").Subrouter()
	handlers.RegisterUsers(v1)
	handlers.RegisterConversations(v1)
	handlers.RegisterMessages(v1)
	// location routes go first so /friends/locations is not swallowed by
	// the /friends/{fkey} wildcard
	handlers.RegisterLocation(v1)
	handlers.RegisterFriends(v1)
	handlers.RegisterMedia(v1)
	return r
}
