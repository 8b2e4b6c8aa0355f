package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"chatsync/pkg/models"
	"chatsync/pkg/presence"
	"chatsync/pkg/utils"
)

// RegisterLocation registers HTTP handlers for the presence feed.
func RegisterLocation(r *mux.Router) {
	r.HandleFunc("/users/{key}/location", updateLocation).Methods(http.MethodPut)
	r.HandleFunc("/users/{key}/location", getLocation).Methods(http.MethodGet)
	r.HandleFunc("/users/{key}/friends/locations", friendsLocations).Methods(http.MethodGet)
}

func updateLocation(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	var c models.Coordinate
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := presence.UpdateLocation(r.Context(), key, c, time.Now()); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
}

func getLocation(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	c, err := presence.GetLocation(r.Context(), key)
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, c)
}

func friendsLocations(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	locs, failures, err := presence.FriendsLocations(r.Context(), key)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	missing := make([]string, 0, len(failures))
	for _, f := range failures {
		missing = append(missing, f.Key)
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Locations map[string]models.Coordinate `json:"locations"`
		Missing   []string                     `json:"missing,omitempty"`
	}{Locations: locs, Missing: missing})
}
