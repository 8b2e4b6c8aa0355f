package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"chatsync/pkg/models"
	"chatsync/pkg/social"
	"chatsync/pkg/utils"
)

// RegisterFriends registers HTTP handlers for the friend graph.
func RegisterFriends(r *mux.Router) {
	r.HandleFunc("/users/{key}/friends/requests", sendFriendRequest).Methods(http.MethodPost)
	r.HandleFunc("/users/{key}/friends/requests", listFriendRequests).Methods(http.MethodGet)
	r.HandleFunc("/users/{key}/friends/requests/{from}/accept", acceptFriendRequest).Methods(http.MethodPost)
	r.HandleFunc("/users/{key}/friends/requests/{to}", withdrawFriendRequest).Methods(http.MethodDelete)
	r.HandleFunc("/users/{key}/friends", listFriends).Methods(http.MethodGet)
	r.HandleFunc("/users/{key}/friends/{fkey}", isFriend).Methods(http.MethodGet)
	r.HandleFunc("/users/{key}/friends/{fkey}", updateFriend).Methods(http.MethodPut)
	r.HandleFunc("/users/{key}/friends/{fkey}", removeFriend).Methods(http.MethodDelete)
}

func sendFriendRequest(w http.ResponseWriter, r *http.Request) {
	requester := mux.Vars(r)["key"]
	var in struct {
		To string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.To == "" {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	err := social.SendRequest(r.Context(), requester, in.To)
	switch err {
	case nil:
		_ = utils.JSONWrite(w, http.StatusCreated, map[string]string{"status": "ok"})
	case models.ErrAlreadyFriends, models.ErrAlreadyRequested:
		utils.JSONError(w, http.StatusConflict, err.Error())
	default:
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
	}
}

func listFriendRequests(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	reqs, failures, err := social.ListRequests(r.Context(), key)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if reqs == nil {
		reqs = []models.FriendRequest{}
	}
	unresolved := make([]string, 0, len(failures))
	for _, f := range failures {
		unresolved = append(unresolved, f.Key)
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Requests   []models.FriendRequest `json:"requests"`
		Unresolved []string               `json:"unresolved,omitempty"`
	}{Requests: reqs, Unresolved: unresolved})
}

func acceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := social.AcceptRequest(r.Context(), vars["key"], vars["from"]); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
}

func withdrawFriendRequest(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	err := social.WithdrawRequest(r.Context(), vars["key"], vars["to"])
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, "no pending request")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
}

func listFriends(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	friends, err := social.ListFriends(r.Context(), key)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if friends == nil {
		friends = []string{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Friends []string `json:"friends"`
	}{Friends: friends})
}

func isFriend(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ok, err := social.IsFriend(r.Context(), vars["key"], vars["fkey"])
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]bool{"is_friend": ok})
}

func updateFriend(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var in struct {
		Value bool `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	err := social.UpdateFriendEdge(r.Context(), vars["key"], vars["fkey"], in.Value)
	switch err {
	case nil:
		_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
	case models.ErrNotFriends:
		utils.JSONError(w, http.StatusNotFound, err.Error())
	default:
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
	}
}

func removeFriend(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	err := social.RemoveFriend(r.Context(), vars["key"], vars["fkey"])
	switch err {
	case nil:
		_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
	case models.ErrNotFriends:
		utils.JSONError(w, http.StatusNotFound, err.Error())
	default:
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
	}
}
