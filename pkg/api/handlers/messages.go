package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"chatsync/pkg/convo"
	"chatsync/pkg/models"
	"chatsync/pkg/utils"
)

// RegisterMessages registers HTTP handlers for conversation-log
// endpoints.
func RegisterMessages(r *mux.Router) {
	r.HandleFunc("/conversations/{id}/messages", sendMessage).Methods(http.MethodPost)
	r.HandleFunc("/conversations/{id}/messages", listMessages).Methods(http.MethodGet)
}

func sendMessage(w http.ResponseWriter, r *http.Request) {
	convID := mux.Vars(r)["id"]
	var in struct {
		Self      string       `json:"self"`
		Other     string       `json:"other"`
		OtherName string       `json:"other_name"`
		Message   messageInput `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Self == "" || in.Other == "" {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	m, err := in.Message.decode(in.OtherName)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := convo.SendMessage(r.Context(), convID, in.Self, in.Other, in.OtherName, m); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, map[string]string{"status": "ok"})
}

// listMessages returns the full log, or streams it as SSE when ?watch=1:
// each event carries the complete decoded log after a write.
func listMessages(w http.ResponseWriter, r *http.Request) {
	convID := mux.Vars(r)["id"]
	if r.URL.Query().Get("watch") == "1" {
		watchMessages(w, r, convID)
		return
	}
	msgs, err := convo.ListMessages(r.Context(), convID)
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, err.Error())
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Conversation string           `json:"conversation"`
		Messages     []models.Message `json:"messages"`
	}{Conversation: convID, Messages: msgs})
}

func watchMessages(w http.ResponseWriter, r *http.Request, convID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.JSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for msgs := range convo.StreamMessages(r.Context(), convID) {
		b, err := json.Marshal(msgs)
		if err != nil {
			continue
		}
		if _, err := w.Write([]byte("data: " + string(b) + "\n\n")); err != nil {
			return
		}
		flusher.Flush()
	}
}
