package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"chatsync/pkg/codec"
	"chatsync/pkg/convo"
	"chatsync/pkg/models"
	"chatsync/pkg/utils"
)

// RegisterConversations registers HTTP handlers for per-user conversation
// list endpoints.
func RegisterConversations(r *mux.Router) {
	r.HandleFunc("/users/{key}/conversations", createConversation).Methods(http.MethodPost)
	r.HandleFunc("/users/{key}/conversations", listConversations).Methods(http.MethodGet)
	r.HandleFunc("/users/{key}/conversations/with/{other}", conversationWith).Methods(http.MethodGet)
	r.HandleFunc("/users/{key}/conversations/{id}", deleteConversation).Methods(http.MethodDelete)
}

// messageInput is the wire form accepted for outgoing messages. It is a
// codec record without the server-assigned fields.
type messageInput struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

func (in messageInput) decode(name string) (models.Message, error) {
	return codec.Decode(codec.Record{Type: in.Type, Content: in.Content, Name: name})
}

func createConversation(w http.ResponseWriter, r *http.Request) {
	selfKey := mux.Vars(r)["key"]
	var in struct {
		Other     string       `json:"other"`
		OtherName string       `json:"other_name"`
		Message   messageInput `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Other == "" {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	first, err := in.Message.decode(in.OtherName)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := convo.CreateConversation(r.Context(), selfKey, in.Other, in.OtherName, first)
	if err == models.ErrUserNotFound {
		utils.JSONError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, map[string]string{"id": id})
}

func listConversations(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	list, err := convo.ListConversations(r.Context(), key)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []models.Conversation{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Conversations []models.Conversation `json:"conversations"`
	}{Conversations: list})
}

func conversationWith(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, ok, err := convo.ConversationExists(r.Context(), vars["key"], vars["other"])
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Exists bool   `json:"exists"`
		ID     string `json:"id,omitempty"`
	}{Exists: ok, ID: id})
}

func deleteConversation(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := convo.DeleteConversation(r.Context(), vars["key"], vars["id"]); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
}
