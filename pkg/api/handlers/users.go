package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"chatsync/pkg/identity"
	"chatsync/pkg/logger"
	"chatsync/pkg/models"
	"chatsync/pkg/users"
	"chatsync/pkg/utils"
)

// RegisterUsers registers HTTP handlers for account endpoints.
func RegisterUsers(r *mux.Router) {
	r.HandleFunc("/users", registerUser).Methods(http.MethodPost)
	r.HandleFunc("/users/{key}", putUser).Methods(http.MethodPut)
	r.HandleFunc("/users/{key}", getUser).Methods(http.MethodGet)
}

// registerUser derives the storage key from an email address and writes
// the profile record.
func registerUser(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email     string `json:"email"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	key := identity.SafeKey(in.Email)
	if err := users.Insert(key, models.User{FirstName: in.FirstName, LastName: in.LastName}); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	logger.Info("user_registered", "user", key)
	_ = utils.JSONWrite(w, http.StatusCreated, map[string]string{"key": key})
}

func putUser(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	var u models.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := users.Insert(key, u); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, u)
}

func getUser(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	u, err := users.Get(key)
	if err == models.ErrUserNotFound {
		utils.JSONError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, u)
}
