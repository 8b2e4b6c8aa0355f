// Package users manages the profile record stored at the root of each
// user's subtree.
package users

import (
	"encoding/json"

	"github.com/cockroachdb/pebble"

	"chatsync/pkg/logger"
	"chatsync/pkg/models"
	"chatsync/pkg/store"
)

// Insert writes a user's profile record. Existing profile data at the key
// is overwritten.
func Insert(userKey string, u models.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return models.ErrFetchFailed
	}
	if err := store.Write(userKey, b); err != nil {
		return models.ErrFetchFailed
	}
	logger.Info("user_inserted", "user", userKey)
	return nil
}

// Exists reports whether a profile record is stored for the key.
func Exists(userKey string) (bool, error) {
	ok, err := store.Exists(userKey)
	if err != nil {
		return false, models.ErrFetchFailed
	}
	return ok, nil
}

// Get loads a user's profile record.
func Get(userKey string) (models.User, error) {
	raw, err := store.Read(userKey)
	if err == pebble.ErrNotFound {
		return models.User{}, models.ErrUserNotFound
	}
	if err != nil {
		return models.User{}, models.ErrFetchFailed
	}
	var u models.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return models.User{}, models.ErrFetchFailed
	}
	return u, nil
}

// DisplayName resolves "firstName lastName" for a user key.
func DisplayName(userKey string) (string, error) {
	u, err := Get(userKey)
	if err != nil {
		return "", err
	}
	return u.FirstName + " " + u.LastName, nil
}
