package models

import "errors"

// Error kinds reported by the synchronization layer. Operations report
// exactly one of these through their completion; callers are expected to
// surface them without further detail.
var (
	ErrUserNotFound           = errors.New("user not found")
	ErrFetchFailed            = errors.New("fetch failed")
	ErrUploadFailed           = errors.New("upload failed")
	ErrDownloadURLUnavailable = errors.New("download url unavailable")

	// Friend-graph transitions outside the valid state machine.
	ErrAlreadyRequested = errors.New("friend request already pending")
	ErrAlreadyFriends   = errors.New("already friends")
	ErrNotFriends       = errors.New("not friends")
)
