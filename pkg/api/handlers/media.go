package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"chatsync/pkg/blob"
	"chatsync/pkg/models"
	"chatsync/pkg/utils"
)

const presignExpiry = 15 * time.Minute

// RegisterMedia registers HTTP handlers that hand out presigned blob URLs
// for profile pictures and message attachments.
func RegisterMedia(r *mux.Router) {
	r.HandleFunc("/media/profile/{key}", profileMediaURLs).Methods(http.MethodPost)
	r.HandleFunc("/media/messages/images/{file}", messageImageURLs).Methods(http.MethodPost)
	r.HandleFunc("/media/messages/videos/{file}", messageVideoURLs).Methods(http.MethodPost)
}

func presignPair(w http.ResponseWriter, r *http.Request, key string) {
	if !blob.Ready() {
		utils.JSONError(w, http.StatusServiceUnavailable, "blob store not configured")
		return
	}
	up, err := blob.UploadURL(r.Context(), key, presignExpiry)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, models.ErrUploadFailed.Error())
		return
	}
	down, err := blob.DownloadURL(r.Context(), key, presignExpiry)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, models.ErrDownloadURLUnavailable.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Key         string `json:"key"`
		UploadURL   string `json:"upload_url"`
		DownloadURL string `json:"download_url"`
	}{Key: key, UploadURL: up, DownloadURL: down})
}

func profileMediaURLs(w http.ResponseWriter, r *http.Request) {
	presignPair(w, r, blob.ProfilePicturePath(mux.Vars(r)["key"]))
}

func messageImageURLs(w http.ResponseWriter, r *http.Request) {
	presignPair(w, r, blob.MessageImagePath(mux.Vars(r)["file"]))
}

func messageVideoURLs(w http.ResponseWriter, r *http.Request) {
	presignPair(w, r, blob.MessageVideoPath(mux.Vars(r)["file"]))
}
