package models

// User is the profile record stored at the root of a user's subtree.
type User struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Kind tags the payload type of a message.
type Kind string

const (
	KindText           Kind = "text"
	KindPhoto          Kind = "photo"
	KindVideo          Kind = "video"
	KindLocation       Kind = "location"
	KindAttributedText Kind = "attributed_text"
	KindEmoji          Kind = "emoji"
	KindAudio          Kind = "audio"
	KindContact        Kind = "contact"
	KindLinkPreview    Kind = "link_preview"
	KindCustom         Kind = "custom"
)

// Coordinate is a longitude/latitude pair. The store encodes it as a
// "lon,lat" string.
type Coordinate struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Message is one entry in a conversation's shared log.
// Text, MediaURL and Location are populated according to Kind; the
// remaining kinds carry a tag with empty content.
type Message struct {
	ID       string     `json:"id"`
	Sender   string     `json:"sender"`
	Name     string     `json:"name"`
	SentAt   string     `json:"sent_at"`
	Kind     Kind       `json:"kind"`
	Text     string     `json:"text,omitempty"`
	MediaURL string     `json:"media_url,omitempty"`
	Location Coordinate `json:"location,omitempty"`
	IsRead   bool       `json:"is_read"`
}

// LatestMessage is the denormalized summary of a conversation's most
// recent message, stored inline in each conversation entry so list views
// never read the full log.
type LatestMessage struct {
	Date   string `json:"date"`
	Text   string `json:"text"`
	IsRead bool   `json:"is_read"`
	Kind   string `json:"kind"`
}

// Conversation is one entry in a user's conversation list. The same
// logical conversation appears once in each participant's list, with
// Participant pointing at the other party. Both mirrors reference the
// shared message log by ID.
type Conversation struct {
	ID          string        `json:"id"`
	Participant string        `json:"participant"`
	Name        string        `json:"name"`
	Latest      LatestMessage `json:"latest_message"`
}

// InboundRequest is the knowledge object appended to the target's
// friendReqs list when a request is sent.
type InboundRequest struct {
	From   string `json:"from"`
	SentAt string `json:"time"`
}

// OutboundRequest is the knowledge object appended to the requester's
// friendReqsSent list.
type OutboundRequest struct {
	To       string `json:"to"`
	Accepted bool   `json:"accepted"`
}

// FriendRequest is an inbound request with the requester's profile
// resolved, as returned to list views.
type FriendRequest struct {
	From      string `json:"from"`
	SentAt    string `json:"sent_at"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// LocationRecord is a user's last known location. It is overwritten on
// every update; no history is kept.
type LocationRecord struct {
	CurrentLocation string `json:"currentLocation"`
	UpdatedAt       string `json:"updatedAt"`
}
