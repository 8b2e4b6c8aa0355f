// Package codec translates between the tagged message union used in
// memory and the flat key-value record persisted in the document tree.
package codec

import (
	"fmt"
	"strconv"
	"strings"

	"chatsync/pkg/models"
)

// Record is the flat wire form of a message as stored in a conversation
// log. Content is a kind-specific string encoding: raw text, a URL for
// photo/video, or "lon,lat" for location.
type Record struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Content string `json:"content"`
	Date    string `json:"date"`
	Sender  string `json:"sender"`
	IsRead  bool   `json:"is_read"`
	Name    string `json:"name"`
}

// tagOnly kinds are accepted on the wire but carry no payload.
var tagOnly = map[models.Kind]struct{}{
	models.KindAttributedText: {},
	models.KindEmoji:          {},
	models.KindAudio:          {},
	models.KindContact:        {},
	models.KindLinkPreview:    {},
	models.KindCustom:         {},
}

// Encode flattens a message for storage.
func Encode(m models.Message) Record {
	r := Record{
		ID:     m.ID,
		Type:   string(m.Kind),
		Date:   m.SentAt,
		Sender: m.Sender,
		IsRead: m.IsRead,
		Name:   m.Name,
	}
	switch m.Kind {
	case models.KindText:
		r.Content = m.Text
	case models.KindPhoto, models.KindVideo:
		r.Content = m.MediaURL
	case models.KindLocation:
		r.Content = FormatCoordinate(m.Location)
	}
	return r
}

// Decode rebuilds the tagged union from a stored record. Unknown types
// and malformed payloads yield an error so the caller can skip the single
// record instead of failing the whole batch.
func Decode(r Record) (models.Message, error) {
	m := models.Message{
		ID:     r.ID,
		Sender: r.Sender,
		Name:   r.Name,
		SentAt: r.Date,
		Kind:   models.Kind(r.Type),
		IsRead: r.IsRead,
	}
	switch m.Kind {
	case models.KindText:
		m.Text = r.Content
	case models.KindPhoto, models.KindVideo:
		m.MediaURL = r.Content
	case models.KindLocation:
		c, err := ParseCoordinate(r.Content)
		if err != nil {
			return models.Message{}, fmt.Errorf("message %s: %w", r.ID, err)
		}
		m.Location = c
	default:
		if _, ok := tagOnly[m.Kind]; !ok {
			return models.Message{}, fmt.Errorf("message %s: unknown kind %q", r.ID, r.Type)
		}
	}
	return m, nil
}

// FormatCoordinate encodes a coordinate as the store's "lon,lat" string.
func FormatCoordinate(c models.Coordinate) string {
	return strconv.FormatFloat(c.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lat, 'f', -1, 64)
}

// ParseCoordinate decodes a "lon,lat" string.
func ParseCoordinate(s string) (models.Coordinate, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return models.Coordinate{}, fmt.Errorf("malformed coordinate %q", s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("malformed longitude %q", parts[0])
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("malformed latitude %q", parts[1])
	}
	return models.Coordinate{Lon: lon, Lat: lat}, nil
}
