package codec

import (
	"testing"

	"chatsync/pkg/models"
)

func TestRoundTripSupportedKinds(t *testing.T) {
	msgs := []models.Message{
		{ID: "m1", Sender: "alice-example-com", Name: "Alice A", SentAt: "20260828120000", Kind: models.KindText, Text: "hello"},
		{ID: "m2", Sender: "alice-example-com", Name: "Alice A", SentAt: "20260828120001", Kind: models.KindPhoto, MediaURL: "https://blob/x.png"},
		{ID: "m3", Sender: "bob-example-com", Name: "Bob B", SentAt: "20260828120002", Kind: models.KindVideo, MediaURL: "https://blob/x.mov"},
		{ID: "m4", Sender: "bob-example-com", Name: "Bob B", SentAt: "20260828120003", Kind: models.KindLocation, Location: models.Coordinate{Lon: -97.74, Lat: 30.29}},
	}
	for _, m := range msgs {
		r := Encode(m)
		got, err := Decode(r)
		if err != nil {
			t.Fatalf("Decode(%s): %v", m.ID, err)
		}
		if got != m {
			t.Fatalf("round trip mismatch for %s: got %+v want %+v", m.ID, got, m)
		}
		// the flat record must preserve the wire fields
		if r.ID != m.ID || r.Date != m.SentAt || r.Sender != m.Sender {
			t.Fatalf("record lost identity fields: %+v", r)
		}
	}
}

func TestEncodeContentByKind(t *testing.T) {
	r := Encode(models.Message{Kind: models.KindLocation, Location: models.Coordinate{Lon: -97.74, Lat: 30.29}})
	if r.Content != "-97.74,30.29" {
		t.Fatalf("location content = %q", r.Content)
	}
	r = Encode(models.Message{Kind: models.KindText, Text: "hey"})
	if r.Content != "hey" {
		t.Fatalf("text content = %q", r.Content)
	}
}

func TestDecodeTagOnlyKinds(t *testing.T) {
	for _, k := range []string{"attributed_text", "emoji", "audio", "contact", "link_preview", "custom"} {
		m, err := Decode(Record{ID: "x", Type: k})
		if err != nil {
			t.Fatalf("tag-only kind %s rejected: %v", k, err)
		}
		if m.Text != "" || m.MediaURL != "" {
			t.Fatalf("tag-only kind %s carried content", k)
		}
	}
}

func TestDecodeRejectsBadRecords(t *testing.T) {
	if _, err := Decode(Record{ID: "x", Type: "carrier_pigeon"}); err == nil {
		t.Fatal("unknown kind accepted")
	}
	if _, err := Decode(Record{ID: "x", Type: "location", Content: "not-a-coordinate"}); err == nil {
		t.Fatal("malformed location accepted")
	}
	if _, err := Decode(Record{ID: "x", Type: "location", Content: "1.0,abc"}); err == nil {
		t.Fatal("non-numeric latitude accepted")
	}
}

func TestParseCoordinate(t *testing.T) {
	c, err := ParseCoordinate("-97.74,30.29")
	if err != nil {
		t.Fatalf("ParseCoordinate: %v", err)
	}
	if c.Lon != -97.74 || c.Lat != 30.29 {
		t.Fatalf("got %+v", c)
	}
	if _, err := ParseCoordinate("1,2,3"); err == nil {
		t.Fatal("three components accepted")
	}
}
