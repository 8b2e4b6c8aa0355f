package presence

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"chatsync/pkg/logger"
	"chatsync/pkg/models"
	"chatsync/pkg/social"
	"chatsync/pkg/store"
	"chatsync/pkg/users"
	"chatsync/pkg/utils"
)

const (
	alice = "alice-example-com"
	bob   = "bob-example-com"
)

func setup(t *testing.T) context.Context {
	t.Helper()
	logger.Init("error")
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := users.Insert(alice, models.User{FirstName: "Alice", LastName: "Anderson"}); err != nil {
		t.Fatalf("insert alice: %v", err)
	}
	if err := users.Insert(bob, models.User{FirstName: "Bob", LastName: "Brown"}); err != nil {
		t.Fatalf("insert bob: %v", err)
	}
	return context.Background()
}

func befriend(t *testing.T, ctx context.Context, a, b string) {
	t.Helper()
	if err := social.SendRequest(ctx, a, b); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if err := social.AcceptRequest(ctx, b, a); err != nil {
		t.Fatalf("AcceptRequest: %v", err)
	}
}

func TestUpdateAndGetLocation(t *testing.T) {
	ctx := setup(t)
	c := models.Coordinate{Lon: -97.74, Lat: 30.29}
	if err := UpdateLocation(ctx, alice, c, time.Now()); err != nil {
		t.Fatalf("UpdateLocation: %v", err)
	}
	got, err := GetLocation(ctx, alice)
	if err != nil {
		t.Fatalf("GetLocation: %v", err)
	}
	if got != c {
		t.Fatalf("got %+v; want %+v", got, c)
	}

	// overwrite, not append
	c2 := models.Coordinate{Lon: 2.35, Lat: 48.86}
	if err := UpdateLocation(ctx, alice, c2, time.Now()); err != nil {
		t.Fatalf("UpdateLocation: %v", err)
	}
	got, err = GetLocation(ctx, alice)
	if err != nil {
		t.Fatalf("GetLocation: %v", err)
	}
	if got != c2 {
		t.Fatalf("got %+v after overwrite; want %+v", got, c2)
	}
}

func TestGetLocationMissing(t *testing.T) {
	ctx := setup(t)
	if _, err := GetLocation(ctx, alice); err != models.ErrFetchFailed {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
}

func TestFriendsLocations(t *testing.T) {
	ctx := setup(t)
	befriend(t, ctx, alice, bob)

	c := models.Coordinate{Lon: -97.74, Lat: 30.29}
	if err := UpdateLocation(ctx, bob, c, time.Now()); err != nil {
		t.Fatalf("UpdateLocation: %v", err)
	}

	locs, failures, err := FriendsLocations(ctx, alice)
	if err != nil {
		t.Fatalf("FriendsLocations: %v", err)
	}
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %+v", failures)
	}
	if got, ok := locs[bob]; !ok || got != c {
		t.Fatalf("join result %+v", locs)
	}
}

func TestFriendsLocationsReportsMissing(t *testing.T) {
	ctx := setup(t)
	befriend(t, ctx, alice, bob)
	// bob never reported a location

	locs, failures, err := FriendsLocations(ctx, alice)
	if err != nil {
		t.Fatalf("FriendsLocations: %v", err)
	}
	if len(locs) != 0 {
		t.Fatalf("phantom locations %+v", locs)
	}
	if len(failures) != 1 || failures[0].Key != bob {
		t.Fatalf("failure list %+v", failures)
	}
}

func TestFriendsLocationsNoFriends(t *testing.T) {
	ctx := setup(t)
	locs, failures, err := FriendsLocations(ctx, alice)
	if err != nil {
		t.Fatalf("FriendsLocations: %v", err)
	}
	if len(locs) != 0 || len(failures) != 0 {
		t.Fatalf("got %+v / %+v", locs, failures)
	}
}

func TestSweepOnce(t *testing.T) {
	ctx := setup(t)

	if err := UpdateLocation(ctx, alice, models.Coordinate{Lon: 1, Lat: 2}, time.Now().Add(-48*time.Hour)); err != nil {
		t.Fatalf("UpdateLocation: %v", err)
	}
	if err := UpdateLocation(ctx, bob, models.Coordinate{Lon: 3, Lat: 4}, time.Now()); err != nil {
		t.Fatalf("UpdateLocation: %v", err)
	}

	pruned, err := SweepOnce(24 * time.Hour)
	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("pruned %d records; want 1", pruned)
	}
	if _, err := GetLocation(ctx, alice); err == nil {
		t.Fatal("stale record survives the sweep")
	}
	if _, err := GetLocation(ctx, bob); err != nil {
		t.Fatalf("fresh record swept: %v", err)
	}
}

func TestSweepOnceSkipsUnparseable(t *testing.T) {
	setup(t)
	if err := store.Write(alice+"/currentLocation", []byte(`{"currentLocation":"1,2","updatedAt":"not-a-time"}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	pruned, err := SweepOnce(time.Hour)
	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if pruned != 0 {
		t.Fatalf("pruned %d; unparseable record should be left alone", pruned)
	}
}

func TestStartSweeperInvalidCron(t *testing.T) {
	setup(t)
	if _, err := StartSweeper(context.Background(), "not a cron", time.Hour); err == nil {
		t.Fatal("invalid cron accepted")
	}
}

func TestLocationRecordTimestampFormat(t *testing.T) {
	ctx := setup(t)
	at := time.Date(2026, 8, 28, 12, 30, 45, 0, time.UTC)
	if err := UpdateLocation(ctx, alice, models.Coordinate{Lon: 1, Lat: 2}, at); err != nil {
		t.Fatalf("UpdateLocation: %v", err)
	}
	raw, err := store.Read(alice + "/currentLocation")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := utils.FormatTime(at)
	if want != "20260828123045" {
		t.Fatalf("FormatTime layout drifted: %q", want)
	}
	var rec models.LocationRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.UpdatedAt != want {
		t.Fatalf("updatedAt = %q; want %q", rec.UpdatedAt, want)
	}
}
