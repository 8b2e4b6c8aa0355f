// Package presence tracks each user's last known location. A location is
// a single overwritten record; no history is retained.
package presence

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"golang.org/x/sync/errgroup"

	"chatsync/pkg/codec"
	"chatsync/pkg/logger"
	"chatsync/pkg/models"
	"chatsync/pkg/social"
	"chatsync/pkg/store"
	"chatsync/pkg/utils"
)

// fanoutTimeout bounds the per-friend location reads so a single stalled
// read cannot hang the join.
const fanoutTimeout = 5 * time.Second

func locationPath(userKey string) string { return userKey + "/currentLocation" }

// UpdateLocation unconditionally overwrites the user's location record.
func UpdateLocation(ctx context.Context, userKey string, c models.Coordinate, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec := models.LocationRecord{
		CurrentLocation: codec.FormatCoordinate(c),
		UpdatedAt:       utils.FormatTime(at),
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return models.ErrFetchFailed
	}
	if err := store.Write(locationPath(userKey), b); err != nil {
		return models.ErrFetchFailed
	}
	logger.Debug("location_updated", "user", userKey)
	return nil
}

// GetLocation reads a user's last known location.
func GetLocation(ctx context.Context, userKey string) (models.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return models.Coordinate{}, err
	}
	raw, err := store.Read(locationPath(userKey))
	if err == pebble.ErrNotFound {
		return models.Coordinate{}, models.ErrFetchFailed
	}
	if err != nil {
		return models.Coordinate{}, models.ErrFetchFailed
	}
	var rec models.LocationRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return models.Coordinate{}, models.ErrFetchFailed
	}
	c, err := codec.ParseCoordinate(rec.CurrentLocation)
	if err != nil {
		return models.Coordinate{}, models.ErrFetchFailed
	}
	return c, nil
}

// FriendsLocations fans out one read per friend edge of userKey and joins
// the results. Friends whose record is missing or malformed are simply
// absent from the map; each such miss is reported in the failure list.
func FriendsLocations(ctx context.Context, userKey string) (map[string]models.Coordinate, []social.ResolveError, error) {
	friends, err := social.ListFriends(ctx, userKey)
	if err != nil {
		return nil, nil, err
	}
	out := make(map[string]models.Coordinate, len(friends))
	if len(friends) == 0 {
		return out, nil, nil
	}

	gctx, cancel := context.WithTimeout(ctx, fanoutTimeout)
	defer cancel()
	g, gctx := errgroup.WithContext(gctx)

	var mu sync.Mutex
	var failures []social.ResolveError
	for _, fk := range friends {
		fk := fk
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				mu.Lock()
				failures = append(failures, social.ResolveError{Key: fk, Err: err})
				mu.Unlock()
				return nil
			}
			c, err := GetLocation(gctx, fk)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, social.ResolveError{Key: fk, Err: err})
				return nil
			}
			out[fk] = c
			return nil
		})
	}
	_ = g.Wait()
	return out, failures, nil
}
