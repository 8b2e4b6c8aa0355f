// Package social maintains the directed friends relation and the pending
// friend-request queues.
//
// A request lives as a pair of knowledge objects, one in the target's
// inbound queue and one in the requester's outbound queue. Accepting a
// request converts it into boolean friend edges on both sides.
package social

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"golang.org/x/sync/errgroup"

	"chatsync/pkg/logger"
	"chatsync/pkg/models"
	"chatsync/pkg/store"
	"chatsync/pkg/users"
	"chatsync/pkg/utils"
)

// resolveTimeout bounds the fan-out reads that resolve requester
// profiles, so one unresponsive read cannot hang the whole listing.
const resolveTimeout = 5 * time.Second

func edgePath(userKey, friendKey string) string { return userKey + "/friends/" + friendKey }
func inboundPath(userKey string) string         { return userKey + "/friendReqs" }
func outboundPath(userKey string) string        { return userKey + "/friendReqsSent" }

// ResolveError records a single failed sub-read inside a fan-out, so
// callers can distinguish "no data" from "could not resolve".
type ResolveError struct {
	Key string
	Err error
}

func readQueue[T any](path string) ([]T, error) {
	raw, err := store.Read(path)
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, models.ErrFetchFailed
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, models.ErrFetchFailed
	}
	return out, nil
}

func writeQueue[T any](path string, q []T) error {
	b, err := json.Marshal(q)
	if err != nil {
		return models.ErrFetchFailed
	}
	if err := store.Write(path, b); err != nil {
		return models.ErrFetchFailed
	}
	return nil
}

// SendRequest records a pending request from requester to target. It is
// rejected when the pair are already friends or a request is already
// pending in either direction's queues.
func SendRequest(ctx context.Context, requester, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ok, err := store.Exists(edgePath(requester, target)); err != nil {
		return models.ErrFetchFailed
	} else if ok {
		return models.ErrAlreadyFriends
	}

	sent, err := readQueue[models.OutboundRequest](outboundPath(requester))
	if err != nil {
		return err
	}
	for _, r := range sent {
		if r.To == target && !r.Accepted {
			return models.ErrAlreadyRequested
		}
	}

	inbound, err := readQueue[models.InboundRequest](inboundPath(target))
	if err != nil {
		return err
	}
	inbound = append(inbound, models.InboundRequest{
		From:   requester,
		SentAt: utils.FormatTime(time.Now()),
	})
	if err := writeQueue(inboundPath(target), inbound); err != nil {
		return err
	}

	sent = append(sent, models.OutboundRequest{To: target, Accepted: false})
	if err := writeQueue(outboundPath(requester), sent); err != nil {
		return err
	}
	logger.Info("friend_request_sent", "from", requester, "to", target)
	return nil
}

// AcceptRequest converts the pending request from requester into friend
// edges on both sides, removes the inbound knowledge object and marks the
// requester's outbound copy accepted.
func AcceptRequest(ctx context.Context, target, requester string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := store.Write(edgePath(target, requester), []byte("true")); err != nil {
		return models.ErrFetchFailed
	}
	if err := store.Write(edgePath(requester, target), []byte("true")); err != nil {
		return models.ErrFetchFailed
	}

	inbound, err := readQueue[models.InboundRequest](inboundPath(target))
	if err != nil {
		return err
	}
	for i := range inbound {
		if inbound[i].From == requester {
			inbound = append(inbound[:i], inbound[i+1:]...)
			break
		}
	}
	if err := writeQueue(inboundPath(target), inbound); err != nil {
		return err
	}

	sent, err := readQueue[models.OutboundRequest](outboundPath(requester))
	if err != nil {
		return err
	}
	for i := range sent {
		if sent[i].To == target && !sent[i].Accepted {
			sent[i].Accepted = true
			break
		}
	}
	if err := writeQueue(outboundPath(requester), sent); err != nil {
		return err
	}
	logger.Info("friend_request_accepted", "target", target, "requester", requester)
	return nil
}

// WithdrawRequest removes a pending request from both queues. Withdrawing
// a request that is not pending reports failure.
func WithdrawRequest(ctx context.Context, requester, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sent, err := readQueue[models.OutboundRequest](outboundPath(requester))
	if err != nil {
		return err
	}
	found := false
	for i := range sent {
		if sent[i].To == target && !sent[i].Accepted {
			sent = append(sent[:i], sent[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return models.ErrFetchFailed
	}
	if err := writeQueue(outboundPath(requester), sent); err != nil {
		return err
	}

	inbound, err := readQueue[models.InboundRequest](inboundPath(target))
	if err != nil {
		return err
	}
	for i := range inbound {
		if inbound[i].From == requester {
			inbound = append(inbound[:i], inbound[i+1:]...)
			break
		}
	}
	if err := writeQueue(inboundPath(target), inbound); err != nil {
		return err
	}
	logger.Info("friend_request_withdrawn", "from", requester, "to", target)
	return nil
}

// RemoveFriend deletes the edge from userKey's perspective if present,
// else reports failure. The reciprocal edge is untouched.
func RemoveFriend(ctx context.Context, userKey, friendKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ok, err := store.Exists(edgePath(userKey, friendKey))
	if err != nil {
		return models.ErrFetchFailed
	}
	if !ok {
		return models.ErrNotFriends
	}
	if err := store.Delete(edgePath(userKey, friendKey)); err != nil {
		return models.ErrFetchFailed
	}
	logger.Info("friend_removed", "user", userKey, "friend", friendKey)
	return nil
}

// UpdateFriendEdge overwrites the boolean value of an existing edge, and
// fails when the edge is absent.
func UpdateFriendEdge(ctx context.Context, userKey, friendKey string, value bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ok, err := store.Exists(edgePath(userKey, friendKey))
	if err != nil {
		return models.ErrFetchFailed
	}
	if !ok {
		return models.ErrNotFriends
	}
	v := []byte("false")
	if value {
		v = []byte("true")
	}
	if err := store.Write(edgePath(userKey, friendKey), v); err != nil {
		return models.ErrFetchFailed
	}
	return nil
}

// IsFriend probes for the edge from userKey to friendKey.
func IsFriend(ctx context.Context, userKey, friendKey string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := store.Exists(edgePath(userKey, friendKey))
	if err != nil {
		return false, models.ErrFetchFailed
	}
	return ok, nil
}

// ListFriends returns the keys of all users userKey holds an edge to.
func ListFriends(ctx context.Context, userKey string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	keys, err := store.Children(userKey + "/friends")
	if err != nil {
		return nil, models.ErrFetchFailed
	}
	return keys, nil
}

// ListRequests returns the user's pending inbound requests with the
// requester's profile resolved. Resolution fans out one read per request
// under a bounded deadline; requests whose requester cannot be resolved
// are omitted from the result and reported in the failure list.
func ListRequests(ctx context.Context, userKey string) ([]models.FriendRequest, []ResolveError, error) {
	inbound, err := readQueue[models.InboundRequest](inboundPath(userKey))
	if err != nil {
		return nil, nil, err
	}
	if len(inbound) == 0 {
		return nil, nil, nil
	}

	gctx, cancel := context.WithTimeout(ctx, resolveTimeout)
	defer cancel()
	g, gctx := errgroup.WithContext(gctx)

	var mu sync.Mutex
	resolved := make([]models.FriendRequest, 0, len(inbound))
	var failures []ResolveError

	for _, req := range inbound {
		req := req
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				mu.Lock()
				failures = append(failures, ResolveError{Key: req.From, Err: err})
				mu.Unlock()
				return nil
			}
			u, err := users.Get(req.From)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, ResolveError{Key: req.From, Err: err})
				return nil
			}
			resolved = append(resolved, models.FriendRequest{
				From:      req.From,
				SentAt:    req.SentAt,
				FirstName: u.FirstName,
				LastName:  u.LastName,
			})
			return nil
		})
	}
	_ = g.Wait()
	return resolved, failures, nil
}
