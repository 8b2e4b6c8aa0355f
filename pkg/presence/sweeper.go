package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/adhocore/gronx"

	"chatsync/pkg/logger"
	"chatsync/pkg/store"
	"chatsync/pkg/utils"
)

// The sweeper prunes location records whose updatedAt is older than the
// configured TTL. Stale fixes are worse than none for map views, and the
// record is rewritten on every real update anyway.

// StartSweeper runs the prune job on the given cron schedule until ctx is
// canceled. An empty cron defaults to hourly. Returns a cancel func.
func StartSweeper(ctx context.Context, cronExpr string, ttl time.Duration) (context.CancelFunc, error) {
	if ttl <= 0 {
		logger.Info("presence_sweeper_disabled")
		return func() {}, nil
	}
	if cronExpr == "" {
		cronExpr = "0 * * * *"
	}
	if !gronx.IsValid(cronExpr) {
		return nil, fmt.Errorf("invalid presence sweep cron expression: %s", cronExpr)
	}
	ctx2, cancel := context.WithCancel(ctx)
	logger.Info("presence_sweeper_started", "cron", cronExpr, "ttl", ttl.String())
	go runScheduler(ctx2, cronExpr, ttl)
	return cancel, nil
}

func runScheduler(ctx context.Context, cronExpr string, ttl time.Duration) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("presence_sweeper_stopping")
			return
		default:
		}
		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("presence_sweeper_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}
		select {
		case <-time.After(time.Until(next)):
			if n, err := SweepOnce(ttl); err != nil {
				logger.Error("presence_sweep_error", "error", err)
			} else if n > 0 {
				logger.Info("presence_sweep_done", "pruned", n)
			}
		case <-ctx.Done():
			logger.Info("presence_sweeper_stopping")
			return
		}
	}
}

// SweepOnce deletes every location record older than ttl and returns the
// number pruned. Records with an unparseable timestamp are left alone.
func SweepOnce(ttl time.Duration) (int, error) {
	paths, err := store.ListPaths("")
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().UTC().Add(-ttl)
	pruned := 0
	for _, p := range paths {
		if !strings.HasSuffix(p, "/currentLocation") {
			continue
		}
		raw, err := store.Read(p)
		if err != nil {
			continue
		}
		var rec struct {
			UpdatedAt string `json:"updatedAt"`
		}
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		at, err := utils.ParseTime(rec.UpdatedAt)
		if err != nil {
			continue
		}
		if at.Before(cutoff) {
			if err := store.Delete(p); err == nil {
				pruned++
			}
		}
	}
	return pruned, nil
}
