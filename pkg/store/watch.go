package store

import (
	"context"
	"strings"
	"sync"
)

// Watchers implement the continuous-observe half of the document tree:
// a Watch delivers the current value once, then every subsequent write to
// the same path, until the caller's context is canceled. Slow consumers
// miss intermediate values rather than blocking writers.

type watcher struct {
	path string
	ch   chan []byte
}

var (
	watchMu  sync.Mutex
	watchers map[*watcher]struct{}
)

// Watch subscribes to the value at path. The returned channel receives
// the value stored at subscription time (if any) and then the value of
// every later Write; Delete delivers nil. The channel closes when ctx is
// canceled or the store shuts down.
func Watch(ctx context.Context, path string) <-chan []byte {
	w := &watcher{path: strings.Trim(path, "/"), ch: make(chan []byte, 16)}
	watchMu.Lock()
	if watchers == nil {
		watchers = make(map[*watcher]struct{})
	}
	watchers[w] = struct{}{}
	watchersGauge.Set(float64(len(watchers)))
	watchMu.Unlock()

	if v, err := Read(path); err == nil {
		w.ch <- v
	}

	go func() {
		<-ctx.Done()
		watchMu.Lock()
		if _, ok := watchers[w]; ok {
			delete(watchers, w)
			close(w.ch)
			watchersGauge.Set(float64(len(watchers)))
		}
		watchMu.Unlock()
	}()
	return w.ch
}

func notifyWatchers(path string, value []byte) {
	watchMu.Lock()
	defer watchMu.Unlock()
	for w := range watchers {
		if w.path != path {
			continue
		}
		select {
		case w.ch <- value:
		default:
			// consumer lagging; it will catch up on the next write
		}
	}
}

func closeAllWatchers() {
	watchMu.Lock()
	defer watchMu.Unlock()
	for w := range watchers {
		close(w.ch)
	}
	watchers = nil
	watchersGauge.Set(0)
}
