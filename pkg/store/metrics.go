package store

import (
	"io/fs"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	writesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatsync_store_writes_total",
		Help: "Number of document writes applied to the tree.",
	})
	readsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatsync_store_reads_total",
		Help: "Number of document reads served from the tree.",
	})
	deletesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatsync_store_deletes_total",
		Help: "Number of document deletes applied to the tree.",
	})
	watchersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chatsync_store_watchers",
		Help: "Currently registered continuous watchers.",
	})
)

// DiskUsageBytes returns the best-effort on-disk size of the store
// directory. Zero when the store is not open.
func DiskUsageBytes() uint64 {
	if db == nil || dbPath == "" {
		return 0
	}
	var total uint64
	_ = filepath.WalkDir(dbPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if fi, err := d.Info(); err == nil {
			total += uint64(fi.Size())
		}
		return nil
	})
	return total
}
