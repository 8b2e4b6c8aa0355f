// Package store implements the path-addressed document tree that all
// synchronization components read and write. Values are JSON blobs keyed
// by slash-separated paths ("{userKey}/conversations",
// "{conversationID}/messages", ...). Mutations are last-write-wins; there
// are no cross-path transactions.
package store

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/cockroachdb/pebble"

	"chatsync/pkg/logger"
)

var (
	db     *pebble.DB
	dbPath string
)

// nodePrefix namespaces document keys so future key families (state,
// backups) can share the same Pebble instance.
const nodePrefix = "node:"

func nodeKey(path string) []byte {
	return []byte(nodePrefix + strings.Trim(path, "/"))
}

// Open opens (or creates) a Pebble database at the given path and keeps a
// global handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Info("opening_pebble_db", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return err
	}
	dbPath = path
	logger.Info("pebble_opened", "path", path)
	return nil
}

// Close closes the opened pebble DB if present and drops all watchers.
func Close() error {
	if db == nil {
		return nil
	}
	closeAllWatchers()
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	dbPath = ""
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

// Write stores value at path, overwriting any previous value, and wakes
// watchers registered on that path.
func Write(path string, value []byte) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	if err := db.Set(nodeKey(path), value, pebble.Sync); err != nil {
		logger.Error("write_failed", "path", path, "error", err)
		return err
	}
	writesTotal.Inc()
	logger.Debug("write_ok", "path", path, "len", len(value))
	notifyWatchers(strings.Trim(path, "/"), value)
	return nil
}

// Read returns the value stored at path. A missing path reports
// pebble.ErrNotFound.
func Read(path string) ([]byte, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	v, closer, err := db.Get(nodeKey(path))
	if err != nil {
		return nil, err
	}
	out := append([]byte(nil), v...)
	if closer != nil {
		_ = closer.Close()
	}
	readsTotal.Inc()
	return out, nil
}

// Exists reports whether a value is stored at path.
func Exists(path string) (bool, error) {
	if db == nil {
		return false, fmt.Errorf("pebble not opened; call store.Open first")
	}
	_, closer, err := db.Get(nodeKey(path))
	if err == pebble.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if closer != nil {
		_ = closer.Close()
	}
	return true, nil
}

// Delete removes the value at path. Deleting a missing path is not an
// error. Watchers on the path observe a nil value.
func Delete(path string) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	if err := db.Delete(nodeKey(path), pebble.Sync); err != nil {
		logger.Error("delete_failed", "path", path, "error", err)
		return err
	}
	deletesTotal.Inc()
	logger.Debug("delete_ok", "path", path)
	notifyWatchers(strings.Trim(path, "/"), nil)
	return nil
}

// Children returns the distinct immediate child segments under path, in
// key order. A user's friend edges, for example, live one per child at
// "{userKey}/friends/{friendKey}".
func Children(path string) ([]string, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	prefix := []byte(nodePrefix + strings.Trim(path, "/") + "/")
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []string
	var last string
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		rest := string(iter.Key()[len(prefix):])
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			rest = rest[:i]
		}
		if rest != "" && rest != last {
			out = append(out, rest)
			last = rest
		}
	}
	return out, iter.Error()
}

// ListPaths returns all stored document paths that start with the given
// prefix. An empty prefix returns every path in the tree. Used by the
// inspect tool and the presence sweeper.
func ListPaths(prefix string) ([]string, error) {
	if db == nil {
		return nil, fmt.Errorf("pebble not opened; call store.Open first")
	}
	pfx := []byte(nodePrefix + strings.Trim(prefix, "/"))
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []string
	for iter.SeekGE(pfx); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), pfx) {
			break
		}
		out = append(out, string(iter.Key()[len(nodePrefix):]))
	}
	return out, iter.Error()
}
