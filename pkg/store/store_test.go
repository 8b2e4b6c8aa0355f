package store

import (
	"context"
	"testing"
	"time"

	"chatsync/pkg/logger"
)

func openStore(t *testing.T) {
	t.Helper()
	logger.Init("error")
	if err := Open(t.TempDir()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = Close() })
}

func TestWriteReadExistsDelete(t *testing.T) {
	openStore(t)

	if ok, _ := Exists("alice-example-com"); ok {
		t.Fatal("unexpected existing path")
	}
	if err := Write("alice-example-com", []byte(`{"firstName":"Alice"}`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	v, err := Read("alice-example-com")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(v) != `{"firstName":"Alice"}` {
		t.Fatalf("Read returned %q", v)
	}
	if ok, _ := Exists("alice-example-com"); !ok {
		t.Fatal("Exists false after write")
	}
	if err := Delete("alice-example-com"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := Exists("alice-example-com"); ok {
		t.Fatal("Exists true after delete")
	}
}

func TestChildren(t *testing.T) {
	openStore(t)

	edges := []string{"bob-example-com", "carol-example-com", "dave-example-com"}
	for _, e := range edges {
		if err := Write("alice-example-com/friends/"+e, []byte("true")); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	// sibling subtree must not leak into the listing
	if err := Write("alice-example-com/friendReqs", []byte("[]")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Children("alice-example-com/friends")
	if err != nil {
		t.Fatalf("Children: %v", err)
	}
	if len(got) != len(edges) {
		t.Fatalf("Children returned %v", got)
	}
	for i, e := range edges {
		if got[i] != e {
			t.Fatalf("Children[%d] = %q; want %q", i, got[i], e)
		}
	}
}

func TestListPaths(t *testing.T) {
	openStore(t)

	_ = Write("u1/currentLocation", []byte("{}"))
	_ = Write("u2/currentLocation", []byte("{}"))
	_ = Write("u2/conversations", []byte("[]"))

	all, err := ListPaths("")
	if err != nil {
		t.Fatalf("ListPaths: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListPaths returned %v", all)
	}
	u2, err := ListPaths("u2")
	if err != nil {
		t.Fatalf("ListPaths(u2): %v", err)
	}
	if len(u2) != 2 {
		t.Fatalf("ListPaths(u2) returned %v", u2)
	}
}

func TestWatchDeliversWrites(t *testing.T) {
	openStore(t)

	if err := Write("conv_1/messages", []byte(`["a"]`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := Watch(ctx, "conv_1/messages")

	select {
	case v := <-ch:
		if string(v) != `["a"]` {
			t.Fatalf("initial value %q", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no initial value delivered")
	}

	if err := Write("conv_1/messages", []byte(`["a","b"]`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	select {
	case v := <-ch:
		if string(v) != `["a","b"]` {
			t.Fatalf("updated value %q", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no update delivered")
	}

	cancel()
	select {
	case _, open := <-ch:
		if open {
			// drain one buffered value at most
			if _, open = <-ch; open {
				t.Fatal("channel still open after cancel")
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
