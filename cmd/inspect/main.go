package main

import (
	"flag"
	"fmt"
	"os"

	"chatsync/pkg/logger"
	"chatsync/pkg/store"
)

// inspect dumps stored document paths (and optionally values) from a
// chatsync store directory. Intended for debugging, not production use.
func main() {
	var dbPath, prefix string
	var values bool
	flag.StringVar(&dbPath, "db", "", "path to the store directory")
	flag.StringVar(&prefix, "prefix", "", "only paths starting with this prefix")
	flag.BoolVar(&values, "values", false, "print document values as well")
	flag.Parse()
	if dbPath == "" {
		fmt.Fprintln(os.Stderr, "--db required")
		os.Exit(2)
	}
	logger.Init("error")
	if err := store.Open(dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	paths, err := store.ListPaths(prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list paths: %v\n", err)
		os.Exit(1)
	}
	for _, p := range paths {
		if !values {
			fmt.Println(p)
			continue
		}
		v, err := store.Read(p)
		if err != nil {
			fmt.Printf("%s\t<unreadable: %v>\n", p, err)
			continue
		}
		fmt.Printf("%s\t%s\n", p, v)
	}
}
