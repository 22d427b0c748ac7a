// Command snapshot-check validates tier snapshot files: each file must parse
// as snapshot JSON and survive a parse/marshal round trip without drift.
package main

import (
	"flag"
	"fmt"
	"os"

	"tiercore/pkg/scene"
)

func main() {
	quiet := flag.Bool("quiet", false, "suppress per-file output")
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: snapshot-check [-quiet] <snapshot.json> [...]")
		os.Exit(2)
	}
	failed := 0
	for _, path := range flag.Args() {
		if err := checkFile(path, *quiet); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed++
		}
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d file(s) failed\n", failed)
		os.Exit(1)
	}
}

func checkFile(path string, quiet bool) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	snap, err := scene.Parse(string(raw))
	if err != nil {
		return err
	}
	text, err := snap.Marshal()
	if err != nil {
		return err
	}
	again, err := scene.Parse(text)
	if err != nil {
		return fmt.Errorf("reparse: %w", err)
	}
	normalized, err := again.Marshal()
	if err != nil {
		return fmt.Errorf("remarshal: %w", err)
	}
	if text != normalized {
		return fmt.Errorf("round trip drift: marshaled forms differ")
	}
	if !quiet {
		components := 0
		for _, e := range snap.Entities {
			components += len(e.Components)
		}
		fmt.Printf("%s: ok (%d entities, %d components)\n", path, len(snap.Entities), components)
	}
	return nil
}
