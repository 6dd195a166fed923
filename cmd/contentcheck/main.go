// contentcheck loads the skill and puzzle tables and the Lua world scripts
// the server would load, and reports what it found.
package main

import (
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/l1jgo/realmsync/internal/data"
	"github.com/l1jgo/realmsync/internal/scripting"
)

func main() {
	if len(os.Args) < 4 {
		fmt.Fprintln(os.Stderr, "Usage: contentcheck <skills.yaml> <puzzles.yaml> <scripts dir>")
		os.Exit(1)
	}

	failed := false

	skills, err := data.LoadSkillTable(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		failed = true
	} else {
		fmt.Printf("skills: %d\n", skills.Count())
		for _, id := range skills.IDs() {
			s := skills.Get(id)
			fmt.Printf("  %-16s cooldown=%-8s cost=%-4d starter=%v\n", id, s.Cooldown, s.Cost, s.Starter)
		}
	}

	puzzles, err := data.LoadPuzzleTable(os.Args[2])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		failed = true
	} else {
		fmt.Printf("puzzles: %d\n", puzzles.Count())
	}

	engine, err := scripting.NewEngine(os.Args[3], zap.NewNop())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		failed = true
	} else {
		snap := engine.Snapshot()
		ids := make([]string, 0, len(snap.Objects))
		for _, o := range snap.Objects {
			ids = append(ids, o.ID)
		}
		sort.Strings(ids)
		fmt.Printf("world: time=%.2f weather=%q objects=%v\n", snap.TimeOfDay, snap.Weather, ids)
		engine.Close()
	}

	if failed {
		os.Exit(1)
	}
}
