package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"animoverride/internal/link"
	"animoverride/internal/luahost"
	"animoverride/internal/predicate"
	"animoverride/internal/project"
)

type simulateFlags struct {
	clips  string
	script string
	actor  string
	clip   string
}

func simulateCmd() *cobra.Command {
	var flags simulateFlags
	cmd := &cobra.Command{
		Use:   "simulate <project>",
		Short: "Resolve one clip request for an actor defined in a Lua script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(os.Stdout, args[0], flags)
		},
	}
	cmd.Flags().StringVar(&flags.clips, "clips", "", "File with the project's original clip names, one per line")
	cmd.Flags().StringVar(&flags.script, "script", "", "Lua script defining predicates and actors")
	cmd.Flags().StringVar(&flags.actor, "actor", "", "Actor name from the script")
	cmd.Flags().StringVar(&flags.clip, "clip", "", "Original clip name to request")
	for _, name := range []string{"clips", "script", "actor", "clip"} {
		cmd.MarkFlagRequired(name)
	}
	return cmd
}

const simulateHandle project.Handle = 1

func runSimulate(w io.Writer, path string, flags simulateFlags) error {
	ctx := context.Background()

	original, err := readClipList(flags.clips)
	if err != nil {
		return err
	}
	slot := -1
	for i, name := range original {
		if strings.EqualFold(name, flags.clip) {
			slot = i
			break
		}
	}
	if slot < 0 {
		return fmt.Errorf("clip %q is not in %s", flags.clip, flags.clips)
	}

	host := luahost.New(nil)
	a, err := setup(ctx, setupOptions{projects: []string{path}, script: flags.script, host: host})
	if err != nil {
		return err
	}
	actor, ok := host.Actor(flags.actor)
	if !ok {
		return fmt.Errorf("actor %q is not defined in %s", flags.actor, flags.script)
	}

	table, err := a.projects.BuildClipTable(ctx, path, original, simulateHandle)
	if err != nil {
		return err
	}
	defer a.projects.ReleaseHandle(simulateHandle)

	p, _ := a.projects.Project(path)
	res, _ := p.Remap()
	if res.Err != nil {
		return res.Err
	}
	request := res.Offset() + slot

	var candidates []link.Entry
	if ix := p.Index(); ix != nil {
		candidates = ix.Candidates(request)
	}
	dest, ok := explain(w, candidates, actor)
	if !ok {
		fmt.Fprintf(w, "%s -> %s (no override)\n", flags.actor, table[request])
		return nil
	}
	fmt.Fprintf(w, "%s -> %s\n", flags.actor, table[dest])
	return nil
}

// explain walks the candidates the way the index resolves them, printing
// each chain once, and stops at the first that applies.
func explain(w io.Writer, candidates []link.Entry, c predicate.Character) (int, bool) {
	for i, entry := range candidates {
		dest, ok, steps := entry.Data.Trace(c)
		if entry.Data.Kind() == link.KindIdentity {
			fmt.Fprintf(w, "  identity: %v\n", ok)
		} else {
			fmt.Fprintf(w, "  priority %d: %v\n", entry.Priority, ok)
			chain := entry.Data.Chain()
			for _, step := range steps {
				state := "skipped"
				if step.Evaluated {
					state = fmt.Sprint(step.Result)
				}
				fmt.Fprintf(w, "    %-7s %s\n", state, chain[step.Index])
			}
		}
		if ok {
			if rest := len(candidates) - i - 1; rest > 0 {
				fmt.Fprintf(w, "  (%d lower-priority candidates not evaluated)\n", rest)
			}
			return dest, true
		}
	}
	return 0, false
}
