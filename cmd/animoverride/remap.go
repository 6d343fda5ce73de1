package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"animoverride/internal/link"
)

func remapCmd() *cobra.Command {
	var clipsPath string
	cmd := &cobra.Command{
		Use:   "remap <project>",
		Short: "Build a project's clip table from a clip list and print the assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemap(args[0], clipsPath)
		},
	}
	cmd.Flags().StringVar(&clipsPath, "clips", "", "File with the project's original clip names, one per line")
	cmd.MarkFlagRequired("clips")
	return cmd
}

func runRemap(path, clipsPath string) error {
	ctx := context.Background()

	original, err := readClipList(clipsPath)
	if err != nil {
		return err
	}
	a, err := setup(ctx, setupOptions{projects: []string{path}})
	if err != nil {
		return err
	}
	if _, err := a.projects.BuildClipTable(ctx, path, original, 0); err != nil {
		return err
	}
	p, _ := a.projects.Project(path)
	res, _ := p.Remap()

	fmt.Fprintf(os.Stdout, "%s : %s\n", res.Summary(), p.Key)
	if res.Err != nil {
		return res.Err
	}
	if !res.Applied {
		fmt.Fprintln(os.Stdout, "No overrides apply.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "Original clips start at %d.\n", res.Offset())
	for _, asg := range res.Assignments {
		switch asg.Kind {
		case link.KindIdentity:
			fmt.Fprintf(os.Stdout, "  %5d %s -> %5d %s (archetype %08X)\n", asg.Slot, asg.Source, asg.Dest, asg.Name, asg.Archetype)
		default:
			fmt.Fprintf(os.Stdout, "  %5d %s -> %5d %s (priority %d)\n", asg.Slot, asg.Source, asg.Dest, asg.Name, asg.Priority)
		}
	}
	for _, c := range res.Collisions {
		fmt.Fprintf(os.Stdout, "  collision: %s priority %d at slot %d\n", c.Name, c.Priority, c.Slot)
	}
	return nil
}
