package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:          "animoverride",
		Short:        "Inspect and test animation override folders",
		SilenceUsage: true,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "animoverride.yaml", "Path to the config file")
	root.AddCommand(lintCmd())
	root.AddCommand(inspectCmd())
	root.AddCommand(remapCmd())
	root.AddCommand(simulateCmd())
	root.AddCommand(reportCmd())
	root.AddCommand(queryCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
