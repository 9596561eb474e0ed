// Package commands implements the curvine-master CLI.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version, Commit, and Date are set at build time via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "curvine-master",
	Short:         "curvine-master runs the Curvine metadata master",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (default: $XDG_CONFIG_HOME/curvine-master/config.yaml)")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(initCmd)
}

// GetConfigFile returns the --config flag value, empty when unset.
func GetConfigFile() string {
	return cfgFile
}

// PrintErr writes an error to stderr in the CLI's standard form.
func PrintErr(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
