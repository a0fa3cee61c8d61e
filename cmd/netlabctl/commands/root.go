// Package commands implements the netlabctl CLI commands: a test harness
// used to bring up a Stack over an in-memory loopback driver, inject
// frames, and run scripted end-to-end scenarios.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// cfgPath is the path to the TOML configuration file, shared by every
// subcommand that needs to construct a Stack.
var cfgPath string

// rootCmd is the top-level cobra command for netlabctl.
var rootCmd = &cobra.Command{
	Use:   "netlabctl",
	Short: "Test harness for the netlab ARP/IPv4/UDP stack",
	Long: "netlabctl drives a netlab Stack over an in-memory loopback link: " +
		"it injects frames, dumps the ARP cache, and runs the end-to-end " +
		"scenarios from the stack's specification.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a netlabctl TOML config file (defaults applied if unset)")

	rootCmd.AddCommand(scenarioCmd())
	rootCmd.AddCommand(arpCmd())
	rootCmd.AddCommand(versionCmd())
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
