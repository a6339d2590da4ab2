package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ember/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "ember",
	Short: "ember scripting language runtime",
	Long:  `ember is a small register-stack bytecode VM with a single-pass compiler.`,
}

// main wires the command tree and persistent flags, then hands control
// to cobra. A failing subcommand exits the process with status 1.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize diagnostics (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().String("config", "", "path to an ember.toml overriding VM tuning")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to an interactive terminal,
// used to decide whether color and the REPL's raw input mode should
// turn on by default.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
