package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	workspaceRoot string
	jsonOutput    bool
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "smarttodo",
	Version: Version,
	Short:   "Task manager with AI-assisted prioritization",
	Long: `smarttodo stores tasks, categories and captured context, and suggests
priorities, deadlines and descriptions for new work.

Suggestions come from a primary model, then a fallback model, and finally a
keyword heuristic, so a suggestion is always returned.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() error {
	err := RootCmd.Execute()
	if err != nil {
		printError(err)
	}
	return err
}

func printError(err error) {
	err = MapError(err)
	fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
	var cliErr *CLIError
	if errors.As(err, &cliErr) && cliErr.Hint != "" {
		fmt.Fprintln(os.Stderr, hintStyle.Render("Hint: "+cliErr.Hint))
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&workspaceRoot, "root", ".", "Workspace directory holding .smarttodo")
	RootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print machine-readable JSON")
}
