package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/smarttodo/internal/infrastructure/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and create workspace configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets redacted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(workspaceRoot)
		if err != nil {
			return err
		}
		redacted := cfg.Redacted()
		out := cmd.OutOrStdout()
		if jsonOutput {
			return writeJSON(out, redacted)
		}
		data, err := yaml.Marshal(redacted)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_, err = out.Write(data)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to .smarttodo/config.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.Path(workspaceRoot)
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return NewCLIError("config already exists", "Pass --force to overwrite "+path, nil)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := config.Save(workspaceRoot, config.Default()); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return err
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configShowCmd, configInitCmd)
	RootCmd.AddCommand(configCmd)
}
