package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/meetwise/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the --config path",
		Long: `Write the configuration currently in effect (defaults, the existing file and
MEETWISE_* environment overrides) to the --config path. An existing file is only
replaced with --force.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeConfig(configFile, cfg, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func writeConfig(path string, c *config.Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if err := config.Save(path, c); err != nil {
		return err
	}
	logger.Info("configuration written", "path", path)
	return nil
}
