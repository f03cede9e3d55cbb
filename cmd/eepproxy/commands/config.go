package commands

import (
	"github.com/spf13/cobra"

	"github.com/go-i2p/go-eepproxy/lib/config"
)

// configCmd groups configuration management subcommands.
func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Write a default configuration file",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := config.Default().Save(configPath); err != nil {
				return err
			}
			log.WithField("path", configPath).Info("wrote default configuration")
			return nil
		},
	}

	cmd.AddCommand(newCmd)
	return cmd
}
