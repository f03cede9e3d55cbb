package commands

import (
	"github.com/spf13/cobra"

	"github.com/go-i2p/go-eepproxy/lib/config"
	"github.com/go-i2p/go-eepproxy/lib/proxy"
)

// clientCmd groups the client-side subcommands.
func clientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Client-side services",
	}

	var destination string
	echoCmd := &cobra.Command{
		Use:   "echo",
		Short: "Bridge one local TCP connection to a remote destination",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return proxy.NewClient(cfg, log).Run(destination)
		},
	}
	echoCmd.Flags().StringVar(&destination, "destination", "",
		"base64 destination (or name resolvable by the bridge) to dial")
	echoCmd.MarkFlagRequired("destination")

	cmd.AddCommand(echoCmd)
	return cmd
}
