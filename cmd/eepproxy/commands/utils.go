package commands

import (
	"github.com/spf13/cobra"

	"github.com/go-i2p/go-eepproxy/lib/config"
	"github.com/go-i2p/go-eepproxy/lib/sam"
)

// utilsCmd groups utility subcommands.
func utilsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "utils",
		Short: "Utility commands",
	}

	var destinationName string
	genCmd := &cobra.Command{
		Use:   "generate-destination",
		Short: "Generate a destination keypair and persist it into the config",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			bridge, err := sam.NewSAM(cfg.SAM.Endpoint)
			if err != nil {
				return err
			}
			defer bridge.Close()

			pub, priv, err := bridge.GenerateDestination()
			if err != nil {
				return err
			}
			if err := cfg.AddDestination(config.Destination{
				PublicKey: pub,
				SecretKey: priv,
				Name:      destinationName,
			}); err != nil {
				return err
			}
			if err := cfg.Save(configPath); err != nil {
				return err
			}

			log.WithField("name", destinationName).Info("destination generated")
			log.WithField("public_key", pub).Info("share this address with peers")
			return nil
		},
	}
	genCmd.Flags().StringVar(&destinationName, "destination-name", "",
		"local name for the generated destination")
	genCmd.MarkFlagRequired("destination-name")

	cmd.AddCommand(genCmd)
	return cmd
}
