// Package commands wires the eepproxy CLI: config management, destination
// utilities, the servers, and the relay client.
package commands

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// configPath is the configuration file every subcommand works on.
	configPath string

	// debug raises the log level.
	debug bool

	// log is the process logger, shared by all subcommands.
	log = logrus.New()
)

// rootCmd is the top-level cobra command.
var rootCmd = &cobra.Command{
	Use:   "eepproxy",
	Short: "VDF-gated reverse proxy and relay client for I2P",
	Long: "eepproxy registers destinations on an I2P network through a local SAM\n" +
		"bridge and splices admitted overlay streams onto TCP services. Inbound\n" +
		"connections must solve a verifiable delay function before any\n" +
		"application data flows.",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		log.SetOutput(os.Stdout)
		if debug {
			log.SetLevel(logrus.DebugLevel)
			log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		} else {
			log.SetLevel(logrus.InfoLevel)
		}
	},
	// Silence cobra's built-in usage/error printing so we control it.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml",
		"path to the configuration file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"enable debug logging")

	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(utilsCmd())
	rootCmd.AddCommand(serverCmd())
	rootCmd.AddCommand(clientCmd())
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
