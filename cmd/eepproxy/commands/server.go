package commands

import (
	"github.com/spf13/cobra"

	"github.com/go-i2p/go-eepproxy/lib/config"
	"github.com/go-i2p/go-eepproxy/lib/metrics"
	"github.com/go-i2p/go-eepproxy/lib/proxy"
)

// serverCmd groups the server-side subcommands.
func serverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Server-side services",
	}

	cmd.AddCommand(echoServerCmd())
	cmd.AddCommand(tcpEchoServerCmd())
	cmd.AddCommand(reverseProxyCmd())
	return cmd
}

// echoServerCmd starts the overlay echo server.
func echoServerCmd() *cobra.Command {
	var destinationName, tunnelName string
	cmd := &cobra.Command{
		Use:   "echo",
		Short: "Run an overlay echo server on a registered destination",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return proxy.NewEchoServer(cfg, log).Start(tunnelName, destinationName)
		},
	}
	cmd.Flags().StringVar(&destinationName, "destination-name", "",
		"destination to register")
	cmd.Flags().StringVar(&tunnelName, "tunnel-name", "",
		"tunnel profile to run under")
	cmd.MarkFlagRequired("destination-name")
	cmd.MarkFlagRequired("tunnel-name")
	return cmd
}

// tcpEchoServerCmd starts a plain local TCP echo.
func tcpEchoServerCmd() *cobra.Command {
	var listenIP string
	cmd := &cobra.Command{
		Use:   "tcp-echo",
		Short: "Run a local TCP echo server",
		RunE: func(_ *cobra.Command, _ []string) error {
			return proxy.NewTCPEchoServer(log).Start(listenIP)
		},
	}
	cmd.Flags().StringVar(&listenIP, "listen-ip", "127.0.0.1:9000",
		"address to listen on")
	return cmd
}

// reverseProxyCmd starts the VDF-gated reverse proxy.
func reverseProxyCmd() *cobra.Command {
	var destinationName, tunnelName, forwardIP string
	var nonblocking bool
	cmd := &cobra.Command{
		Use:   "reverse-proxy",
		Short: "Forward admitted overlay streams to a TCP service",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			srv := proxy.NewServer(cfg, log, metrics.NewCollector())
			return srv.Start(tunnelName, destinationName, forwardIP)
		},
	}
	cmd.Flags().StringVar(&destinationName, "destination-name", "",
		"destination to register")
	cmd.Flags().StringVar(&tunnelName, "tunnel-name", "",
		"tunnel profile to run under")
	cmd.Flags().StringVar(&forwardIP, "forward-ip", "",
		"address:port of the TCP service to forward to")
	cmd.Flags().BoolVar(&nonblocking, "nonblocking", false,
		"retained for compatibility; streams are always handled concurrently")
	cmd.MarkFlagRequired("destination-name")
	cmd.MarkFlagRequired("tunnel-name")
	cmd.MarkFlagRequired("forward-ip")
	return cmd
}
