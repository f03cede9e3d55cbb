// Package config manages the eepproxy configuration file.
//
// A single YAML document carries the generated destinations, the SAM
// bridge endpoint, and the server and proxy records. Loading goes through
// koanf; saving marshals with yaml.v3.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Configuration errors.
var (
	// ErrDestinationNotFound indicates no destination with the requested
	// name exists in the configuration.
	ErrDestinationNotFound = errors.New("destination not found")

	// ErrTunnelNotFound indicates no tunnel with the requested name
	// exists in the server record.
	ErrTunnelNotFound = errors.New("tunnel not found")

	// ErrDestinationExists indicates a destination with the requested
	// name is already present.
	ErrDestinationExists = errors.New("destination already exists")
)

// DefaultSAMEndpoint is the standard local SAM bridge address.
const DefaultSAMEndpoint = "127.0.0.1:7656"

// Config is the root of the persisted configuration.
type Config struct {
	// Destinations are the generated keypairs, addressed by local name.
	Destinations []Destination `koanf:"destinations" yaml:"destinations"`

	// Proxy configures the relay client: a local TCP listener forwarding
	// to a remote destination.
	Proxy Proxy `koanf:"proxy" yaml:"proxy"`

	// SAM configures how to reach the bridge.
	SAM SAM `koanf:"sam" yaml:"sam"`

	// Server configures the reverse proxy: a destination listener
	// forwarding to a TCP service.
	Server Server `koanf:"server" yaml:"server"`
}

// Destination is a generated keypair for an overlay identity. The keys
// are opaque base64 strings produced by the bridge; Name exists only in
// the configuration file and is never transmitted.
type Destination struct {
	PublicKey string `koanf:"public_key" yaml:"public_key"`
	SecretKey string `koanf:"secret_key" yaml:"secret_key"`
	Name      string `koanf:"name" yaml:"name"`
}

// Proxy configures the relay client side. ListenAddress, when set, is
// where the client accepts its one local connection. ForwardAddress is
// stored in the file but not read: the client dials the destination
// passed to it.
type Proxy struct {
	ListenAddress  string `koanf:"listen_address" yaml:"listen_address"`
	ForwardAddress string `koanf:"forward_address" yaml:"forward_address"`
}

// SAM locates the bridge.
type SAM struct {
	Endpoint string `koanf:"endpoint" yaml:"endpoint"`
}

// Server configures the reverse proxy side. The proxy reads Tunnels and
// MetricsAddress; it forwards to the address passed to it at start, and
// ListenAddress, ForwardAddress and the key fields are stored in the
// file but not read.
type Server struct {
	ListenAddress  string `koanf:"listen_address" yaml:"listen_address"`
	ForwardAddress string `koanf:"forward_address" yaml:"forward_address"`
	PrivateKey     string `koanf:"private_key" yaml:"private_key"`
	PublicKey      string `koanf:"public_key" yaml:"public_key"`

	// MetricsAddress enables the Prometheus endpoint when non-empty.
	MetricsAddress string `koanf:"metrics_address" yaml:"metrics_address"`

	// Tunnels are the tunnel profiles the server may run under.
	Tunnels []Tunnel `koanf:"tunnels" yaml:"tunnels"`
}

// Default returns a configuration with the standard SAM endpoint and a
// single balanced tunnel profile, ready to be written with Save.
func Default() *Config {
	return &Config{
		SAM: SAM{Endpoint: DefaultSAMEndpoint},
		Server: Server{
			Tunnels: []Tunnel{DefaultTunnel()},
		},
	}
}

// Load reads and decodes the configuration file at path.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if cfg.SAM.Endpoint == "" {
		cfg.SAM.Endpoint = DefaultSAMEndpoint
	}
	return &cfg, nil
}

// Save writes the configuration to path as YAML. The file is created
// mode 0600: it holds secret keys.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// DestinationByName returns the named destination record.
func (c *Config) DestinationByName(name string) (Destination, error) {
	for _, dest := range c.Destinations {
		if dest.Name == name {
			return dest, nil
		}
	}
	return Destination{}, fmt.Errorf("%w: %q", ErrDestinationNotFound, name)
}

// AddDestination appends a destination, rejecting duplicate names.
func (c *Config) AddDestination(dest Destination) error {
	if _, err := c.DestinationByName(dest.Name); err == nil {
		return fmt.Errorf("%w: %q", ErrDestinationExists, dest.Name)
	}
	c.Destinations = append(c.Destinations, dest)
	return nil
}

// TunnelByName returns the named tunnel profile from the server record.
func (s *Server) TunnelByName(name string) (Tunnel, error) {
	for _, tunnel := range s.Tunnels {
		if tunnel.Name == name {
			return tunnel, nil
		}
	}
	return Tunnel{}, fmt.Errorf("%w: %q", ErrTunnelNotFound, name)
}
