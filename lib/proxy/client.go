package proxy

import (
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/go-i2p/go-eepproxy/lib/admission"
	"github.com/go-i2p/go-eepproxy/lib/config"
	"github.com/go-i2p/go-eepproxy/lib/sam"
)

// Client is the relay counterpart: it dials a destination, solves the
// admission puzzle, and bridges the resulting overlay stream to exactly
// one local TCP connection. One invocation serves one connection; the
// client is a per-session bridge, not a long-lived multiplexer.
type Client struct {
	cfg *config.Config
	log *logrus.Logger
}

// NewClient creates a relay client over the given configuration.
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{cfg: cfg, log: log}
}

// Run connects to destination, passes admission, then exposes the
// stream on a local listener and splices the first accepted local
// connection to it. Returns once the splice ends.
func (c *Client) Run(destination string) error {
	nickname, err := sam.Nickname()
	if err != nil {
		return err
	}
	session, err := sam.NewSession(c.cfg.SAM.Endpoint, sam.TransientDestination,
		nickname, sam.StyleStream, nil)
	if err != nil {
		return err
	}
	defer session.Close()

	c.log.WithField("destination", abbreviate(destination)).Info("dialing destination")
	stream, err := session.Dial(destination)
	if err != nil {
		return err
	}

	start := time.Now()
	c.log.Info("solving admission puzzle")
	puzzle, _, err := admission.Solve(stream)
	if err != nil {
		stream.Shutdown()
		return err
	}
	c.log.WithFields(logrus.Fields{
		"steps":   puzzle.Steps,
		"elapsed": time.Since(start).Round(time.Millisecond).String(),
	}).Info("puzzle solved")

	conn, err := stream.Detach()
	if err != nil {
		stream.Shutdown()
		return &AdapterError{Err: err}
	}

	local, err := net.Listen("tcp", c.listenAddress())
	if err != nil {
		conn.Close()
		return err
	}
	c.log.WithField("addr", local.Addr().String()).Info("listening for one local connection")

	localConn, err := local.Accept()
	local.Close()
	if err != nil {
		conn.Close()
		return err
	}

	toLocal, toRemote, err := Splice(conn, localConn)
	if err != nil {
		c.log.WithError(err).Info("splice direction ended with error")
	}
	conn.Close()
	localConn.Close()
	c.log.WithFields(logrus.Fields{
		"to_local":  toLocal,
		"to_remote": toRemote,
	}).Info("splice complete")
	return nil
}

// listenAddress returns the local bind address: the configured proxy
// listen address, or an ephemeral loopback port.
func (c *Client) listenAddress() string {
	if c.cfg.Proxy.ListenAddress != "" {
		return c.cfg.Proxy.ListenAddress
	}
	return "127.0.0.1:0"
}
