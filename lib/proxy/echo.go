package proxy

import (
	"io"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/go-i2p/go-eepproxy/lib/config"
	"github.com/go-i2p/go-eepproxy/lib/sam"
)

// EchoServer registers a destination and echoes every accepted overlay
// stream back at the peer; no admission handshake runs. It is the connectivity smoke test for a
// freshly generated destination.
type EchoServer struct {
	cfg *config.Config
	log *logrus.Logger
}

// NewEchoServer creates an overlay echo server.
func NewEchoServer(cfg *config.Config, log *logrus.Logger) *EchoServer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &EchoServer{cfg: cfg, log: log}
}

// Start creates the session and echoes accepted streams until an accept
// failure survives a re-bind.
func (e *EchoServer) Start(tunnelName, destName string) error {
	tunnel, err := e.cfg.Server.TunnelByName(tunnelName)
	if err != nil {
		return err
	}
	dest, err := e.cfg.DestinationByName(destName)
	if err != nil {
		return err
	}

	nickname, err := sam.Nickname()
	if err != nil {
		return err
	}
	session, err := sam.NewSession(e.cfg.SAM.Endpoint, dest.SecretKey, nickname,
		sam.StyleStream, tunnel.SessionOptions())
	if err != nil {
		return err
	}
	defer session.Close()

	listener, err := session.Listen()
	if err != nil {
		return err
	}
	e.log.WithField("destination", listener.Addr()).
		Info("echo server waiting for overlay connections")

	for {
		stream, peer, err := listener.Accept()
		if err != nil {
			e.log.WithError(err).Warn("accept failed, re-binding listener")
			listener, err = session.Listen()
			if err != nil {
				return &ListenerError{Err: err}
			}
			continue
		}

		go func() {
			e.log.WithField("peer", abbreviate(peer)).Info("echoing connection")
			n, err := io.Copy(stream, stream)
			if err != nil {
				e.log.WithError(err).Info("echo ended with error")
			}
			stream.Shutdown()
			e.log.WithField("bytes", n).Info("echo complete")
		}()
	}
}

// TCPEchoServer is a plain local TCP echo, the standard backend when
// exercising the reverse proxy end to end.
type TCPEchoServer struct {
	log *logrus.Logger
}

// NewTCPEchoServer creates a local TCP echo server.
func NewTCPEchoServer(log *logrus.Logger) *TCPEchoServer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &TCPEchoServer{log: log}
}

// Start listens on addr and echoes every connection until the listener
// fails.
func (e *TCPEchoServer) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return e.Serve(listener)
}

// Serve echoes connections accepted from listener until it fails or is
// closed.
func (e *TCPEchoServer) Serve(listener net.Listener) error {
	defer listener.Close()
	e.log.WithField("addr", listener.Addr().String()).Info("tcp echo listening")

	for {
		conn, err := listener.Accept()
		if err != nil {
			return err
		}
		go func() {
			defer conn.Close()
			n, err := io.Copy(conn, conn)
			if err != nil {
				e.log.WithError(err).Info("echo ended with error")
				return
			}
			e.log.WithField("bytes", n).Info("echo complete")
		}()
	}
}
