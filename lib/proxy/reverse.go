package proxy

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/go-i2p/go-eepproxy/lib/admission"
	"github.com/go-i2p/go-eepproxy/lib/config"
	"github.com/go-i2p/go-eepproxy/lib/metrics"
	"github.com/go-i2p/go-eepproxy/lib/sam"
)

// OverlayStream is the surface the supervisor needs from an accepted
// stream: the handshake I/O plus the one-shot socket takeover.
// *sam.StreamConn satisfies it.
type OverlayStream interface {
	admission.Stream

	// Detach yields the underlying TCP socket, rendering the stream
	// wrapper unusable.
	Detach() (*net.TCPConn, error)

	// Shutdown closes both halves of the stream.
	Shutdown() error
}

// OverlayListener accepts overlay streams. *sam.Listener is adapted to
// it via Server.Start; tests substitute fakes.
type OverlayListener interface {
	Accept() (OverlayStream, string, error)
	Addr() string
}

// samListener adapts *sam.Listener to OverlayListener.
type samListener struct {
	inner *sam.Listener
}

func (l samListener) Accept() (OverlayStream, string, error) {
	return l.inner.Accept()
}

func (l samListener) Addr() string {
	return l.inner.Addr()
}

// Server is the reverse proxy supervisor: it owns the session and
// listener and spawns one handler per accepted stream. Configuration is
// immutable after construction; handlers capture only what they need.
type Server struct {
	cfg  *config.Config
	log  *logrus.Logger
	gate *admission.Gatekeeper
	met  *metrics.Collector
}

// NewServer creates a reverse proxy supervisor over the given
// configuration. A nil logger falls back to the logrus standard logger;
// metrics may be nil to disable instrumentation.
func NewServer(cfg *config.Config, log *logrus.Logger, met *metrics.Collector) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		cfg:  cfg,
		log:  log,
		gate: &admission.Gatekeeper{},
		met:  met,
	}
}

// Start resolves the named tunnel and destination, creates the SAM
// session, binds the overlay listener and serves until a fatal listener
// failure. Per-connection failures never propagate here.
func (s *Server) Start(tunnelName, destName, forwardAddr string) error {
	tunnel, err := s.cfg.Server.TunnelByName(tunnelName)
	if err != nil {
		return err
	}
	dest, err := s.cfg.DestinationByName(destName)
	if err != nil {
		return err
	}

	nickname, err := sam.Nickname()
	if err != nil {
		return err
	}
	session, err := sam.NewSession(s.cfg.SAM.Endpoint, dest.SecretKey, nickname,
		sam.StyleStream, tunnel.SessionOptions())
	if err != nil {
		return err
	}
	defer session.Close()

	listener, err := session.Listen()
	if err != nil {
		return err
	}

	if s.cfg.Server.MetricsAddress != "" && s.met != nil {
		s.serveMetrics(s.cfg.Server.MetricsAddress)
	}

	rebind := func() (OverlayListener, error) {
		l, err := session.Listen()
		if err != nil {
			return nil, err
		}
		return samListener{inner: l}, nil
	}
	return s.Serve(samListener{inner: listener}, rebind, forwardAddr)
}

// Serve runs the accept loop. On an accept error the listener is
// re-bound against the same session; a failed re-bind is fatal. Every
// accepted stream gets its own goroutine so a peer taking the full
// handshake window never stalls the loop.
func (s *Server) Serve(listener OverlayListener, rebind func() (OverlayListener, error), forwardAddr string) error {
	s.log.WithField("destination", listener.Addr()).
		Info("reverse proxy listening for overlay connections")

	for {
		stream, peer, err := listener.Accept()
		if err != nil {
			s.log.WithError(err).Warn("accept failed, re-binding listener")
			listener, err = rebind()
			if err != nil {
				return &ListenerError{Err: err}
			}
			continue
		}

		s.met.ConnectionAccepted()
		go s.handle(stream, peer, forwardAddr)
	}
}

// handle runs admission, adaptation and the splice for one stream. All
// failures are contained: logged, the sockets shut down, the goroutine
// ends.
func (s *Server) handle(stream OverlayStream, peer string, forwardAddr string) {
	log := s.log.WithField("peer", abbreviate(peer))
	log.Info("accepted overlay connection")

	puzzle, err := s.gate.Admit(stream)
	if err != nil {
		log.WithError(err).WithField("state", admissionState(err)).
			Warn("admission failed")
		s.met.AdmissionFailed(admissionState(err))
		stream.Shutdown()
		return
	}
	log.WithField("steps", puzzle.Steps).Info("witness verified")
	s.met.AdmissionVerified()

	conn, err := stream.Detach()
	if err != nil {
		adapterErr := &AdapterError{Err: err}
		log.WithError(adapterErr).Warn("stream adaptation failed")
		stream.Shutdown()
		return
	}

	backend, err := net.DialTimeout("tcp", forwardAddr, backendDialTimeout)
	if err != nil {
		connectErr := &BackendConnectError{Addr: forwardAddr, Err: err}
		log.WithError(connectErr).Warn("backend unavailable")
		conn.Close()
		return
	}

	log.WithField("backend", forwardAddr).Info("splicing")
	toBackend, toOverlay, err := Splice(conn, backend)
	if err != nil {
		log.WithError(err).Info("splice direction ended with error")
	}
	conn.Close()
	backend.Close()
	s.met.SpliceCompleted(toBackend, toOverlay)
	log.WithFields(logrus.Fields{
		"to_backend": toBackend,
		"to_overlay": toOverlay,
	}).Info("splice complete")
}

// serveMetrics exposes the Prometheus endpoint in the background.
func (s *Server) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.met.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			s.log.WithError(err).Warn("metrics endpoint failed")
		}
	}()
	s.log.WithField("addr", addr).Info("metrics endpoint up")
}

// backendDialTimeout bounds the backend connect for an admitted stream.
const backendDialTimeout = 10 * time.Second

// admissionState names the handshake phase an error belongs to, for
// logs and metrics labels.
func admissionState(err error) string {
	switch {
	case isKind[*admission.PreludeError](err):
		return admission.StatePrelude.String()
	case isKind[*admission.ChallengeError](err):
		return admission.StateChallenge.String()
	case isKind[*admission.WitnessError](err):
		return admission.StateAwaitWitness.String()
	default:
		return "verification"
	}
}

// isKind reports whether err wraps an error of the given pointer type.
func isKind[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

// abbreviate shortens a base64 destination for log lines.
func abbreviate(dest string) string {
	if len(dest) <= 16 {
		return dest
	}
	return dest[:16] + "..."
}
