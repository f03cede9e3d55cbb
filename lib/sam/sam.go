package sam

import (
	"fmt"
	"net"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/go-i2p/go-eepproxy/lib/protocol"
)

// samVersion is the protocol version negotiated with the bridge.
const samVersion = "3.1"

// SignatureType is the algorithm requested for new destinations.
const SignatureType = "EdDSA_SHA512_Ed25519"

// maxReplyLine bounds a single reply line from the bridge. Destination
// keys dominate; 8 KiB covers the largest DEST REPLY with headroom.
const maxReplyLine = 8192

// lookupCacheSize bounds the naming-lookup cache. Lookups are immutable
// for the lifetime of a process talking to one bridge.
const lookupCacheSize = 128

// SAM is a control connection to the bridge, used for destination
// generation and naming lookups. Sessions and streams open their own
// connections; see NewSession and Session.Dial.
type SAM struct {
	endpoint string
	conn     net.Conn
	lookups  *lru.Cache[string, string]
}

// NewSAM dials the bridge at endpoint and performs the HELLO handshake.
func NewSAM(endpoint string) (*SAM, error) {
	conn, err := dialBridge(endpoint)
	if err != nil {
		return nil, err
	}

	cache, err := lru.New[string, string](lookupCacheSize)
	if err != nil {
		conn.Close()
		return nil, bridgeErr(endpoint, "hello", err)
	}
	return &SAM{endpoint: endpoint, conn: conn, lookups: cache}, nil
}

// dialBridge opens a TCP connection to the bridge and negotiates the
// protocol version. Every session and stream goes through here.
func dialBridge(endpoint string) (net.Conn, error) {
	conn, err := net.Dial("tcp", endpoint)
	if err != nil {
		return nil, bridgeErr(endpoint, "dial", err)
	}

	hello := protocol.NewCommand("HELLO").WithAction("VERSION").
		With("MIN", samVersion).
		With("MAX", samVersion)
	reply, err := roundTrip(conn, hello)
	if err != nil {
		conn.Close()
		return nil, bridgeErr(endpoint, "hello", err)
	}
	if !reply.Ok() {
		conn.Close()
		return nil, bridgeErr(endpoint, "hello", protocol.ResultError(reply.Result()))
	}
	return conn, nil
}

// GenerateDestination asks the bridge for a fresh destination keypair.
// Returns the public and private keys as opaque base64 strings.
func (s *SAM) GenerateDestination() (pub, priv string, err error) {
	cmd := protocol.NewCommand("DEST").WithAction("GENERATE").
		With("SIGNATURE_TYPE", SignatureType)
	reply, err := roundTrip(s.conn, cmd)
	if err != nil {
		return "", "", bridgeErr(s.endpoint, "dest generate", err)
	}

	pub, okPub := reply.Value("PUB")
	priv, okPriv := reply.Value("PRIV")
	if !okPub || !okPriv {
		return "", "", bridgeErr(s.endpoint, "dest generate",
			fmt.Errorf("reply missing keys: %s", reply.Raw))
	}
	return pub, priv, nil
}

// Lookup resolves a name to a destination through the bridge's naming
// service. Results are cached; the overlay treats name bindings as
// stable for the lifetime of a bridge connection.
func (s *SAM) Lookup(name string) (string, error) {
	if value, ok := s.lookups.Get(name); ok {
		return value, nil
	}

	cmd := protocol.NewCommand("NAMING").WithAction("LOOKUP").
		With("NAME", name)
	reply, err := roundTrip(s.conn, cmd)
	if err != nil {
		return "", bridgeErr(s.endpoint, "naming lookup", err)
	}
	if !reply.Ok() {
		return "", bridgeErr(s.endpoint, "naming lookup", protocol.ResultError(reply.Result()))
	}

	value, ok := reply.Value("VALUE")
	if !ok {
		return "", bridgeErr(s.endpoint, "naming lookup",
			fmt.Errorf("reply missing VALUE: %s", reply.Raw))
	}
	s.lookups.Add(name, value)
	return value, nil
}

// Endpoint returns the bridge address this control connection talks to.
func (s *SAM) Endpoint() string {
	return s.endpoint
}

// Close closes the control connection. Sessions and streams created
// through this bridge are unaffected; they own their own sockets.
func (s *SAM) Close() error {
	return s.conn.Close()
}

// roundTrip writes one command and reads one reply line.
func roundTrip(conn net.Conn, cmd *protocol.Command) (*protocol.Reply, error) {
	if err := writeFull(conn, cmd.Bytes()); err != nil {
		return nil, err
	}
	line, err := readLine(conn)
	if err != nil {
		return nil, err
	}
	return protocol.ParseReply(line)
}

// writeFull writes the whole buffer, failing on a short write.
func writeFull(conn net.Conn, data []byte) error {
	for len(data) > 0 {
		n, err := conn.Write(data)
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// readLine reads a newline-terminated reply one byte at a time. The
// bridge interleaves reply lines and stream payload on the same socket,
// so reading past the newline would swallow payload bytes; byte-wise
// reads keep the socket exactly positioned.
func readLine(conn net.Conn) (string, error) {
	var line []byte
	var b [1]byte
	for {
		if _, err := conn.Read(b[:]); err != nil {
			return "", err
		}
		if b[0] == '\n' {
			return string(line), nil
		}
		line = append(line, b[0])
		if len(line) > maxReplyLine {
			return "", ErrReplyTooLong
		}
	}
}
