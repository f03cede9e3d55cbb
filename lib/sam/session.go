package sam

import (
	"crypto/rand"
	"net"

	"github.com/go-i2p/go-eepproxy/lib/protocol"
)

// SessionStyle selects the session type at the bridge.
type SessionStyle string

// Session styles per SAMv3.md. Only STREAM is used by the relay.
const (
	StyleStream   SessionStyle = "STREAM"
	StyleDatagram SessionStyle = "DATAGRAM"
	StyleRaw      SessionStyle = "RAW"
)

// TransientDestination asks the bridge to generate a throwaway keypair
// for the session instead of supplying one.
const TransientDestination = "TRANSIENT"

// nicknameLength is the length of generated session nicknames.
const nicknameLength = 16

// nicknameAlphabet is the character set for generated nicknames.
const nicknameAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Session is a live session at the bridge. The control connection held
// here keeps the session (and its leaseset) alive; closing it tears the
// session down. One session backs at most one listener.
type Session struct {
	endpoint string
	nickname string
	style    SessionStyle
	dest     string // full destination, base64, as reported by the bridge
	control  net.Conn
}

// Nickname returns a fresh 16-character alphanumeric session nickname.
func Nickname() (string, error) {
	raw := make([]byte, nicknameLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	for i, b := range raw {
		raw[i] = nicknameAlphabet[int(b)%len(nicknameAlphabet)]
	}
	return string(raw), nil
}

// NewSession creates a session at the bridge. The secret key identifies
// the destination (the bridge reuses its leaseset); pass
// TransientDestination for a throwaway identity. Options are SESSION
// CREATE option pairs, typically from config.Tunnel.SessionOptions.
// Fails when the bridge is unreachable or rejects the key.
func NewSession(endpoint, secretKey, nickname string, style SessionStyle, options []string) (*Session, error) {
	conn, err := dialBridge(endpoint)
	if err != nil {
		return nil, err
	}

	cmd := protocol.NewCommand("SESSION").WithAction("CREATE").
		With("STYLE", string(style)).
		With("ID", nickname).
		With("DESTINATION", secretKey)
	for _, opt := range options {
		if key, value, found := cutOption(opt); found {
			cmd.With(key, value)
		}
	}

	reply, err := roundTrip(conn, cmd)
	if err != nil {
		conn.Close()
		return nil, bridgeErr(endpoint, "session create", err)
	}
	if !reply.Ok() {
		conn.Close()
		return nil, bridgeErr(endpoint, "session create", protocol.ResultError(reply.Result()))
	}

	dest, _ := reply.Value("DESTINATION")
	return &Session{
		endpoint: endpoint,
		nickname: nickname,
		style:    style,
		dest:     dest,
		control:  conn,
	}, nil
}

// Nickname returns the session's bridge-side identifier.
func (s *Session) Nickname() string {
	return s.nickname
}

// Style returns the session style.
func (s *Session) Style() SessionStyle {
	return s.style
}

// Endpoint returns the bridge address backing this session.
func (s *Session) Endpoint() string {
	return s.endpoint
}

// Destination returns the session's full destination as reported by the
// bridge on creation. For sessions created from a stored secret key this
// is the matching public destination.
func (s *Session) Destination() string {
	return s.dest
}

// Listen binds an overlay listener against this session. Only STREAM
// sessions can listen. Re-binding after an accept failure constructs a
// fresh listener over the same live session.
func (s *Session) Listen() (*Listener, error) {
	if s.style != StyleStream {
		return nil, bridgeErr(s.endpoint, "listen", ErrNotStreamSession)
	}
	return &Listener{session: s}, nil
}

// Dial opens an outbound stream to the given destination through this
// session. The returned stream rides its own data connection.
func (s *Session) Dial(destination string) (*StreamConn, error) {
	conn, err := dialBridge(s.endpoint)
	if err != nil {
		return nil, err
	}

	cmd := protocol.NewCommand("STREAM").WithAction("CONNECT").
		With("ID", s.nickname).
		With("DESTINATION", destination).
		With("SILENT", "false")
	reply, err := roundTrip(conn, cmd)
	if err != nil {
		conn.Close()
		return nil, bridgeErr(s.endpoint, "stream connect", err)
	}
	if !reply.Ok() {
		conn.Close()
		return nil, bridgeErr(s.endpoint, "stream connect", protocol.ResultError(reply.Result()))
	}

	return newStreamConn(conn, s.dest, destination)
}

// Close tears the session down at the bridge.
func (s *Session) Close() error {
	return s.control.Close()
}

// cutOption splits a "key=value" option pair.
func cutOption(opt string) (key, value string, found bool) {
	for i := 0; i < len(opt); i++ {
		if opt[i] == '=' {
			return opt[:i], opt[i+1:], true
		}
	}
	return "", "", false
}
