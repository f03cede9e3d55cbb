package sam

import (
	"strings"

	"github.com/go-i2p/go-eepproxy/lib/protocol"
)

// Listener accepts inbound overlay streams for a STREAM session. Each
// Accept opens a dedicated data connection to the bridge, parks a
// STREAM ACCEPT on it, and blocks until a peer arrives. The listener
// itself holds no socket, so re-binding after a failed accept is just a
// fresh Listener over the same session.
type Listener struct {
	session *Session
}

// Addr returns the local destination the listener is reachable at.
func (l *Listener) Addr() string {
	return l.session.Destination()
}

// Accept blocks until a peer connects, then returns the stream and the
// peer's destination. The bridge announces the peer by writing its
// destination line before handing over the payload; everything after
// that newline belongs to the stream.
func (l *Listener) Accept() (*StreamConn, string, error) {
	endpoint := l.session.endpoint

	conn, err := dialBridge(endpoint)
	if err != nil {
		return nil, "", err
	}

	cmd := protocol.NewCommand("STREAM").WithAction("ACCEPT").
		With("ID", l.session.nickname).
		With("SILENT", "false")
	reply, err := roundTrip(conn, cmd)
	if err != nil {
		conn.Close()
		return nil, "", bridgeErr(endpoint, "stream accept", err)
	}
	if !reply.Ok() {
		conn.Close()
		return nil, "", bridgeErr(endpoint, "stream accept", protocol.ResultError(reply.Result()))
	}

	// Block until a peer connects; the bridge then sends one line
	// carrying the peer destination (and FROM_PORT/TO_PORT on 3.2+).
	peerLine, err := readLine(conn)
	if err != nil {
		conn.Close()
		return nil, "", bridgeErr(endpoint, "stream accept", err)
	}
	peer := parsePeerDestination(peerLine)

	stream, err := newStreamConn(conn, l.session.dest, peer)
	if err != nil {
		return nil, "", bridgeErr(endpoint, "stream accept", err)
	}
	return stream, peer, nil
}

// parsePeerDestination extracts the destination from the accept
// announcement line. SAM 3.1 sends the bare base64 destination; 3.2+
// may append KEY=VALUE pairs after it.
func parsePeerDestination(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
