package sam

import (
	"bufio"
	"errors"
	"net"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-i2p/go-eepproxy/lib/protocol"
)

// fakeBridge is a minimal in-process SAM bridge speaking just enough of
// the wire grammar to exercise the facade.
type fakeBridge struct {
	t        *testing.T
	listener net.Listener
	lookups  atomic.Int64

	// rejectSessions makes SESSION CREATE fail with INVALID_KEY.
	rejectSessions bool

	// peerDest is announced on STREAM ACCEPT, followed by payload.
	peerDest string

	// payload is written after the accept announcement.
	payload string
}

func newFakeBridge(t *testing.T) *fakeBridge {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	b := &fakeBridge{t: t, listener: listener, peerDest: "peerdest64"}
	go b.serve()
	t.Cleanup(func() { listener.Close() })
	return b
}

func (b *fakeBridge) addr() string {
	return b.listener.Addr().String()
}

func (b *fakeBridge) serve() {
	for {
		conn, err := b.listener.Accept()
		if err != nil {
			return
		}
		go b.handle(conn)
	}
}

func (b *fakeBridge) handle(conn net.Conn) {
	defer conn.Close()
	rd := bufio.NewReader(conn)
	for {
		line, err := rd.ReadString('\n')
		if err != nil {
			return
		}
		reply, err := protocol.ParseReply(line)
		if err != nil {
			return
		}

		switch reply.Verb + " " + reply.Action {
		case "HELLO VERSION":
			conn.Write([]byte("HELLO REPLY RESULT=OK VERSION=3.1\n"))
		case "DEST GENERATE":
			conn.Write([]byte("DEST REPLY PUB=generatedpub64 PRIV=generatedpriv64\n"))
		case "NAMING LOOKUP":
			b.lookups.Add(1)
			name, _ := reply.Value("NAME")
			if name == "missing.i2p" {
				conn.Write([]byte("NAMING REPLY RESULT=KEY_NOT_FOUND NAME=" + name + "\n"))
				continue
			}
			conn.Write([]byte("NAMING REPLY RESULT=OK NAME=" + name + " VALUE=resolved64\n"))
		case "SESSION CREATE":
			if b.rejectSessions {
				conn.Write([]byte("SESSION STATUS RESULT=INVALID_KEY\n"))
				continue
			}
			conn.Write([]byte("SESSION STATUS RESULT=OK DESTINATION=sessiondest64\n"))
		case "STREAM CONNECT":
			conn.Write([]byte("STREAM STATUS RESULT=OK\n"))
			// Echo one line of payload back.
			echo, err := rd.ReadString('\n')
			if err != nil {
				return
			}
			conn.Write([]byte(echo))
			return
		case "STREAM ACCEPT":
			conn.Write([]byte("STREAM STATUS RESULT=OK\n"))
			conn.Write([]byte(b.peerDest + " FROM_PORT=0 TO_PORT=0\n"))
			if b.payload != "" {
				conn.Write([]byte(b.payload))
			}
			return
		default:
			b.t.Errorf("fake bridge got unexpected command: %q", strings.TrimSpace(line))
			return
		}
	}
}

func TestNewSAM_Hello(t *testing.T) {
	bridge := newFakeBridge(t)

	client, err := NewSAM(bridge.addr())
	if err != nil {
		t.Fatalf("NewSAM: %v", err)
	}
	defer client.Close()

	if client.Endpoint() != bridge.addr() {
		t.Errorf("Endpoint = %q, want %q", client.Endpoint(), bridge.addr())
	}
}

func TestNewSAM_Unreachable(t *testing.T) {
	// A listener that is immediately closed yields a dead address.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := listener.Addr().String()
	listener.Close()

	if _, err := NewSAM(addr); err == nil {
		t.Error("NewSAM to a dead bridge succeeded")
	}
}

func TestGenerateDestination(t *testing.T) {
	bridge := newFakeBridge(t)
	client, err := NewSAM(bridge.addr())
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	pub, priv, err := client.GenerateDestination()
	if err != nil {
		t.Fatalf("GenerateDestination: %v", err)
	}
	if pub != "generatedpub64" || priv != "generatedpriv64" {
		t.Errorf("keys = (%q, %q)", pub, priv)
	}
}

func TestLookup_CachesResults(t *testing.T) {
	bridge := newFakeBridge(t)
	client, err := NewSAM(bridge.addr())
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	for i := 0; i < 3; i++ {
		value, err := client.Lookup("service.i2p")
		if err != nil {
			t.Fatalf("Lookup #%d: %v", i, err)
		}
		if value != "resolved64" {
			t.Errorf("Lookup #%d = %q", i, value)
		}
	}

	if got := bridge.lookups.Load(); got != 1 {
		t.Errorf("bridge saw %d lookups, want 1 (cache miss only)", got)
	}
}

func TestLookup_NotFound(t *testing.T) {
	bridge := newFakeBridge(t)
	client, err := NewSAM(bridge.addr())
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	if _, err := client.Lookup("missing.i2p"); !errors.Is(err, protocol.ErrKeyNotFound) {
		t.Errorf("Lookup error = %v, want ErrKeyNotFound", err)
	}
}

func TestNewSession(t *testing.T) {
	bridge := newFakeBridge(t)

	nick, err := Nickname()
	if err != nil {
		t.Fatal(err)
	}
	session, err := NewSession(bridge.addr(), "secret64", nick, StyleStream, []string{"inbound.length=1"})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer session.Close()

	if session.Destination() != "sessiondest64" {
		t.Errorf("Destination = %q", session.Destination())
	}
	if session.Nickname() != nick {
		t.Errorf("Nickname = %q, want %q", session.Nickname(), nick)
	}
}

func TestNewSession_RejectedKey(t *testing.T) {
	bridge := newFakeBridge(t)
	bridge.rejectSessions = true

	_, err := NewSession(bridge.addr(), "bad", "nickname123", StyleStream, nil)
	if !errors.Is(err, protocol.ErrInvalidKey) {
		t.Errorf("NewSession error = %v, want ErrInvalidKey", err)
	}

	var bridgeErr *BridgeError
	if !errors.As(err, &bridgeErr) {
		t.Errorf("error %v is not a *BridgeError", err)
	}
}

func TestSession_Listen_RequiresStreamStyle(t *testing.T) {
	bridge := newFakeBridge(t)

	session, err := NewSession(bridge.addr(), "secret64", "nickname123", StyleDatagram, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer session.Close()

	if _, err := session.Listen(); !errors.Is(err, ErrNotStreamSession) {
		t.Errorf("Listen error = %v, want ErrNotStreamSession", err)
	}
}

func TestSession_Dial_Echo(t *testing.T) {
	bridge := newFakeBridge(t)

	session, err := NewSession(bridge.addr(), TransientDestination, "nickname123", StyleStream, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer session.Close()

	stream, err := session.Dial("remotedest64")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer stream.Close()

	if stream.RemoteDest() != "remotedest64" {
		t.Errorf("RemoteDest = %q", stream.RemoteDest())
	}

	if _, err := stream.Write([]byte("ping\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	buf := make([]byte, 16)
	n, err := stream.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != "ping\n" {
		t.Errorf("echo = %q", buf[:n])
	}
}

func TestListener_Accept_PositionsStreamAfterAnnouncement(t *testing.T) {
	bridge := newFakeBridge(t)
	bridge.payload = "\xaafirst-bytes"

	session, err := NewSession(bridge.addr(), "secret64", "nickname123", StyleStream, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer session.Close()

	listener, err := session.Listen()
	if err != nil {
		t.Fatal(err)
	}
	if listener.Addr() != "sessiondest64" {
		t.Errorf("Addr = %q", listener.Addr())
	}

	stream, peer, err := listener.Accept()
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	defer stream.Shutdown()

	if peer != "peerdest64" {
		t.Errorf("peer = %q, want peerdest64", peer)
	}

	// The first byte after the announcement line must be the payload's
	// first byte; nothing may have been swallowed.
	buf := make([]byte, len(bridge.payload))
	var got []byte
	for len(got) < len(bridge.payload) {
		n, err := stream.Read(buf)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		got = append(got, buf[:n]...)
	}
	if string(got) != bridge.payload {
		t.Errorf("payload = %q, want %q", got, bridge.payload)
	}
}

func TestStreamConn_DetachIsOneShot(t *testing.T) {
	bridge := newFakeBridge(t)

	session, err := NewSession(bridge.addr(), "secret64", "nickname123", StyleStream, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer session.Close()

	listener, err := session.Listen()
	if err != nil {
		t.Fatal(err)
	}
	stream, _, err := listener.Accept()
	if err != nil {
		t.Fatal(err)
	}

	raw, err := stream.Detach()
	if err != nil {
		t.Fatalf("Detach: %v", err)
	}
	defer raw.Close()

	if _, err := stream.Detach(); !errors.Is(err, ErrStreamDetached) {
		t.Errorf("second Detach error = %v, want ErrStreamDetached", err)
	}
	if _, err := stream.Read(make([]byte, 1)); !errors.Is(err, ErrStreamDetached) {
		t.Errorf("Read after Detach error = %v, want ErrStreamDetached", err)
	}
	if _, err := stream.Write([]byte("x")); !errors.Is(err, ErrStreamDetached) {
		t.Errorf("Write after Detach error = %v, want ErrStreamDetached", err)
	}
	if err := stream.Shutdown(); err != nil {
		t.Errorf("Shutdown after Detach = %v, want nil", err)
	}
}

func TestNickname(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 8; i++ {
		nick, err := Nickname()
		if err != nil {
			t.Fatal(err)
		}
		if len(nick) != nicknameLength {
			t.Fatalf("nickname %q length = %d, want %d", nick, len(nick), nicknameLength)
		}
		for _, ch := range nick {
			if !strings.ContainsRune(nicknameAlphabet, ch) {
				t.Fatalf("nickname %q contains %q outside the alphabet", nick, ch)
			}
		}
		seen[nick] = true
	}
	if len(seen) < 2 {
		t.Error("nicknames do not vary")
	}
}
