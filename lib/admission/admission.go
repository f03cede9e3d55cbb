package admission

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/go-i2p/go-eepproxy/lib/vdf"
)

// Stream is the connection surface the handshake needs: blocking reads
// and writes plus a deadline for the overall exchange.
type Stream interface {
	io.Reader
	io.Writer
	SetDeadline(t time.Time) error
}

// DefaultTimeout bounds the whole server-side handshake. It must cover
// the peer's evaluation time with margin; the default puzzle takes on
// the order of ten seconds to solve.
const DefaultTimeout = 60 * time.Second

// witnessBufferSize is the read buffer for the witness frame. A field
// element is at most 78 decimal digits, so 128 bytes leaves slack; a
// read that fills the buffer completely is treated as overflow.
const witnessBufferSize = 128

// preludeByte is the leading byte a connecting peer sends before the
// puzzle frame. The issuer drains and discards exactly one byte; not
// draining it would desynchronize the puzzle frame.
const preludeByte byte = 0x00

// State tracks a connection's progress through the handshake.
type State uint8

// Handshake states, in order. Any failure is terminal: the caller shuts
// the stream down.
const (
	StatePrelude State = iota
	StateChallenge
	StateAwaitWitness
	StateVerified
	StateSpliced
	StateClosed
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StatePrelude:
		return "prelude"
	case StateChallenge:
		return "challenge"
	case StateAwaitWitness:
		return "await-witness"
	case StateVerified:
		return "verified"
	case StateSpliced:
		return "spliced"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Gatekeeper runs the issuer side of the handshake.
type Gatekeeper struct {
	// Steps is the puzzle difficulty dictated to peers. Zero means
	// vdf.DefaultSteps.
	Steps uint64

	// Timeout bounds the whole handshake. Zero means DefaultTimeout;
	// negative disables the deadline.
	Timeout time.Duration
}

// Admit runs the handshake on an accepted stream: drain the prelude
// byte, issue a fresh puzzle, read the witness, verify. Returns the
// verified puzzle on success. On any error the stream has not carried
// application data and the caller must shut it down.
func (g *Gatekeeper) Admit(conn Stream) (*vdf.Puzzle, error) {
	if err := g.setDeadline(conn); err != nil {
		return nil, &PreludeError{Err: err}
	}

	// Prelude: exactly one byte, discarded.
	var prelude [1]byte
	if _, err := io.ReadFull(conn, prelude[:]); err != nil {
		return nil, &PreludeError{Err: err}
	}

	// Challenge: fresh seed, fixed steps, one write for the whole frame.
	puzzle, err := vdf.NewPuzzle()
	if err != nil {
		return nil, &ChallengeError{Err: err}
	}
	if g.Steps != 0 {
		puzzle.Steps = g.Steps
	}
	frame, err := puzzle.MarshalBinary()
	if err != nil {
		return nil, &ChallengeError{Err: err}
	}
	n, err := conn.Write(frame)
	if err != nil {
		return nil, &ChallengeError{Err: err}
	}
	if n != len(frame) {
		return nil, &ChallengeError{Err: fmt.Errorf("short write: %d of %d bytes", n, len(frame))}
	}

	// Witness: one read, decimal ASCII, no trailer.
	witness, err := readWitness(conn)
	if err != nil {
		return nil, err
	}

	if !puzzle.Verify(witness) {
		return nil, ErrVerificationFailed
	}

	// Admitted; the splice runs without a deadline.
	conn.SetDeadline(time.Time{})
	return puzzle, nil
}

// setDeadline applies the handshake deadline.
func (g *Gatekeeper) setDeadline(conn Stream) error {
	timeout := g.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if timeout < 0 {
		return nil
	}
	return conn.SetDeadline(time.Now().Add(timeout))
}

// readWitness reads the witness frame and parses it as a non-negative
// decimal integer. The read length defines the digit count.
func readWitness(conn Stream) (*big.Int, error) {
	buf := make([]byte, witnessBufferSize)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, &WitnessError{Err: err}
	}
	if n == 0 {
		return nil, &WitnessError{Err: io.ErrUnexpectedEOF}
	}
	if n == len(buf) {
		return nil, &WitnessError{Err: errors.New("witness exceeds buffer")}
	}

	witness, ok := new(big.Int).SetString(string(buf[:n]), 10)
	if !ok || witness.Sign() < 0 {
		return nil, &WitnessError{Err: fmt.Errorf("malformed digits %q", buf[:n])}
	}
	return witness, nil
}

// Solve runs the solver side on a dialed stream: send the prelude byte,
// read the puzzle frame, evaluate it, send the witness as decimal ASCII.
// The step count is honored as received; disagreeing with the issuer
// just fails verification. Returns the solved puzzle and witness.
func Solve(conn Stream) (*vdf.Puzzle, *big.Int, error) {
	if _, err := conn.Write([]byte{preludeByte}); err != nil {
		return nil, nil, &PreludeError{Err: err}
	}

	buf := make([]byte, vdf.MaxFrameSize)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, nil, &ChallengeError{Err: err}
	}

	var puzzle vdf.Puzzle
	if err := puzzle.UnmarshalBinary(buf[:n]); err != nil {
		return nil, nil, &ChallengeError{Err: err}
	}

	witness, err := puzzle.Eval()
	if err != nil {
		return nil, nil, &ChallengeError{Err: err}
	}

	if _, err := conn.Write([]byte(witness.String())); err != nil {
		return nil, nil, &WitnessError{Err: err}
	}
	return &puzzle, witness, nil
}
