package vdf

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
)

// DefaultSteps is the step count baked into puzzles issued by this build.
// At this setting evaluation takes on the order of ten seconds on
// commodity hardware while verification stays well under a second.
const DefaultSteps uint64 = 1024 * 1024

// MaxFrameSize bounds the serialized puzzle frame. 128 bytes holds any
// 64-bit decimal seed with steps up to 2^30 and then some.
const MaxFrameSize = 128

// Puzzle framing errors.
var (
	// ErrFrameTooShort indicates a truncated puzzle frame.
	ErrFrameTooShort = errors.New("puzzle frame too short")

	// ErrFrameTooLong indicates a frame exceeding MaxFrameSize.
	ErrFrameTooLong = errors.New("puzzle frame too long")

	// ErrBadSeed indicates the seed is not a non-negative decimal integer.
	ErrBadSeed = errors.New("seed is not a non-negative decimal integer")

	// ErrZeroSteps indicates a puzzle with a zero step count.
	ErrZeroSteps = errors.New("step count must be positive")
)

// Puzzle is a delay puzzle as transmitted to the peer: a random seed in
// decimal ASCII and the number of MiMC steps to walk. The issuer dictates
// Steps; the solver honors whatever arrives in the frame, because any
// disagreement makes verification fail.
type Puzzle struct {
	RandSeed string
	Steps    uint64
}

// NewPuzzle draws a fresh uniform 64-bit seed and pairs it with the
// build's default step count.
func NewPuzzle() (*Puzzle, error) {
	var raw [8]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return nil, fmt.Errorf("draw puzzle seed: %w", err)
	}
	seed := binary.LittleEndian.Uint64(raw[:])
	return &Puzzle{
		RandSeed: new(big.Int).SetUint64(seed).String(),
		Steps:    DefaultSteps,
	}, nil
}

// Seed parses the decimal seed. Returns ErrBadSeed when the string is
// empty, contains non-digits, or encodes a negative value.
func (p *Puzzle) Seed() (*big.Int, error) {
	seed, ok := new(big.Int).SetString(p.RandSeed, 10)
	if !ok || seed.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", ErrBadSeed, p.RandSeed)
	}
	return seed, nil
}

// Eval evaluates the puzzle, producing the witness the issuer expects.
func (p *Puzzle) Eval() (*big.Int, error) {
	seed, err := p.Seed()
	if err != nil {
		return nil, err
	}
	if p.Steps == 0 {
		return nil, ErrZeroSteps
	}
	return Eval(seed, p.Steps), nil
}

// Verify checks a witness against the puzzle. Malformed puzzles verify
// as false, never as an error: a hostile peer cannot turn bad input into
// anything but a rejection.
func (p *Puzzle) Verify(witness *big.Int) bool {
	seed, err := p.Seed()
	if err != nil {
		return false
	}
	return Verify(seed, p.Steps, witness)
}

// MarshalBinary encodes the puzzle as a length-prefixed frame: a
// little-endian u64 byte count, the UTF-8 seed digits, then the step
// count as a little-endian u64. The layout is stable across endpoints.
func (p *Puzzle) MarshalBinary() ([]byte, error) {
	if _, err := p.Seed(); err != nil {
		return nil, err
	}
	if p.Steps == 0 {
		return nil, ErrZeroSteps
	}

	frame := make([]byte, 8+len(p.RandSeed)+8)
	binary.LittleEndian.PutUint64(frame[0:8], uint64(len(p.RandSeed)))
	copy(frame[8:], p.RandSeed)
	binary.LittleEndian.PutUint64(frame[8+len(p.RandSeed):], p.Steps)

	if len(frame) > MaxFrameSize {
		return nil, ErrFrameTooLong
	}
	return frame, nil
}

// UnmarshalBinary decodes a puzzle frame produced by MarshalBinary,
// validating the seed and step invariants.
func (p *Puzzle) UnmarshalBinary(data []byte) error {
	if len(data) > MaxFrameSize {
		return ErrFrameTooLong
	}
	if len(data) < 8 {
		return ErrFrameTooShort
	}

	seedLen := binary.LittleEndian.Uint64(data[0:8])
	if seedLen > MaxFrameSize || uint64(len(data)) < 8+seedLen+8 {
		return ErrFrameTooShort
	}
	if uint64(len(data)) > 8+seedLen+8 {
		return ErrFrameTooLong
	}

	seed := string(data[8 : 8+seedLen])
	steps := binary.LittleEndian.Uint64(data[8+seedLen:])

	decoded := Puzzle{RandSeed: seed, Steps: steps}
	if _, err := decoded.Seed(); err != nil {
		return err
	}
	if steps == 0 {
		return ErrZeroSteps
	}

	*p = decoded
	return nil
}
