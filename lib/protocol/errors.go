package protocol

import "errors"

// Sentinel errors mapped from SAM RESULT codes per SAMv3.md.
var (
	// ErrDuplicateID indicates the session nickname is already in use.
	// Maps from RESULT=DUPLICATED_ID.
	ErrDuplicateID = errors.New("duplicated session ID")

	// ErrDuplicateDest indicates the destination already backs a session.
	// Maps from RESULT=DUPLICATED_DEST.
	ErrDuplicateDest = errors.New("duplicated destination")

	// ErrInvalidKey indicates the destination key was rejected.
	// Maps from RESULT=INVALID_KEY.
	ErrInvalidKey = errors.New("invalid key")

	// ErrInvalidID indicates the bridge does not know the session.
	// Maps from RESULT=INVALID_ID.
	ErrInvalidID = errors.New("invalid session ID")

	// ErrTimeout indicates the bridge timed out the operation.
	// Maps from RESULT=TIMEOUT.
	ErrTimeout = errors.New("timeout")

	// ErrCantReachPeer indicates the remote destination is unreachable.
	// Maps from RESULT=CANT_REACH_PEER.
	ErrCantReachPeer = errors.New("can't reach peer")

	// ErrPeerNotFound indicates the remote destination was not found.
	// Maps from RESULT=PEER_NOT_FOUND.
	ErrPeerNotFound = errors.New("peer not found")

	// ErrKeyNotFound indicates a naming lookup failed.
	// Maps from RESULT=KEY_NOT_FOUND.
	ErrKeyNotFound = errors.New("key not found")

	// ErrNoVersion indicates version negotiation with the bridge failed.
	// Maps from RESULT=NOVERSION.
	ErrNoVersion = errors.New("no compatible SAM version")

	// ErrI2PError indicates a generic router-side failure.
	// Maps from RESULT=I2P_ERROR.
	ErrI2PError = errors.New("i2p error")
)

// ResultError converts a reply RESULT code into a sentinel error.
// Returns nil for "OK" and ErrI2PError for unrecognized codes.
func ResultError(result string) error {
	switch result {
	case "OK":
		return nil
	case "DUPLICATED_ID":
		return ErrDuplicateID
	case "DUPLICATED_DEST":
		return ErrDuplicateDest
	case "INVALID_KEY":
		return ErrInvalidKey
	case "INVALID_ID":
		return ErrInvalidID
	case "TIMEOUT":
		return ErrTimeout
	case "CANT_REACH_PEER":
		return ErrCantReachPeer
	case "PEER_NOT_FOUND":
		return ErrPeerNotFound
	case "KEY_NOT_FOUND":
		return ErrKeyNotFound
	case "NOVERSION":
		return ErrNoVersion
	default:
		return ErrI2PError
	}
}
