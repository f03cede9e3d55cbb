package proxy

import (
	"io"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// writeCloser is a connection whose write half can be shut down
// independently. Both *net.TCPConn and the test doubles satisfy it.
type writeCloser interface {
	CloseWrite() error
}

// duplex is one endpoint of a splice.
type duplex interface {
	io.Reader
	io.Writer
}

// Splice copies between the overlay and backend streams until both
// directions have drained. EOF in one direction propagates as a write
// shutdown on its destination; an I/O error ends only its own
// direction. Returns the byte counts per direction and the first
// direction error, if any. There is no timeout: a splice ends only on
// EOF or error.
func Splice(overlay, backend duplex) (toBackend, toOverlay int64, err error) {
	var nUp, nDown atomic.Int64

	g := new(errgroup.Group)
	g.Go(func() error {
		n, err := copyHalf(backend, overlay)
		nUp.Store(n)
		if err != nil {
			return &SpliceError{Direction: "overlay->backend", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		n, err := copyHalf(overlay, backend)
		nDown.Store(n)
		if err != nil {
			return &SpliceError{Direction: "backend->overlay", Err: err}
		}
		return nil
	})

	err = g.Wait()
	return nUp.Load(), nDown.Load(), err
}

// copyHalf drains src into dst, then shuts down dst's write half so the
// far side observes EOF. The shutdown happens on error too: a broken
// direction must not leave its destination expecting more data.
func copyHalf(dst, src duplex) (int64, error) {
	n, err := io.Copy(dst, src)
	if wc, ok := dst.(writeCloser); ok {
		wc.CloseWrite()
	}
	return n, err
}
