package transport

import (
	"errors"
	"io"
	"net"
	"net/textproto"
	"syscall"

	"github.com/jlaffaye/ftp"
)

// IsConnError classifies an error as connection-class: the link itself
// failed (reset, closed, timeout, or the server announced it is closing
// the control connection) rather than a request-specific rejection.
// Only connection-class failures are worth a reconnect-and-retry.
func IsConnError(err error) bool {
	if err == nil {
		return false
	}

	var proto *textproto.Error
	if errors.As(err, &proto) {
		// 421 Service not available, closing control connection.
		return proto.Code == ftp.StatusNotAvailable
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}
