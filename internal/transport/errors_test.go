package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsConnError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"service unavailable", &textproto.Error{Code: 421, Msg: "closing control connection"}, true},
		{"permission denied", &textproto.Error{Code: 550, Msg: "denied"}, false},
		{"file unavailable", &textproto.Error{Code: 553, Msg: "name not allowed"}, false},
		{"timeout", timeoutErr{}, true},
		{"wrapped timeout", fmt.Errorf("stor: %w", timeoutErr{}), true},
		{"eof", io.EOF, true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"closed", net.ErrClosed, true},
		{"reset", syscall.ECONNRESET, true},
		{"wrapped reset", fmt.Errorf("write: %w", syscall.ECONNRESET), true},
		{"broken pipe", syscall.EPIPE, true},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsConnError(tt.err))
		})
	}
}
