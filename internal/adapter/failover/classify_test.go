package failover

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/freytube/freytube/internal/adapter/client"
	"github.com/freytube/freytube/internal/core/domain"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o deadline" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func statusErr(code int) error {
	return domain.NewHTTPStatusError(domain.ProviderPiped, "https://pipedapi.example/trending", code, "")
}

func TestIsRetryable(t *testing.T) {
	refused := &url.Error{
		Op:  "Get",
		URL: "https://pipedapi.example/trending",
		Err: &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)},
	}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"bad gateway", statusErr(502), true},
		{"service unavailable", statusErr(503), true},
		{"gateway timeout", statusErr(504), true},
		{"cloudflare unknown", statusErr(520), true},
		{"cloudflare web server down", statusErr(521), true},
		{"cloudflare connection timed out", statusErr(522), true},
		{"cloudflare origin unreachable", statusErr(523), true},
		{"cloudflare timeout", statusErr(524), true},
		{"not found", statusErr(404), false},
		{"bad request", statusErr(400), false},
		{"internal server error", statusErr(500), false},
		{"too many requests", statusErr(429), false},
		{"wrapped status", fmt.Errorf("trending: %w", statusErr(503)), true},
		{"decode error", &client.DecodeError{Provider: domain.ProviderPiped, Err: errors.New("unexpected timeout token")}, false},
		{"net timeout", timeoutError{}, true},
		{"client deadline", &url.Error{Op: "Get", URL: "x", Err: context.DeadlineExceeded}, true},
		{"connection refused", refused, true},
		{"connection reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"message timeout", errors.New("TLS handshake Timeout"), true},
		{"message reset", errors.New("connection reset by peer"), true},
		{"message refused", errors.New("dial tcp: connection refused"), true},
		{"cancelled", context.Canceled, false},
		{"generic", errors.New("malformed query"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
