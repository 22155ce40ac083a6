package failover

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/freytube/freytube/internal/adapter/client"
	"github.com/freytube/freytube/internal/core/domain"
)

// Gateway and Cloudflare origin errors that point at a sick instance
var retryableStatusCodes = map[int]struct{}{
	http.StatusBadGateway:         {},
	http.StatusServiceUnavailable: {},
	http.StatusGatewayTimeout:     {},
	520:                           {},
	521:                           {},
	522:                           {},
	523:                           {},
	524:                           {},
}

var retryableMessages = []string{"timeout", "reset", "refused"}

// IsRetryable reports whether err says something about the instance rather
// than the request. Retryable errors rotate to another instance; everything
// else goes straight back to the caller.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *domain.HTTPStatusError
	if errors.As(err, &statusErr) {
		_, ok := retryableStatusCodes[statusErr.StatusCode]
		return ok
	}

	var decodeErr *client.DecodeError
	if errors.As(err, &decodeErr) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, needle := range retryableMessages {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
