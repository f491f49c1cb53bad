package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"math/rand"
	"net"
	"net/url"
	"time"

	"github.com/pagesift/pagesift/models"
)

// RetryPolicy describes the backoff schedule for transient fetch failures.
type RetryPolicy struct {
	MaxRetries int
	Base       time.Duration
	Max        time.Duration
	Jitter     bool
}

// Delay returns the wait before retrying after the given zero-based
// attempt. Exponential in the attempt number, capped at Max. With Jitter
// the delay is drawn from [d/2, d), keeping monotonic growth because the
// halved floor still doubles per attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.Base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.Max {
			d = p.Max
			break
		}
	}
	if p.Max > 0 && d > p.Max {
		d = p.Max
	}
	if p.Jitter && d > 1 {
		d = d/2 + time.Duration(rand.Int63n(int64(d/2)))
	}
	return d
}

// retryableStatus reports whether an HTTP status is worth retrying.
func retryableStatus(code int) bool {
	return code == 429 || code == 408 || (code >= 500 && code <= 599)
}

// classifyTransportError maps a transport-level failure to a fetch error
// kind and a retry decision. DNS resolution failures are retried once only:
// a host that does not resolve on the second attempt will not appear later.
func classifyTransportError(err error, attempt int) (models.FetchErrorKind, bool) {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.FetchTimeout, true
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return models.FetchTimeout, true
	}
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return models.FetchSSL, false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return models.FetchNetwork, attempt == 0
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return models.FetchNetwork, true
	}
	return models.FetchNetwork, true
}
