// Copyright (c) 2025 Veil
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors classifies network failures from outbound HTTP requests
// into short reasons suitable for logs.
package httperrors

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// Reason maps a transport-level error to a short human-readable cause.
// Returns an empty string for nil errors.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case isTimeoutError(err):
		return "request timed out"
	case isDNSError(err):
		return "DNS resolution failed"
	case isConnectionRefusedError(err):
		return "connection refused"
	case isTLSError(err):
		return "TLS handshake failed"
	default:
		return "network error"
	}
}

// isTimeoutError checks if the error is a timeout error.
func isTimeoutError(err error) bool {
	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isDNSError checks if the error is a DNS resolution error.
func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// isConnectionRefusedError checks if the error is a connection refused error.
func isConnectionRefusedError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, syscall.ECONNREFUSED)
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

// isTLSError checks if the error is a TLS/certificate error.
func isTLSError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "tls") ||
		strings.Contains(errStr, "certificate") ||
		strings.Contains(errStr, "handshake")
}
