package syncer

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"
	"strings"
	"syscall"

	"tableflip.dev/studyplan/pkg/identity"
	"tableflip.dev/studyplan/pkg/remote"
)

// ErrorKind classifies a sync failure for the user.
type ErrorKind string

const (
	KindNone     ErrorKind = ""
	KindNetwork  ErrorKind = "network"
	KindNotFound ErrorKind = "not_found"
	KindServer   ErrorKind = "server"
	KindLockout  ErrorKind = "lockout"
)

// ConnectionFailure is the message shown for every network error.
const ConnectionFailure = "connection failure"

var networkSignatures = []string{
	"failed to fetch",
	"fetch failed",
	"network error",
	"connection refused",
	"connection reset",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"broken pipe",
}

// Classify sorts err into a kind.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, remote.ErrNotFound) {
		return KindNotFound
	}
	if errors.Is(err, identity.ErrLocked) {
		return KindLockout
	}
	if isNetwork(err) {
		return KindNetwork
	}
	return KindServer
}

func isNetwork(err error) bool {
	var netErr net.Error
	var urlErr *url.Error
	var opErr *net.OpError
	switch {
	case errors.As(err, &opErr), errors.As(err, &urlErr), errors.As(err, &netErr):
		return true
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ENETUNREACH), errors.Is(err, syscall.EHOSTUNREACH):
		return true
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, context.DeadlineExceeded):
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range networkSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// Message is the user facing text of err.
func Message(err error) string {
	switch Classify(err) {
	case KindNone, KindNotFound:
		return ""
	case KindNetwork:
		return ConnectionFailure
	default:
		return err.Error()
	}
}
