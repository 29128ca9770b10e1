package transport

import "errors"

var (
	ErrInvalidCertificate = errors.New("invalid certificate")
	ErrListenerFailed     = errors.New("failed to start listener")
	ErrDialFailed         = errors.New("failed to dial peer")
	ErrUnknownStreamKind  = errors.New("unknown stream kind")
	ErrNotStarted         = errors.New("transport not started")
)
