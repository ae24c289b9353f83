// Package klog is the kernel's narrow structured-logging surface,
// wrapping zap the way a hosted kernel simulator logs boot, exception
// and scheduler events instead of writing straight to the console.
package klog

import "go.uber.org/zap"

// Logger is the subset of zap's SugaredLogger every other package is
// allowed to depend on, so nothing outside this package reaches for
// zap directly.
type Logger interface {
	Debugw(msg string, kv ...interface{})
	Infow(msg string, kv ...interface{})
	Warnw(msg string, kv ...interface{})
	Errorw(msg string, kv ...interface{})
	Sync() error
}

type sugared struct {
	*zap.SugaredLogger
}

// New builds a production-profile logger (JSON encoding, info level)
// unless debug is requested, in which case it switches to zap's
// development profile (console encoding, debug level, caller info).
func New(debug bool) (Logger, error) {
	var base *zap.Logger
	var err error
	if debug {
		base, err = zap.NewDevelopment()
	} else {
		base, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return &sugared{base.Sugar()}, nil
}

// Nop returns a logger that discards everything, for tests and for
// callers that never configured logging.
func Nop() Logger {
	return &sugared{zap.NewNop().Sugar()}
}
