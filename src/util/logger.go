// logger.go builds the process-wide structured logger used for -verbose diagnostics.
// The teacher prints ad-hoc diagnostics with fmt.Println/Node.Print; this repository
// routes the same class of messages through a single *zap.SugaredLogger instead.

package util

import "go.uber.org/zap"

// NewLogger returns a logger suitable for the given verbosity. Callers must call
// Sync before the process exits.
func NewLogger(verbose bool) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level.SetLevel(zap.WarnLevel)
	}
	cfg.DisableStacktrace = true
	l, err := cfg.Build()
	if err != nil {
		// Logger construction only fails on a malformed config; this one is static.
		panic(err)
	}
	return l.Sugar()
}
