// Package monitoring holds the package-level diagnostic logger shared by the
// survey pipeline and the map renderer.
package monitoring

import (
	"log"
	"time"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// now is replaced in tests.
var now = time.Now

// Stage starts timing a pipeline stage and returns a func that logs the
// elapsed time when called:
//
//	defer monitoring.Stage(runID, "alpha shape top")()
func Stage(runID, name string) func() time.Duration {
	start := now()
	return func() time.Duration {
		elapsed := now().Sub(start)
		Logf("[%s] %s took %v", runID, name, elapsed.Round(time.Microsecond))
		return elapsed
	}
}
