package monitoring

import (
	"log"
	"sync/atomic"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

var recovered atomic.Int64

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Recoverable logs a failure that was swallowed so that work could continue,
// such as a scene cleanup hook returning an error.
func Recoverable(component string, err error) {
	if err == nil {
		return
	}
	recovered.Add(1)
	Logf("[%s] recoverable error: %v", component, err)
}

// Recovered returns how many failures Recoverable has logged since start.
func Recovered() int64 {
	return recovered.Load()
}
