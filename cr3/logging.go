package cr3

import "log"

// Leveled logging passed into every component that wants to talk. The
// original tool used one process-wide logger; an explicit interface keeps
// library callers (and tests) in control of where messages go.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type stdLogger struct {
	verbose bool
}

// A Logger backed by the stdlib log package, emitting [LEVEL]-prefixed
// lines. Debug output is only produced when verbose is set.
func StandardLogger(verbose bool) Logger {
	return &stdLogger{verbose: verbose}
}

func (l *stdLogger) Debugf(format string, args ...interface{}) {
	if l.verbose {
		log.Printf("[DEBUG] "+format, args...)
	}
}

func (l *stdLogger) Infof(format string, args ...interface{}) {
	log.Printf("[INFO] "+format, args...)
}

func (l *stdLogger) Warnf(format string, args ...interface{}) {
	log.Printf("[WARNING] "+format, args...)
}

func (l *stdLogger) Errorf(format string, args ...interface{}) {
	log.Printf("[ERROR] "+format, args...)
}

type nullLogger struct{}

// A Logger that throws everything away
func Discard() Logger {
	return nullLogger{}
}

func (nullLogger) Debugf(format string, args ...interface{}) {}
func (nullLogger) Infof(format string, args ...interface{})  {}
func (nullLogger) Warnf(format string, args ...interface{})  {}
func (nullLogger) Errorf(format string, args ...interface{}) {}
