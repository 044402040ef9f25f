package geometry

import (
	"io"
	"log"
)

var debugLogger *log.Logger

// SetDebugLogger installs a debug logger that receives verbose builder
// diagnostics. Pass nil to disable debug logging.
func SetDebugLogger(w io.Writer) {
	if w == nil {
		debugLogger = nil
		return
	}
	debugLogger = log.New(w, "[geometry] ", log.LstdFlags|log.Lmicroseconds)
}

func debugf(format string, args ...interface{}) {
	if debugLogger != nil {
		debugLogger.Printf(format, args...)
	}
}
