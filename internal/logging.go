package internal

import (
	"io"
	"log"
	"os"
)

// LogFlags timestamps log lines in UTC, matching the UTC times in itinerary output.
const LogFlags = log.LstdFlags | log.Lmicroseconds | log.LUTC

// InitLogging sends the standard logger to stdout.
func InitLogging() {
	InitLoggingTo(os.Stdout)
}

// InitLoggingTo sends the standard logger to w.
func InitLoggingTo(w io.Writer) {
	log.SetOutput(w)
	log.SetFlags(LogFlags)
}
