package internal

import (
	"bytes"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitLoggingTo(t *testing.T) {
	defer func(flags int) {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	}(log.Flags())

	var buf bytes.Buffer
	InitLoggingTo(&buf)
	log.Printf("catalog: %d routes", 4)

	assert.Equal(t, LogFlags, log.Flags())
	assert.Contains(t, buf.String(), "catalog: 4 routes")
}
