package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// capture redirects log output to a buffer and restores defaults on
// cleanup.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t)

	SetVerbose(false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())
}

func TestDebugAndInfo_GatedOnVerbose(t *testing.T) {
	buf := capture(t)

	SetVerbose(false)
	Debug("quiet %s", "debug")
	Info("quiet info")
	assert.Zero(t, buf.Len())

	SetVerbose(true)
	Debug("loud %s", "debug")
	Info("loud info %d", 42)
	assert.Equal(t, "[DEBUG] loud debug\n[INFO] loud info 42\n", buf.String())
}

func TestWarn_AlwaysPrints(t *testing.T) {
	buf := capture(t)

	SetVerbose(false)
	Warn("embedding failed for %s", "docs/payments.md")

	assert.Equal(t, "[WARN] embedding failed for docs/payments.md\n", buf.String())
}

func TestConcurrentAccess(t *testing.T) {
	capture(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			SetVerbose(true)
			Debug("concurrent %d", n)
			IsVerbose()
			Warn("concurrent %d", n)
			SetVerbose(false)
		}(i)
	}
	wg.Wait()
	// Passes when the race detector stays quiet.
}
