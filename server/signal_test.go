//go:build !windows

package server

import (
	"context"
	"strconv"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStopsOnSIGTERM(t *testing.T) {
	port := freePort(t)
	cfg := testConfig(t, map[string]string{
		"PORT":                  strconv.Itoa(port),
		"HOST":                  "127.0.0.1",
		"SHUTDOWN_GRACE_PERIOD": "3s",
	})

	done := make(chan error, 1)
	go func() {
		done <- Run(context.Background(), cfg, WithConnector(noDependencies))
	}()

	require.Eventually(t, func() bool { return portBusy(port) }, 5*time.Second, 20*time.Millisecond)

	start := time.Now()
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	require.NoError(t, waitDone(t, done, cfg.ShutdownGrace+time.Second))
	assert.Less(t, time.Since(start), cfg.ShutdownGrace)
	assert.False(t, portBusy(port))
}
