package main

import (
	"log"
	"os"
	"strings"
	"syscall"
	"time"
)

const defaultRunnerBinary = "/app/runner"

// A tiny entrypoint that applies an optional startup delay and then execs the
// runner. PORT is passed through untouched; the runner owns its default.
func main() {
	log.SetPrefix("ENTRYPOINT: ")

	if d, ok := startupDelay(os.Getenv("STARTUP_DELAY")); ok {
		log.Printf("Applying startup delay: %v", d)
		time.Sleep(d)
	}

	target := runnerBinary(os.Getenv("RUNNER_BINARY"))
	if err := syscall.Exec(target, []string{target}, os.Environ()); err != nil {
		log.Fatalf("failed to exec %s: %v", target, err)
	}
}

// startupDelay parses STARTUP_DELAY. Invalid or non-positive values are ignored.
func startupDelay(raw string) (time.Duration, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Ignoring STARTUP_DELAY=%q", raw)
		return 0, false
	}
	return d, true
}

func runnerBinary(raw string) string {
	if target := strings.TrimSpace(raw); target != "" {
		return target
	}
	return defaultRunnerBinary
}
