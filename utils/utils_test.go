package utils

import (
	"bytes"
	"errors"
	"io"
	"net"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingStreams(t *testing.T) {
	var stdout, stderr bytes.Buffer
	InitLogging(&stdout, &stderr)
	defer InitLogging(os.Stdout, os.Stderr)

	LogInfo("listener bound", "addr", ":8000")
	LogError("BIND", errors.New("address already in use"), "addr", ":8000")
	LogError("IGNORED", nil)

	assert.Contains(t, stdout.String(), "INFO: ")
	assert.Contains(t, stdout.String(), "listener bound addr :8000")
	assert.Contains(t, stdout.String(), "utils_test.go")
	assert.NotContains(t, stdout.String(), "address already in use")

	assert.Contains(t, stderr.String(), "ERROR: ")
	assert.Contains(t, stderr.String(), "BIND address already in use addr :8000")
	assert.NotContains(t, stderr.String(), "IGNORED")
}

func TestLogRequestError(t *testing.T) {
	var stderr bytes.Buffer
	InitLogging(io.Discard, &stderr)
	defer InitLogging(os.Stdout, os.Stderr)

	app := fiber.New()
	app.Get("/boom", func(c *fiber.Ctx) error {
		c.Locals("request_id", "req-123")
		LogRequestError(c, true, "HANDLER", errors.New("kaboom"))
		return c.SendStatus(fiber.StatusInternalServerError)
	})

	req := httptest.NewRequest("GET", "/boom", nil)
	req.Header.Set("X-Forwarded-For", "8.8.8.8")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)

	out := stderr.String()
	assert.Contains(t, out, "request_id req-123")
	assert.Contains(t, out, "path /boom")
	assert.Contains(t, out, "ip 8.8.8.8")
	assert.Contains(t, out, "error kaboom")
}

func TestIsPublicIP(t *testing.T) {
	tests := []struct {
		name     string
		ip       string
		expected bool
	}{
		{"Google DNS", "8.8.8.8", true},
		{"Cloudflare DNS", "1.1.1.1", true},
		{"Private 10.x", "10.0.0.1", false},
		{"Private 172.16.x", "172.16.0.1", false},
		{"Private 192.168.x", "192.168.1.1", false},
		{"Localhost", "127.0.0.1", false},
		{"IPv6 localhost", "::1", false},
		{"IPv6 private fc00", "fc00::1", false},
		{"IPv6 link-local", "fe80::1", false},
		{"Unspecified IPv4", "0.0.0.0", false},
		{"Unspecified IPv6", "::", false},
		{"IPv4-mapped private", "::ffff:10.0.0.1", false},
		{"IPv4-mapped public", "::ffff:8.8.8.8", true},
		{"Nil IP", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ip net.IP
			if tt.ip != "" {
				ip = net.ParseIP(tt.ip)
			}
			assert.Equal(t, tt.expected, IsPublicIP(ip), "IP: %s", tt.ip)
		})
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		trustProxy bool
		headers    map[string]string
		expected   string
	}{
		{"ignores headers when trust disabled", false, map[string]string{"X-Forwarded-For": "8.8.8.8"}, "0.0.0.0"},
		{"CF-Connecting-IP", true, map[string]string{"CF-Connecting-IP": "1.2.3.4"}, "1.2.3.4"},
		{"X-Forwarded-For public first", true, map[string]string{"X-Forwarded-For": "10.0.0.1, 8.8.8.8"}, "8.8.8.8"},
		{"X-Forwarded-For private fallback", true, map[string]string{"X-Forwarded-For": "unknown, 10.0.0.1, 192.168.1.1"}, "10.0.0.1"},
		{"X-Real-IP", true, map[string]string{"X-Real-IP": "9.9.9.9"}, "9.9.9.9"},
		{"garbage headers", true, map[string]string{"X-Forwarded-For": "nope", "X-Real-IP": "bad"}, "0.0.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/ip", func(c *fiber.Ctx) error {
				return c.SendString(ClientIP(c, tt.trustProxy))
			})

			req := httptest.NewRequest("GET", "/ip", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(body))
		})
	}
}
