package server

import (
	"bytes"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// FiberResponseWriter adapts a Fiber context to http.ResponseWriter so
// net/http handlers such as promhttp can write Fiber responses.
type FiberResponseWriter struct {
	ctx         *fiber.Ctx
	status      int
	header      http.Header
	wroteHeader bool
}

// NewFiberResponseWriter creates a new FiberResponseWriter adapter
func NewFiberResponseWriter(ctx *fiber.Ctx) *FiberResponseWriter {
	return &FiberResponseWriter{
		ctx:    ctx,
		status: http.StatusOK,
		header: make(http.Header),
	}
}

// Header returns the header map that will be sent by WriteHeader.
func (w *FiberResponseWriter) Header() http.Header {
	return w.header
}

// Write writes the data to the connection as part of an HTTP reply.
func (w *FiberResponseWriter) Write(data []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ctx.Write(data)
}

// WriteHeader copies the collected headers and the status code to Fiber.
// Only the first call has an effect.
func (w *FiberResponseWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = statusCode

	for key, values := range w.header {
		for i, value := range values {
			if i == 0 {
				w.ctx.Set(key, value)
			} else {
				w.ctx.Response().Header.Add(key, value)
			}
		}
	}
	w.ctx.Status(statusCode)
}

// HTTPHandler mounts a net/http handler on a Fiber route.
func HTTPHandler(h http.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := http.NewRequestWithContext(c.UserContext(), c.Method(), c.OriginalURL(), bytes.NewReader(c.Body()))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "malformed request")
		}
		c.Request().Header.VisitAll(func(key, value []byte) {
			req.Header.Add(string(key), string(value))
		})
		req.RemoteAddr = c.Context().RemoteAddr().String()

		w := NewFiberResponseWriter(c)
		h.ServeHTTP(w, req)
		if !w.wroteHeader {
			w.WriteHeader(http.StatusOK)
		}
		return nil
	}
}
