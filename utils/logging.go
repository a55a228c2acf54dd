package utils

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
)

// Global logger variables
var (
	InfoLogger  = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	ErrorLogger = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
)

// InitLogging points the info logger at stdout and the error logger at stderr.
// Tests pass buffers to capture diagnostics.
func InitLogging(stdout, stderr io.Writer) {
	InfoLogger = log.New(stdout, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	ErrorLogger = log.New(stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)

	log.SetOutput(stderr)
	log.SetPrefix("SYSTEM: ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
}

// LogError logs errors with context to stderr
func LogError(context string, err error, metadata ...interface{}) {
	if err != nil {
		args := []interface{}{context, err}
		args = append(args, metadata...)
		_ = ErrorLogger.Output(2, fmt.Sprintln(args...))
	}
}

// LogInfo logs informational messages to stdout
func LogInfo(message string, metadata ...interface{}) {
	args := []interface{}{message}
	args = append(args, metadata...)
	_ = InfoLogger.Output(2, fmt.Sprintln(args...))
}

// LogRequestError logs errors with request context to stderr
func LogRequestError(c *fiber.Ctx, trustProxy bool, context string, err error, metadata ...interface{}) {
	if err != nil {
		requestID, _ := c.Locals("request_id").(string)

		args := []interface{}{
			"request_id", requestID,
			"method", c.Method(),
			"path", c.Path(),
			"ip", ClientIP(c, trustProxy),
			"context", context,
			"error", err,
		}
		args = append(args, metadata...)
		_ = ErrorLogger.Output(2, fmt.Sprintln(args...))
	}
}
