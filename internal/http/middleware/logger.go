package middleware

import (
	"encoding/json"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Logger is a middleware that logs each HTTP request in JSON format.
// Required fields:
// - request_id (taken from context locals set by RequestID middleware)
// - method
// - path
// - status
// - latency (in milliseconds, as float)
// - bytes_out (response body size; -1 when the body is streamed and the size is not yet known)
func Logger() fiber.Handler {
	// Prepare a JSON encoder that writes one JSON object per line to stdout.
	enc := json.NewEncoder(os.Stdout)

	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Process request
		err := c.Next()

		// Collect fields after handler executed to capture final status
		rid, _ := c.Locals(RequestIDLocalKey).(string)
		method := c.Method()
		// Use only the path segment (no query string) to match requirement naming
		path := c.Path()
		status := c.Response().StatusCode()
		latency := float64(time.Since(start).Milliseconds())

		// Header.ContentLength() is -1 when the body is a stream and the
		// final size is not known yet.
		bytesOut := c.Response().Header.ContentLength()

		_ = enc.Encode(map[string]any{
			"request_id": rid,
			"method":     method,
			"path":       path,
			"status":     status,
			"latency":    latency,
			"bytes_out":  bytesOut,
		})

		return err
	}
}
