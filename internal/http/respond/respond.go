package respond

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"exportapi/internal/export"
	"exportapi/internal/http/middleware"
)

// Package respond owns the two ways a download leaves this service.
//
// Buffered materializes the whole body first and sends it with an explicit
// Content-Length. Stream pulls chunks from an export.Source and hands them to
// the transport one at a time, which emits them with chunked transfer
// encoding when the protocol allows it; otherwise Stream degrades to the
// buffered behavior instead of failing the request.

// CanChunk reports whether a response may be framed with chunked transfer
// encoding. All four conditions must hold:
//   - the request protocol version is at least HTTP/1.1
//   - the request method is not HEAD
//   - no Content-Length has been set on the response
//   - the status code is neither 204 nor 304
func CanChunk(protoMajor, protoMinor int, method string, status int, lengthSet bool) bool {
	if protoMajor < 1 || (protoMajor == 1 && protoMinor < 1) {
		return false
	}
	if method == fiber.MethodHead {
		return false
	}
	if lengthSet {
		return false
	}
	if status == fiber.StatusNoContent || status == fiber.StatusNotModified {
		return false
	}
	return true
}

// Buffered sends body in one piece. The transport sets Content-Length from
// the body size, so the client knows the full extent up front.
func Buffered(c *fiber.Ctx, status int, contentType string, body []byte) error {
	c.Context().SetContentType(contentType)
	return c.Status(status).Send(body)
}

// Stream sends the source chunk by chunk. When CanChunk holds, each chunk is
// flushed to the client as soon as the source yields it; the first byte goes
// out before later chunks exist. When CanChunk fails, the source is drained
// into memory and sent via Buffered.
//
// Source errors after the first flush cannot be reported to the client
// anymore; they are logged and the stream is cut short.
func Stream(c *fiber.Ctx, status int, contentType string, src export.Source) error {
	return stream(c, status, contentType, src, nil)
}

// StreamReader streams rc in chunks of at most chunkBytes bytes and closes it
// once the body has been written (or the stream is cut short). It is the
// pass-through path for bodies that already exist elsewhere, like archived
// artifacts in object storage.
func StreamReader(c *fiber.Ctx, status int, contentType string, rc io.ReadCloser, chunkBytes int) error {
	return stream(c, status, contentType, export.NewReaderSource(rc, chunkBytes), rc)
}

func stream(c *fiber.Ctx, status int, contentType string, src export.Source, closer io.Closer) error {
	protoMajor, protoMinor, ok := http.ParseHTTPVersion(string(c.Request().Header.Protocol()))
	if !ok {
		protoMajor, protoMinor = 1, 1
	}
	lengthSet := c.Response().Header.ContentLength() > 0

	if !CanChunk(protoMajor, protoMinor, c.Method(), status, lengthSet) {
		body, err := Drain(src)
		if closer != nil {
			_ = closer.Close()
		}
		if err != nil {
			return err
		}
		return Buffered(c, status, contentType, body)
	}

	rid, _ := c.Locals(middleware.RequestIDLocalKey).(string)
	path := c.Path()

	c.Status(status)
	c.Context().SetContentType(contentType)
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		if closer != nil {
			defer closer.Close()
		}
		for {
			chunk, err := src.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				logStreamError(rid, path, "source", err)
				return
			}
			if _, err := w.Write(chunk); err != nil {
				logStreamError(rid, path, "write", err)
				return
			}
			if err := w.Flush(); err != nil {
				logStreamError(rid, path, "flush", err)
				return
			}
		}
	})
	return nil
}

// Drain materializes the remainder of a source into a single byte slice.
func Drain(src export.Source) ([]byte, error) {
	var buf bytes.Buffer
	for {
		chunk, err := src.Next()
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
		buf.Write(chunk)
	}
}

func logStreamError(rid, path, stage string, err error) {
	entry := map[string]any{
		"ts":         time.Now().UTC().Format(time.RFC3339Nano),
		"level":      "error",
		"msg":        "stream_aborted",
		"request_id": rid,
		"path":       path,
		"stage":      stage,
		"error":      err.Error(),
	}
	if b, err := json.Marshal(entry); err == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
