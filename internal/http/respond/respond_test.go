package respond

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exportapi/internal/export"
)

func TestCanChunk(t *testing.T) {
	tests := []struct {
		name      string
		major     int
		minor     int
		method    string
		status    int
		lengthSet bool
		want      bool
	}{
		{"http/1.1 GET 200", 1, 1, fiber.MethodGet, 200, false, true},
		{"http/2.0 GET 200", 2, 0, fiber.MethodGet, 200, false, true},
		{"http/1.0 GET 200", 1, 0, fiber.MethodGet, 200, false, false},
		{"http/0.9 GET 200", 0, 9, fiber.MethodGet, 200, false, false},
		{"HEAD request", 1, 1, fiber.MethodHead, 200, false, false},
		{"content-length already set", 1, 1, fiber.MethodGet, 200, true, false},
		{"204 no content", 1, 1, fiber.MethodGet, 204, false, false},
		{"304 not modified", 1, 1, fiber.MethodGet, 304, false, false},
		{"other bodyless-looking status still chunks", 1, 1, fiber.MethodGet, 404, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanChunk(tt.major, tt.minor, tt.method, tt.status, tt.lengthSet)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStream_Chunked(t *testing.T) {
	app := fiber.New()
	app.Get("/stream", func(c *fiber.Ctx) error {
		return Stream(c, fiber.StatusOK, "text/csv", export.NewCSVGenerator(2))
	})

	req := httptest.NewRequest(http.MethodGet, "/stream", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.TransferEncoding, "chunked")
	assert.Equal(t, int64(-1), resp.ContentLength)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "One,Two,Three\nHello,world,1\nHello,world,2\n", string(body))
}

func TestStream_HeadFallsBackToBuffered(t *testing.T) {
	app := fiber.New()
	app.Head("/stream", func(c *fiber.Ctx) error {
		return Stream(c, fiber.StatusOK, "text/csv", export.NewCSVGenerator(2))
	})

	req := httptest.NewRequest(http.MethodHead, "/stream", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.TransferEncoding)

	// HEAD carries no body, but the buffered path advertises the full length.
	want := int64(len("One,Two,Three\nHello,world,1\nHello,world,2\n"))
	assert.Equal(t, want, resp.ContentLength)
}

func TestStream_PresetContentLengthFallsBack(t *testing.T) {
	body := "One,Two,Three\n"
	app := fiber.New()
	app.Get("/stream", func(c *fiber.Ctx) error {
		c.Response().Header.SetContentLength(len(body))
		return Stream(c, fiber.StatusOK, "text/csv", export.NewCSVGenerator(0))
	})

	req := httptest.NewRequest(http.MethodGet, "/stream", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.TransferEncoding)
	assert.Equal(t, int64(len(body)), resp.ContentLength)

	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))
}

func TestStream_SourceErrorBeforeFirstChunk(t *testing.T) {
	app := fiber.New()
	app.Head("/stream", func(c *fiber.Ctx) error {
		// HEAD forces the fallback path, where source errors still surface.
		return Stream(c, fiber.StatusOK, "text/csv", failingSource{})
	})

	req := httptest.NewRequest(http.MethodHead, "/stream", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestBuffered(t *testing.T) {
	body := []byte("One,Two,Three\nHello,world,1\n")
	app := fiber.New()
	app.Get("/buffered", func(c *fiber.Ctx) error {
		return Buffered(c, fiber.StatusOK, "text/csv", body)
	})

	req := httptest.NewRequest(http.MethodGet, "/buffered", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.TransferEncoding)
	assert.Equal(t, int64(len(body)), resp.ContentLength)
	assert.Equal(t, "text/csv", resp.Header.Get(fiber.HeaderContentType))

	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestDrain(t *testing.T) {
	t.Run("collects all chunks", func(t *testing.T) {
		body, err := Drain(export.NewCSVGenerator(1))
		require.NoError(t, err)
		assert.Equal(t, "One,Two,Three\nHello,world,1\n", string(body))
	})

	t.Run("propagates source errors", func(t *testing.T) {
		_, err := Drain(failingSource{})
		assert.Error(t, err)
	})
}

type failingSource struct{}

func (failingSource) Next() ([]byte, error) {
	return nil, errors.New("source fail")
}
