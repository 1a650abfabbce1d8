package export

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVGenerator_Next(t *testing.T) {
	g := NewCSVGenerator(2)

	chunk, err := g.Next()
	require.NoError(t, err)
	assert.Equal(t, "One,Two,Three\n", string(chunk))

	chunk, err = g.Next()
	require.NoError(t, err)
	assert.Equal(t, "Hello,world,1\n", string(chunk))

	chunk, err = g.Next()
	require.NoError(t, err)
	assert.Equal(t, "Hello,world,2\n", string(chunk))

	_, err = g.Next()
	assert.ErrorIs(t, err, io.EOF)

	// EOF is sticky
	_, err = g.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestCSVGenerator_ChunksDoNotAlias(t *testing.T) {
	g := NewCSVGenerator(1)

	first, err := g.Next()
	require.NoError(t, err)
	saved := string(first)

	_, err = g.Next()
	require.NoError(t, err)

	assert.Equal(t, saved, string(first))
}

func TestCSVGenerator_ZeroRows(t *testing.T) {
	g := NewCSVGenerator(0)

	chunk, err := g.Next()
	require.NoError(t, err)
	assert.Equal(t, "One,Two,Three\n", string(chunk))

	_, err = g.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestCSVGenerator_WriteTo(t *testing.T) {
	g := NewCSVGenerator(3)

	var buf bytes.Buffer
	n, err := g.WriteTo(&buf)
	require.NoError(t, err)

	want := "One,Two,Three\nHello,world,1\nHello,world,2\nHello,world,3\n"
	assert.Equal(t, want, buf.String())
	assert.Equal(t, int64(len(want)), n)

	// Already drained
	n, err = g.WriteTo(&buf)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReaderSource(t *testing.T) {
	t.Run("splits into fixed-size chunks", func(t *testing.T) {
		src := NewReaderSource(strings.NewReader("abcdefgh"), 3)

		var got []string
		for {
			chunk, err := src.Next()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			got = append(got, string(chunk))
		}
		assert.Equal(t, []string{"abc", "def", "gh"}, got)
	})

	t.Run("empty reader yields EOF immediately", func(t *testing.T) {
		src := NewReaderSource(strings.NewReader(""), 3)
		_, err := src.Next()
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("non-positive chunk size falls back to default", func(t *testing.T) {
		src := NewReaderSource(strings.NewReader("data"), 0)
		chunk, err := src.Next()
		require.NoError(t, err)
		assert.Equal(t, "data", string(chunk))
	})

	t.Run("data read alongside an error is delivered first", func(t *testing.T) {
		readErr := errors.New("read fail")
		src := NewReaderSource(&partialReader{data: "ab", err: readErr}, 3)

		chunk, err := src.Next()
		require.NoError(t, err)
		assert.Equal(t, "ab", string(chunk))

		_, err = src.Next()
		assert.ErrorIs(t, err, readErr)

		// The error is sticky.
		_, err = src.Next()
		assert.ErrorIs(t, err, readErr)
	})
}

// partialReader returns its data and error from a single Read call.
type partialReader struct {
	data string
	err  error
	done bool
}

func (r *partialReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, r.err
	}
	r.done = true
	return copy(p, r.data), r.err
}
