package export

import "io"

// ReaderSource adapts an io.Reader to the Source contract using fixed-size
// reads. It is used to re-stream archived artifacts out of object storage
// without pulling the whole object into memory.
type ReaderSource struct {
	r   io.Reader
	buf []byte
	err error // deferred terminal error, delivered after any read data
}

// DefaultReadChunkBytes is the fallback read size when the caller passes a
// non-positive chunk size.
const DefaultReadChunkBytes = 32 * 1024

// NewReaderSource wraps r in a Source that yields chunks of at most
// chunkBytes bytes.
func NewReaderSource(r io.Reader, chunkBytes int) *ReaderSource {
	if chunkBytes <= 0 {
		chunkBytes = DefaultReadChunkBytes
	}
	return &ReaderSource{r: r, buf: make([]byte, chunkBytes)}
}

// Next reads the next chunk from the underlying reader. Per the io.Reader
// contract a read may return data alongside an error (io.EOF or otherwise);
// the data is delivered first and the error on the following call.
func (s *ReaderSource) Next() ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	n, err := s.r.Read(s.buf)
	if err != nil {
		s.err = err
		if n == 0 {
			return nil, err
		}
	}
	return s.buf[:n], nil
}
