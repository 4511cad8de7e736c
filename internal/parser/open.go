package parser

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Open opens a data file for reading, decompressing it according to its
// extension (.gz, .zst or .bz2). Other files are returned as is.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	rc, err := Decompress(f, path)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rc, nil
}

// Decompress wraps src with the decoder matching name's extension. Closing the
// result closes src as well.
func Decompress(src io.ReadCloser, name string) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(name, ".zst"):
		dec, err := zstd.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return &stackedReader{Reader: dec, closers: []func() error{func() error { dec.Close(); return nil }, src.Close}}, nil
	case strings.HasSuffix(name, ".gz"):
		gz, err := gzip.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return &stackedReader{Reader: gz, closers: []func() error{gz.Close, src.Close}}, nil
	case strings.HasSuffix(name, ".bz2"):
		return &stackedReader{Reader: bzip2.NewReader(src), closers: []func() error{src.Close}}, nil
	default:
		return src, nil
	}
}

// stackedReader closes a decoder and the file beneath it.
type stackedReader struct {
	io.Reader
	closers []func() error
}

func (s *stackedReader) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
