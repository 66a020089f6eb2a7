// Package source opens listings stored on disk or piped on stdin.
// Compressed files are recognised by their extension.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// Compression is the encoding of a stored listing.
type Compression uint8

const (
	None Compression = iota
	Gzip
	Zstd
	LZ4
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return "none"
	}
}

// Detect maps a file extension to its compression.
func Detect(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	case ".lz4":
		return LZ4
	default:
		return None
	}
}

// File is a listing read from path, or from stdin when path is Stdin.
type File struct {
	Path  string
	stdin io.Reader
}

// NewFile returns a File for path.
func NewFile(path string) *File {
	return &File{Path: path, stdin: os.Stdin}
}

func (f *File) Name() string {
	if f.Path == Stdin {
		return "stdin"
	}
	return f.Path
}

// Open returns the decompressed listing and its declared length, which is
// -1 unless the file is stored uncompressed.
func (f *File) Open(_ context.Context) (io.ReadCloser, int64, error) {
	if f.Path == Stdin {
		return io.NopCloser(f.stdin), -1, nil
	}

	file, err := os.Open(f.Path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open %s: %w", f.Path, err)
	}

	compression := Detect(f.Path)
	if compression == None {
		info, err := file.Stat()
		if err != nil {
			file.Close()
			return nil, 0, fmt.Errorf("failed to stat %s: %w", f.Path, err)
		}
		return file, info.Size(), nil
	}

	r, err := decompress(file, compression)
	if err != nil {
		file.Close()
		return nil, 0, fmt.Errorf("failed to open %s stream %s: %w", compression, f.Path, err)
	}
	return r, -1, nil
}

func decompress(file *os.File, c Compression) (io.ReadCloser, error) {
	switch c {
	case Gzip:
		zr, err := gzip.NewReader(file)
		if err != nil {
			return nil, err
		}
		return &stack{Reader: zr, closers: []io.Closer{zr, file}}, nil
	case Zstd:
		zr, err := zstd.NewReader(file, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		rc := zr.IOReadCloser()
		return &stack{Reader: rc, closers: []io.Closer{rc, file}}, nil
	case LZ4:
		return &stack{Reader: lz4.NewReader(file), closers: []io.Closer{file}}, nil
	default:
		return file, nil
	}
}

// stack closes a decompressor and the file beneath it.
type stack struct {
	io.Reader
	closers []io.Closer
}

func (s *stack) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
