package lineio

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Codec selects how the bytes of a line file are compressed on disk.
type Codec int

const (
	// None stores plain newline-delimited text.
	None Codec = iota
	// Gzip stores the text as a gzip stream.
	Gzip
	// Zstd stores the text as a zstandard stream.
	Zstd
)

var ErrUnknownCodec = errors.New("lineio: unknown codec")

func (c Codec) String() string {
	switch c {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("Codec(%d)", int(c))
	}
}

// Valid reports whether c is one of the known codecs.
func (c Codec) Valid() bool {
	return c == None || c == Gzip || c == Zstd
}

// ParseCodec maps a codec name ("none", "gzip", "zstd") to a Codec.
// The empty string is None.
func ParseCodec(s string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "plain":
		return None, nil
	case "gzip", "gz":
		return Gzip, nil
	case "zstd", "zst":
		return Zstd, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrUnknownCodec, s)
	}
}

// CodecFor picks a codec from the file extension of path.
func CodecFor(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	default:
		return None
	}
}

// decoder is a decompressing reader that can be pointed at the start of
// the file again after a seek.
type decoder interface {
	io.Reader
	Reset(r io.Reader) error
	Close() error
}

type plainDecoder struct {
	io.Reader
}

func (d *plainDecoder) Reset(r io.Reader) error {
	d.Reader = r
	return nil
}

func (d *plainDecoder) Close() error { return nil }

type zstdDecoder struct {
	*zstd.Decoder
}

func (d zstdDecoder) Close() error {
	d.Decoder.Close()
	return nil
}

func newDecoder(c Codec, r io.Reader) (decoder, error) {
	switch c {
	case None:
		return &plainDecoder{Reader: r}, nil
	case Gzip:
		gz, err := gzip.NewReader(r)
		if errors.Is(err, io.EOF) {
			// A zero byte file carries no gzip header; treat it as empty.
			return &plainDecoder{Reader: r}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("lineio: failed to create gzip reader: %w", err)
		}
		return gz, nil
	case Zstd:
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("lineio: failed to create zstd reader: %w", err)
		}
		return zstdDecoder{Decoder: zr}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCodec, c)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func newEncoder(c Codec, w io.Writer) (io.WriteCloser, error) {
	switch c {
	case None:
		return nopWriteCloser{Writer: w}, nil
	case Gzip:
		return gzip.NewWriter(w), nil
	case Zstd:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("lineio: failed to create zstd writer: %w", err)
		}
		return zw, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCodec, c)
	}
}
