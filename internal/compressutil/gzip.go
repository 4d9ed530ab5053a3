// Package compressutil provides the round-trip gzip and bzip2 codecs the
// DEB and RPM emit paths need. Bzip2 needed a real writer since the
// standard library only reads bzip2.
package compressutil

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Gzip compresses data at the default compression level.
func Gzip(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Gunzip decompresses gzip-framed data.
func Gunzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
