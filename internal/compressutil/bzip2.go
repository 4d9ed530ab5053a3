package compressutil

import (
	"bytes"
	"compress/bzip2"
	"io"

	dsnetbzip2 "github.com/dsnet/compress/bzip2"
)

// Bzip2 compresses data. The standard library's compress/bzip2 package is
// decode-only, so writing uses github.com/dsnet/compress/bzip2.
func Bzip2(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := dsnetbzip2.NewWriter(&buf, nil)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Bunzip2 decompresses bzip2-framed data using the standard library reader.
func Bunzip2(data []byte) ([]byte, error) {
	return io.ReadAll(bzip2.NewReader(bytes.NewReader(data)))
}
