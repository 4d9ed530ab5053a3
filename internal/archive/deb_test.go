package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"testing"
	"time"

	"github.com/blakesmith/ar"
)

func buildControlTarGz(t *testing.T, controlBody string) []byte {
	t.Helper()
	var tarBuf bytes.Buffer
	gw := gzip.NewWriter(&tarBuf)
	tw := tar.NewWriter(gw)

	if err := tw.WriteHeader(&tar.Header{
		Name: "./control",
		Size: int64(len(controlBody)),
		Mode: 0o644,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write([]byte(controlBody)); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	return tarBuf.Bytes()
}

func buildDeb(t *testing.T, members map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := ar.NewWriter(&buf)
	if err := w.WriteGlobalHeader(); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"debian-binary", "control.tar.gz", "data.tar.gz"} {
		data, ok := members[name]
		if !ok {
			continue
		}
		if err := w.WriteHeader(&ar.Header{
			Name:    name,
			Size:    int64(len(data)),
			Mode:    0o644,
			ModTime: time.Unix(0, 0),
		}); err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	return buf.Bytes()
}

func TestExtractDebControlGzip(t *testing.T) {
	control := "Package: openssl\nVersion: 1.1.1f-1ubuntu2\nArchitecture: amd64\n"
	controlTarGz := buildControlTarGz(t, control)

	debBytes := buildDeb(t, map[string][]byte{
		"debian-binary":  []byte("2.0\n"),
		"control.tar.gz": controlTarGz,
		"data.tar.gz":    []byte{},
	})

	got, err := ExtractDebControl(bytes.NewReader(debBytes))
	if err != nil {
		t.Fatalf("ExtractDebControl: %v", err)
	}
	if string(got) != control {
		t.Errorf("got %q, want %q", got, control)
	}
}

func TestExtractDebControlMissingMember(t *testing.T) {
	debBytes := buildDeb(t, map[string][]byte{
		"debian-binary": []byte("2.0\n"),
		"data.tar.gz":   []byte{},
	})
	if _, err := ExtractDebControl(bytes.NewReader(debBytes)); err == nil {
		t.Error("expected error when no control.tar member present")
	}
}
