// Package test exercises the reconcilers end-to-end against a real
// filesystem, the way the unit-level packages never do on their own.
package test

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/blakesmith/ar"
	"github.com/sirupsen/logrus"

	"github.com/tarantool/mkrepo/internal/deb"
	"github.com/tarantool/mkrepo/internal/storage"
)

func buildControlTarGz(t *testing.T, controlBody string) []byte {
	t.Helper()
	var tarBuf bytes.Buffer
	gw := gzip.NewWriter(&tarBuf)
	tw := tar.NewWriter(gw)

	if err := tw.WriteHeader(&tar.Header{Name: "./control", Size: int64(len(controlBody)), Mode: 0o644}); err != nil {
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

func buildDeb(t *testing.T, control string) []byte {
	t.Helper()
	controlTarGz := buildControlTarGz(t, control)

	var buf bytes.Buffer
	w := ar.NewWriter(&buf)
	if err := w.WriteGlobalHeader(); err != nil {
		t.Fatal(err)
	}
	members := []struct {
		name string
		data []byte
	}{
		{"debian-binary", []byte("2.0\n")},
		{"control.tar.gz", controlTarGz},
		{"data.tar.gz", []byte{}},
	}
	for _, m := range members {
		if err := w.WriteHeader(&ar.Header{
			Name:    m.name,
			Size:    int64(len(m.data)),
			Mode:    0o644,
			ModTime: time.Unix(0, 0),
		}); err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(m.data); err != nil {
			t.Fatal(err)
		}
	}
	return buf.Bytes()
}

// TestReconcileDebEndToEnd writes a synthetic .deb into a pool/ layout,
// reconciles it, and checks the emitted Packages/Release pair, then
// reconciles again with no changes and expects the second run to succeed
// and still list the package exactly once.
func TestReconcileDebEndToEnd(t *testing.T) {
	root := t.TempDir()
	s := storage.NewFilesystem(root)
	ctx := context.Background()

	control := "Package: widget\nVersion: 1.0-1\nArchitecture: amd64\n" +
		"Maintainer: Dev <dev@example.com>\nDescription: a widget\n"
	debBytes := buildDeb(t, control)

	poolPath := "pool/focal/main/w/widget/widget_1.0-1_amd64.deb"
	if err := s.Write(ctx, poolPath, debBytes); err != nil {
		t.Fatalf("seed pool file: %v", err)
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)

	opts := deb.Options{
		Dist:          "focal",
		Origin:        "Example",
		Label:         "Example",
		Description:   "Example repository",
		Architectures: []string{"amd64"},
		ScratchRoot:   filepath.Join(root, ".scratch"),
	}

	if err := deb.Reconcile(ctx, s, opts, log); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	packagesPath := filepath.Join(root, "dists/focal/main/binary-amd64/Packages")
	packagesData, err := os.ReadFile(packagesPath)
	if err != nil {
		t.Fatalf("reading Packages: %v", err)
	}
	text := string(packagesData)
	for _, want := range []string{"Package: widget", "Version: 1.0-1", "Filename: " + poolPath, "MD5Sum:", "SHA256:"} {
		if !strings.Contains(text, want) {
			t.Errorf("Packages missing %q, got:\n%s", want, text)
		}
	}

	if _, err := os.Stat(packagesPath + ".gz"); err != nil {
		t.Errorf("Packages.gz not written: %v", err)
	}
	if _, err := os.Stat(packagesPath + ".bz2"); err != nil {
		t.Errorf("Packages.bz2 not written: %v", err)
	}

	releasePath := filepath.Join(root, "dists/focal/Release")
	releaseData, err := os.ReadFile(releasePath)
	if err != nil {
		t.Fatalf("reading Release: %v", err)
	}
	if !strings.HasPrefix(string(releaseData), "Origin: Example\n") {
		t.Errorf("Release field order wrong:\n%s", releaseData)
	}

	// Second run over an unchanged pool must not error and must still
	// reflect the one package (mtime diffing should skip, not duplicate).
	if err := deb.Reconcile(ctx, s, opts, log); err != nil {
		t.Fatalf("second Reconcile: %v", err)
	}
	again, err := os.ReadFile(packagesPath)
	if err != nil {
		t.Fatalf("reading Packages after second run: %v", err)
	}
	if strings.Count(string(again), "Package: widget") != 1 {
		t.Errorf("expected exactly one widget stanza after re-run, got:\n%s", again)
	}
}
