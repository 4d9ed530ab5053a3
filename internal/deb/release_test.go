package deb

import (
	"strings"
	"testing"
	"time"

	"github.com/tarantool/mkrepo/internal/hashutil"
)

func TestGenerateReleaseFieldOrder(t *testing.T) {
	release := GenerateRelease(ReleaseInput{
		Origin: "Tarantool", Label: "Tarantool", Description: "Tarantool packages",
		Codename: "focal", Architectures: []string{"amd64", "arm64"}, Components: []string{"main"},
		Files: []EmittedFile{{RelPath: "main/binary-amd64/Packages", Checksum: hashutil.Sum([]byte("x"))}},
		Now:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})

	order := []string{"Origin:", "Label:", "Codename:", "Date:", "Architectures:", "Components:", "Description:", "MD5Sum:", "SHA1:", "SHA256:"}
	last := -1
	for _, field := range order {
		idx := strings.Index(release, field)
		if idx < 0 {
			t.Fatalf("missing field %q in:\n%s", field, release)
		}
		if idx < last {
			t.Errorf("field %q out of order", field)
		}
		last = idx
	}
}

func TestGenerateReleaseChecksumLineFormat(t *testing.T) {
	sum := hashutil.Sum([]byte("hello"))
	release := GenerateRelease(ReleaseInput{
		Files: []EmittedFile{{RelPath: "main/binary-amd64/Packages", Checksum: sum}},
		Now:   time.Now(),
	})
	want := " " + sum.MD5 + " " + "5" + " main/binary-amd64/Packages"
	if !strings.Contains(release, want) {
		t.Errorf("expected checksum line %q in:\n%s", want, release)
	}
}
