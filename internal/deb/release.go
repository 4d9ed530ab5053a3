package deb

import (
	"fmt"
	"strings"
	"time"
)

// ReleaseInput carries the fields GenerateRelease needs beyond the checksum
// manifest itself.
type ReleaseInput struct {
	Origin, Label, Description string
	Codename                   string
	Architectures, Components  []string
	Files                      []EmittedFile
	Now                        time.Time
}

// GenerateRelease renders dists/<dist>/Release with fields in their fixed
// required order.
func GenerateRelease(in ReleaseInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Origin: %s\n", in.Origin)
	fmt.Fprintf(&b, "Label: %s\n", in.Label)
	fmt.Fprintf(&b, "Codename: %s\n", in.Codename)
	fmt.Fprintf(&b, "Date: %s\n", in.Now.UTC().Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Architectures: %s\n", strings.Join(in.Architectures, " "))
	fmt.Fprintf(&b, "Components: %s\n", strings.Join(in.Components, " "))
	fmt.Fprintf(&b, "Description: %s\n", in.Description)

	writeChecksumBlock(&b, "MD5Sum", in.Files, func(c EmittedFile) string { return c.Checksum.MD5 })
	writeChecksumBlock(&b, "SHA1", in.Files, func(c EmittedFile) string { return c.Checksum.SHA1 })
	writeChecksumBlock(&b, "SHA256", in.Files, func(c EmittedFile) string { return c.Checksum.SHA256 })

	return b.String()
}

func writeChecksumBlock(b *strings.Builder, header string, files []EmittedFile, digest func(EmittedFile) string) {
	b.WriteString(header + ":\n")
	for _, f := range files {
		fmt.Fprintf(b, " %s %d %s\n", digest(f), f.Checksum.Size, f.RelPath)
	}
}
