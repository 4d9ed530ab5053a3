// Package rpm implements RPM package inspection and YUM repository
// metadata generation.
package rpm

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/tarantool/mkrepo/internal/compressutil"
	"github.com/tarantool/mkrepo/internal/hashutil"
	"github.com/tarantool/mkrepo/internal/storage"
)

// MetadataKind identifies one of the three metadata families repomd.xml
// indexes.
type MetadataKind string

const (
	KindPrimary   MetadataKind = "primary"
	KindFilelists MetadataKind = "filelists"
	KindOther     MetadataKind = "other"
)

// RepoMDEntry is one <data> record in repomd.xml.
type RepoMDEntry struct {
	Kind             MetadataKind
	Checksum         string
	OpenChecksum     string
	Location         string
	Timestamp        int64
	Size             int64
	OpenSize         int64
}

// RepoMD is the decoded form of repomd.xml, used both to render a new one
// and to figure out which stale content-addressed files to delete.
type RepoMD struct {
	Revision int64
	Entries  map[MetadataKind]RepoMDEntry
}

// repomdXML mirrors the subset of repomd.xml's schema parse_repomd reads:
// revision and each <data> block's checksum/location/timestamp/size.
type repomdXML struct {
	XMLName  xml.Name `xml:"repomd"`
	Revision int64    `xml:"revision"`
	Data     []struct {
		Type     string `xml:"type,attr"`
		Checksum struct {
			Type  string `xml:"type,attr"`
			Value string `xml:",chardata"`
		} `xml:"checksum"`
		OpenChecksum struct {
			Value string `xml:",chardata"`
		} `xml:"open-checksum"`
		Location struct {
			Href string `xml:"href,attr"`
		} `xml:"location"`
		Timestamp int64 `xml:"timestamp"`
		Size      int64 `xml:"size"`
		OpenSize  int64 `xml:"open-size"`
	} `xml:"data"`
}

// ParseRepomd decodes an existing repomd.xml, returning (nil, nil) if data
// is empty (no prior metadata exists, i.e. this is the first generation).
func ParseRepomd(data []byte) (*RepoMD, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var decoded repomdXML
	if err := xml.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("rpm: parsing repomd.xml: %w", err)
	}
	md := &RepoMD{Revision: decoded.Revision, Entries: make(map[MetadataKind]RepoMDEntry)}
	for _, d := range decoded.Data {
		md.Entries[MetadataKind(d.Type)] = RepoMDEntry{
			Kind:         MetadataKind(d.Type),
			Checksum:     d.Checksum.Value,
			OpenChecksum: d.OpenChecksum.Value,
			Location:     d.Location.Href,
			Timestamp:    d.Timestamp,
			Size:         d.Size,
			OpenSize:     d.OpenSize,
		}
	}
	return md, nil
}

// GeneratedFile is one repodata/*.xml.gz file produced by GenerateRepomd,
// ready to be written to storage.
type GeneratedFile struct {
	Kind     MetadataKind
	Path     string // repodata/<sha256>-<kind>.xml.gz
	Contents []byte
}

// GenerateRepomd compresses the three rendered XML documents, names them
// content-addressed
// the new repomd.xml. It does not touch storage itself; the reconciler
// writes GeneratedFiles and repomd.xml, then deletes any previous
// content-addressed name that changed.
func GenerateRepomd(primary, filelists, other string, previous *RepoMD, now time.Time) ([]GeneratedFile, string, error) {
	revision := int64(1)
	if previous != nil {
		revision = previous.Revision + 1
	}

	files := make([]GeneratedFile, 0, 3)
	entries := make(map[MetadataKind]RepoMDEntry, 3)

	for kind, openXML := range map[MetadataKind]string{
		KindPrimary:   primary,
		KindFilelists: filelists,
		KindOther:     other,
	} {
		openBytes := []byte(openXML)
		gz, err := compressutil.Gzip(openBytes)
		if err != nil {
			return nil, "", fmt.Errorf("rpm: gzip %s.xml: %w", kind, err)
		}
		digest := hashutil.SHA256Hex(gz)
		path := fmt.Sprintf("repodata/%s-%s.xml.gz", digest, kind)

		files = append(files, GeneratedFile{Kind: kind, Path: path, Contents: gz})
		entries[kind] = RepoMDEntry{
			Kind:         kind,
			Checksum:     digest,
			OpenChecksum: hashutil.SHA256Hex(openBytes),
			Location:     path,
			Timestamp:    now.Unix(),
			Size:         int64(len(gz)),
			OpenSize:     int64(len(openBytes)),
		}
	}

	return files, renderRepomd(revision, entries), nil
}

func renderRepomd(revision int64, entries map[MetadataKind]RepoMDEntry) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<repomd xmlns="http://linux.duke.edu/metadata/repo">` + "\n")
	fmt.Fprintf(&b, "  <revision>%d</revision>\n", revision)

	for _, kind := range []MetadataKind{KindPrimary, KindFilelists, KindOther} {
		e := entries[kind]
		fmt.Fprintf(&b, "  <data type=\"%s\">\n", kind)
		fmt.Fprintf(&b, "    <checksum type=\"sha256\">%s</checksum>\n", e.Checksum)
		fmt.Fprintf(&b, "    <open-checksum type=\"sha256\">%s</open-checksum>\n", e.OpenChecksum)
		fmt.Fprintf(&b, "    <location href=\"%s\"/>\n", e.Location)
		fmt.Fprintf(&b, "    <timestamp>%d</timestamp>\n", e.Timestamp)
		fmt.Fprintf(&b, "    <size>%d</size>\n", e.Size)
		fmt.Fprintf(&b, "    <open-size>%d</open-size>\n", e.OpenSize)
		b.WriteString("  </data>\n")
	}

	b.WriteString("</repomd>\n")
	return b.String()
}

// StaleEntries returns the repodata/ paths present in previous but absent
// from current, i.e. content-addressed files that are safe to delete
// because nothing references them anymore.
func StaleEntries(previous *RepoMD, current []GeneratedFile) []string {
	if previous == nil {
		return nil
	}
	kept := make(map[string]bool, len(current))
	for _, f := range current {
		kept[f.Path] = true
	}
	var stale []string
	for _, e := range previous.Entries {
		if e.Location != "" && !kept[e.Location] {
			stale = append(stale, e.Location)
		}
	}
	return stale
}

// LoadPrevious reads and parses the existing repomd.xml from storage, if
// any. A missing file is not an error: it means this is the first run.
func LoadPrevious(ctx context.Context, s storage.Storage, basePath string) (*RepoMD, error) {
	path := basePath + "/repodata/repomd.xml"
	exists, err := s.Exists(ctx, path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	data, err := s.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	return ParseRepomd(data)
}
