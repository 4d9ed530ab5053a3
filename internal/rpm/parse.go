package rpm

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// primaryDoc/filelistsDoc/otherDoc mirror the schema DumpPrimary/
// DumpFilelists/DumpOther emit, used to reload a previously published
// metadata family so unchanged packages can be re-emitted without
// re-parsing their .rpm.

type primaryDoc struct {
	Packages []primaryPkgXML `xml:"package"`
}

type primaryPkgXML struct {
	Name        string `xml:"name"`
	Arch        string `xml:"arch"`
	Version     verXML `xml:"version"`
	Checksum    struct {
		Type  string `xml:"type,attr"`
		Value string `xml:",chardata"`
	} `xml:"checksum"`
	Summary     string `xml:"summary"`
	Description string `xml:"description"`
	Packager    string `xml:"packager"`
	URL         string `xml:"url"`
	Time        struct {
		File  int64 `xml:"file,attr"`
		Build int64 `xml:"build,attr"`
	} `xml:"time"`
	Size struct {
		Package   int64 `xml:"package,attr"`
		Installed int64 `xml:"installed,attr"`
		Archive   int64 `xml:"archive,attr"`
	} `xml:"size"`
	Location struct {
		Href string `xml:"href,attr"`
	} `xml:"location"`
	Format struct {
		License     string `xml:"license"`
		Vendor      string `xml:"vendor"`
		Group       string `xml:"group"`
		SourceRPM   string `xml:"sourcerpm"`
		HeaderRange struct {
			Start int64 `xml:"start,attr"`
			End   int64 `xml:"end,attr"`
		} `xml:"header-range"`
		Provides  depListXML `xml:"provides"`
		Requires  depListXML `xml:"requires"`
		Conflicts depListXML `xml:"conflicts"`
		Obsoletes depListXML `xml:"obsoletes"`
		Files     []fileXML  `xml:"file"`
	} `xml:"format"`
}

type verXML struct {
	Epoch string `xml:"epoch,attr"`
	Ver   string `xml:"ver,attr"`
	Rel   string `xml:"rel,attr"`
}

type depListXML struct {
	Entries []depEntryXML `xml:"entry"`
}

type depEntryXML struct {
	Name  string `xml:"name,attr"`
	Flags string `xml:"flags,attr"`
	Epoch string `xml:"epoch,attr"`
	Ver   string `xml:"ver,attr"`
	Rel   string `xml:"rel,attr"`
	Pre   string `xml:"pre,attr"`
}

type fileXML struct {
	Type string `xml:"type,attr"`
	Path string `xml:",chardata"`
}

type filelistsDoc struct {
	Packages []filelistsPkgXML `xml:"package"`
}

type filelistsPkgXML struct {
	PkgID   string    `xml:"pkgid,attr"`
	Name    string    `xml:"name,attr"`
	Arch    string    `xml:"arch,attr"`
	Version verXML    `xml:"version"`
	Files   []fileXML `xml:"file"`
}

type otherDoc struct {
	Packages []otherPkgXML `xml:"package"`
}

type otherPkgXML struct {
	PkgID      string         `xml:"pkgid,attr"`
	Name       string         `xml:"name,attr"`
	Arch       string         `xml:"arch,attr"`
	Version    verXML         `xml:"version"`
	Changelogs []changelogXML `xml:"changelog"`
}

type changelogXML struct {
	Author string `xml:"author,attr"`
	Date   int64  `xml:"date,attr"`
	Text   string `xml:",chardata"`
}

func depFlagFromString(s string) uint32 {
	switch s {
	case "EQ":
		return senseEqual
	case "LT":
		return senseLess
	case "GT":
		return senseGreater
	case "LE":
		return senseLess | senseEqual
	case "GE":
		return senseGreater | senseEqual
	case "NE":
		return senseNotEqual
	default:
		return 0
	}
}

func depsFromXML(list depListXML) []Dependency {
	out := make([]Dependency, 0, len(list.Entries))
	for _, e := range list.Entries {
		v := e.Ver
		if e.Rel != "" {
			v = v + "-" + e.Rel
		}
		if e.Epoch != "" && e.Epoch != "0" {
			v = e.Epoch + ":" + v
		}
		flags := depFlagFromString(e.Flags)
		if e.Pre == "1" {
			flags |= prereqMask
		}
		out = append(out, Dependency{Name: e.Name, Flags: flags, Version: v})
	}
	return out
}

func filesFromXML(entries []fileXML) []FileEntry {
	out := make([]FileEntry, len(entries))
	for i, f := range entries {
		out[i] = FileEntry{Path: f.Text(), Type: f.Type}
	}
	return out
}

// Text returns the file path, trimming the whitespace encoding/xml leaves
// around chardata in an indented document.
func (f fileXML) Text() string { return strings.TrimSpace(f.Path) }

// ParsePrimary decodes a previously emitted primary.xml (the open,
// uncompressed form) into Package records keyed by RPM identity. Changelog
// and filelists data are absent here; MergeFamilies fills them in from the
// other two documents.
func ParsePrimary(data []byte) (map[string]*Package, error) {
	var doc primaryDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("rpm: parsing primary.xml: %w", err)
	}
	out := make(map[string]*Package, len(doc.Packages))
	for _, pk := range doc.Packages {
		p := &Package{
			Name:         pk.Name,
			Arch:         pk.Arch,
			Epoch:        zeroToEmpty(pk.Version.Epoch),
			Version:      pk.Version.Ver,
			Release:      pk.Version.Rel,
			ChecksumType: pk.Checksum.Type,
			Checksum:     pk.Checksum.Value,
			Summary:      pk.Summary,
			Description:  pk.Description,
			Packager:     pk.Packager,
			URL:          pk.URL,
			BuildTime:    pk.Time.Build,
			FileTime:     float64(pk.Time.File),
			PackageSize:  pk.Size.Package,
			Size:         pk.Size.Installed,
			ArchiveSize:  pk.Size.Archive,
			Location:     pk.Location.Href,
			License:      pk.Format.License,
			Vendor:       pk.Format.Vendor,
			Group:        pk.Format.Group,
			SourceRPM:    pk.Format.SourceRPM,
			HeaderStart:  pk.Format.HeaderRange.Start,
			HeaderEnd:    pk.Format.HeaderRange.End,
			Provides:     depsFromXML(pk.Format.Provides),
			Requires:     depsFromXML(pk.Format.Requires),
			Conflicts:    depsFromXML(pk.Format.Conflicts),
			Obsoletes:    depsFromXML(pk.Format.Obsoletes),
		}
		out[Identity(p)] = p
	}
	return out, nil
}

// ParseFilelists decodes a previously emitted filelists.xml, returning the
// full file list per package keyed by identity.
func ParseFilelists(data []byte) (map[string][]FileEntry, error) {
	var doc filelistsDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("rpm: parsing filelists.xml: %w", err)
	}
	out := make(map[string][]FileEntry, len(doc.Packages))
	for _, pk := range doc.Packages {
		key := pk.Name + "\x00" + zeroToEmpty(pk.Version.Epoch) + "\x00" + pk.Version.Ver + "\x00" + pk.Version.Rel
		out[key] = filesFromXML(pk.Files)
	}
	return out, nil
}

// ParseOther decodes a previously emitted other.xml, returning changelogs
// per package keyed by identity.
func ParseOther(data []byte) (map[string][]Changelog, error) {
	var doc otherDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("rpm: parsing other.xml: %w", err)
	}
	out := make(map[string][]Changelog, len(doc.Packages))
	for _, pk := range doc.Packages {
		key := pk.Name + "\x00" + zeroToEmpty(pk.Version.Epoch) + "\x00" + pk.Version.Ver + "\x00" + pk.Version.Rel
		logs := make([]Changelog, len(pk.Changelogs))
		for i, c := range pk.Changelogs {
			logs[i] = Changelog{Time: c.Date, Name: c.Author, Text: c.Text}
		}
		out[key] = logs
	}
	return out, nil
}

func zeroToEmpty(s string) string {
	if s == "0" {
		return ""
	}
	return s
}

// Identity returns the RPM identity tuple key (name, epoch, version,
// release) as used for all three metadata maps.
func Identity(p *Package) string {
	return p.Name + "\x00" + p.Epoch + "\x00" + p.Version + "\x00" + p.Release
}

// MergeFamilies stitches a primary-only package back together with its
// filelists/other data, for packages reloaded from prior metadata rather
// than freshly parsed from a .rpm.
func MergeFamilies(primary map[string]*Package, filelists map[string][]FileEntry, other map[string][]Changelog) {
	for key, p := range primary {
		if files, ok := filelists[key]; ok {
			p.Files = files
		}
		if logs, ok := other[key]; ok {
			p.Changelogs = logs
		}
	}
}
