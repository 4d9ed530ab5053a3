package rpm

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// xmlEscape escapes &, <, > and the double quote; the apostrophe is left
// as is, since every attribute this package writes is double-quoted.
// encoding/xml's own
// escaper is text-node only and differs slightly from what repo metadata
// consumers expect for attribute values, so this package builds markup by
// hand instead.
func xmlEscape(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return r.Replace(s)
}

func depFlagString(f uint32) string {
	switch f & senseMask {
	case senseEqual:
		return "EQ"
	case senseLess:
		return "LT"
	case senseGreater:
		return "GT"
	case senseLess | senseEqual:
		return "LE"
	case senseGreater | senseEqual:
		return "GE"
	case senseNotEqual:
		return "NE"
	default:
		return ""
	}
}

func writeDepEntry(b *strings.Builder, tag string, d Dependency) {
	epoch, version, release := parseVerStr(d.Version)
	fmt.Fprintf(b, `      <rpm:entry name="%s"`, xmlEscape(d.Name))
	if flag := depFlagString(d.Flags); flag != "" {
		fmt.Fprintf(b, ` flags="%s"`, flag)
	}
	if epoch != "" {
		fmt.Fprintf(b, ` epoch="%s"`, xmlEscape(epoch))
	}
	if version != "" {
		fmt.Fprintf(b, ` ver="%s"`, xmlEscape(version))
	}
	if release != "" {
		fmt.Fprintf(b, ` rel="%s"`, xmlEscape(release))
	}
	if tag == "rpm:requires" && d.Flags&prereqMask != 0 {
		b.WriteString(` pre="1"`)
	}
	b.WriteString("/>\n")
}

// sortDeps orders dependency entries by (name, epoch, release, version)
// with a missing epoch/release treated as the empty string.
// This incidentally makes every libc.so.6* run contiguous, since they all
// share the "libc.so.6" name prefix, which is what lets foldLibc collapse
// them afterward.
func sortDeps(deps []Dependency) []Dependency {
	out := append([]Dependency(nil), deps...)
	sort.SliceStable(out, func(i, j int) bool {
		ei, vi, ri := parseVerStr(out[i].Version)
		ej, vj, rj := parseVerStr(out[j].Version)
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		if ei != ej {
			return ei < ej
		}
		if ri != rj {
			return ri < rj
		}
		return vi < vj
	})
	return out
}

// writeDepBlock always emits the <tag>...</tag> wrapper, even when deps is
// empty — provides/requires/obsoletes are unconditional in primary.xml.
func writeDepBlock(b *strings.Builder, tag string, deps []Dependency) {
	folded := foldLibc(sortDeps(deps))
	fmt.Fprintf(b, "    <%s>\n", tag)
	for _, d := range folded {
		writeDepEntry(b, tag, d)
	}
	fmt.Fprintf(b, "    </%s>\n", tag)
}

// writeOptionalDepBlock emits the <tag>...</tag> wrapper only when deps is
// non-empty — conflicts is the one dependency block that's conditional.
func writeOptionalDepBlock(b *strings.Builder, tag string, deps []Dependency) {
	if len(deps) == 0 {
		return
	}
	writeDepBlock(b, tag, deps)
}

// DumpPrimary renders the <package type="rpm"> primary.xml entry for p.
func DumpPrimary(p *Package) string {
	var b strings.Builder

	b.WriteString("  <package type=\"rpm\">\n")
	fmt.Fprintf(&b, "    <name>%s</name>\n", xmlEscape(p.Name))
	b.WriteString("    <arch>" + xmlEscape(p.Arch) + "</arch>\n")
	fmt.Fprintf(&b, "    <version epoch=\"%s\" ver=\"%s\" rel=\"%s\"/>\n",
		xmlEscape(orZero(p.Epoch)), xmlEscape(p.Version), xmlEscape(p.Release))
	fmt.Fprintf(&b, "    <checksum type=\"%s\" pkgid=\"YES\">%s</checksum>\n", p.ChecksumType, p.Checksum)
	fmt.Fprintf(&b, "    <summary>%s</summary>\n", xmlEscape(p.Summary))
	fmt.Fprintf(&b, "    <description>%s</description>\n", xmlEscape(p.Description))
	fmt.Fprintf(&b, "    <packager>%s</packager>\n", xmlEscape(p.Packager))
	fmt.Fprintf(&b, "    <url>%s</url>\n", p.URL)
	fmt.Fprintf(&b, "    <time file=\"%.0f\" build=\"%d\"/>\n", p.FileTime, p.BuildTime)
	fmt.Fprintf(&b, "    <size package=\"%d\" installed=\"%d\" archive=\"%d\"/>\n",
		p.PackageSize, p.Size, p.ArchiveSize)
	b.WriteString("    <location href=\"" + xmlEscape(p.Location) + "\"/>\n")
	fmt.Fprintf(&b, "    <format>\n      <rpm:license>%s</rpm:license>\n", xmlEscape(p.License))
	if p.Vendor != "" {
		fmt.Fprintf(&b, "      <rpm:vendor>%s</rpm:vendor>\n", xmlEscape(p.Vendor))
	}
	fmt.Fprintf(&b, "      <rpm:group>%s</rpm:group>\n", p.Group)
	fmt.Fprintf(&b, "      <rpm:buildhost>%s</rpm:buildhost>\n", p.BuildHost)
	fmt.Fprintf(&b, "      <rpm:sourcerpm>%s</rpm:sourcerpm>\n", p.SourceRPM)
	fmt.Fprintf(&b, "      <rpm:header-range start=\"%d\" end=\"%d\"/>\n", p.HeaderStart, p.HeaderEnd)

	writeDepBlock(&b, "rpm:provides", p.Provides)
	writeDepBlock(&b, "rpm:requires", p.Requires)
	writeDepBlock(&b, "rpm:obsoletes", p.Obsoletes)
	writeOptionalDepBlock(&b, "rpm:conflicts", p.Conflicts)

	for _, f := range p.Files {
		if !isPrimaryFilePath(f.Path) {
			continue
		}
		if f.Type == "dir" {
			fmt.Fprintf(&b, "      <file type=\"dir\">%s</file>\n", xmlEscape(f.Path))
		} else {
			fmt.Fprintf(&b, "      <file>%s</file>\n", xmlEscape(f.Path))
		}
	}

	b.WriteString("    </format>\n  </package>\n")
	return b.String()
}

// DumpFilelists renders the <package> filelists.xml entry for p.
func DumpFilelists(p *Package) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  <package pkgid=\"%s\" name=\"%s\" arch=\"%s\">\n",
		p.Checksum, xmlEscape(p.Name), xmlEscape(p.Arch))
	fmt.Fprintf(&b, "    <version epoch=\"%s\" ver=\"%s\" rel=\"%s\"/>\n",
		xmlEscape(orZero(p.Epoch)), xmlEscape(p.Version), xmlEscape(p.Release))
	for _, f := range p.Files {
		switch f.Type {
		case "dir":
			fmt.Fprintf(&b, "    <file type=\"dir\">%s</file>\n", xmlEscape(f.Path))
		default:
			fmt.Fprintf(&b, "    <file>%s</file>\n", xmlEscape(f.Path))
		}
	}
	b.WriteString("  </package>\n")
	return b.String()
}

// DumpOther renders the <package> other.xml entry for p, its changelog.
func DumpOther(p *Package) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  <package pkgid=\"%s\" name=\"%s\" arch=\"%s\">\n",
		p.Checksum, xmlEscape(p.Name), xmlEscape(p.Arch))
	fmt.Fprintf(&b, "    <version epoch=\"%s\" ver=\"%s\" rel=\"%s\"/>\n",
		xmlEscape(orZero(p.Epoch)), xmlEscape(p.Version), xmlEscape(p.Release))
	for _, c := range p.Changelogs {
		fmt.Fprintf(&b, "    <changelog author=\"%s\" date=\"%d\">%s</changelog>\n",
			xmlEscape(c.Name), c.Time, xmlEscape(c.Text))
	}
	b.WriteString("  </package>\n")
	return b.String()
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// PrimaryHeader/FilelistsHeader/OtherHeader render the document-level
// wrapper each metadata family needs, with packages counted in the opening
// tag per the repodata schema.
func PrimaryHeader(count int) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<metadata xmlns="http://linux.duke.edu/metadata/common" xmlns:rpm="http://linux.duke.edu/metadata/rpm" packages="` + strconv.Itoa(count) + "\">\n"
}

func FilelistsHeader(count int) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<filelists xmlns="http://linux.duke.edu/metadata/filelists" packages="` + strconv.Itoa(count) + "\">\n"
}

func OtherHeader(count int) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<otherdata xmlns="http://linux.duke.edu/metadata/other" packages="` + strconv.Itoa(count) + "\">\n"
}

const PrimaryFooter = "</metadata>\n"
const FilelistsFooter = "</filelists>\n"
const OtherFooter = "</otherdata>\n"
