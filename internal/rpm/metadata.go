package rpm

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// FileEntry is one entry in a package's file list, classified the way
// filelists.xml's type attribute needs: "dir" or "file".
type FileEntry struct {
	Path string
	Type string
}

// Changelog is one rpm:changelog entry.
type Changelog struct {
	Time int64
	Name string
	Text string
}

// Package is the header-independent representation the xml.go dumpers
// consume, projected once from a header so primary/filelists/other all
// draw from the same fields.
type Package struct {
	Name, Version, Release, Arch string
	Epoch                        string // "" if unset/zero, else decimal
	Summary, Description         string
	URL, License, Vendor, Group  string
	Packager, BuildHost          string
	BuildTime                    int64
	InstallTime                  int64 // unused for repo metadata, kept for parity
	Size, ArchiveSize            int64
	SourceRPM                    string

	Provides, Requires, Conflicts, Obsoletes []Dependency

	Files      []FileEntry
	Changelogs []Changelog

	// Checksum/location/file time are filled in by the caller (the
	// reconciler), which is the only place that knows the artifact's
	// storage path and mtime.
	ChecksumType string
	Checksum     string
	Location     string
	PackageSize  int64
	FileTime     float64
	HeaderStart  int64
	HeaderEnd    int64
}

// decodeStr mirrors get_with_decode: headers are nominally UTF-8 but some
// ancient packages carry Latin-1 text in string tags, so a failed UTF-8
// decode falls back to treating the bytes as Latin-1.
func decodeStr(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	for _, c := range []byte(s) {
		b.WriteRune(rune(c))
	}
	return b.String()
}

// parseVerStr splits an RPM version string "[epoch:]version[-release]" into
// its three components.
func parseVerStr(v string) (epoch, version, release string) {
	if idx := strings.IndexByte(v, ':'); idx >= 0 {
		epoch = v[:idx]
		v = v[idx+1:]
	}
	if idx := strings.LastIndexByte(v, '-'); idx >= 0 {
		version = v[:idx]
		release = v[idx+1:]
	} else {
		version = v
	}
	return epoch, version, release
}

// zipDeps reconstructs a Dependency slice from a header's parallel
// name/flags/version arrays, skipping rpmlib-only dependencies.
func zipDeps(names, versions []string, flags []uint32, filterRPMLib bool) []Dependency {
	deps := make([]Dependency, 0, len(names))
	for i, name := range names {
		var fl uint32
		if i < len(flags) {
			fl = flags[i]
		}
		if filterRPMLib && fl&senseRPMLib != 0 {
			continue
		}
		var ver string
		if i < len(versions) {
			ver = versions[i]
		}
		deps = append(deps, Dependency{Name: name, Flags: fl, Version: ver})
	}
	return deps
}

// HeaderToPackage transforms a decoded header into the package-agnostic
// shape the XML dumpers consume, unifying what would otherwise be three
// separate projections (for primary, filelists, other) since all three
// draw from the same fields.
func HeaderToPackage(h Header) (*Package, error) {
	name, ok := h.Str("NAME")
	if !ok {
		return nil, fmt.Errorf("rpm: header missing NAME tag")
	}

	epoch := ""
	if e, ok := h.Int("EPOCH"); ok && e != 0 {
		epoch = strconv.FormatInt(e, 10)
	}

	version, _ := h.Str("VERSION")
	release, _ := h.Str("RELEASE")
	arch, _ := h.Str("ARCH")
	if isSourcePackage(h) {
		arch = "src"
	}

	buildTime, _ := h.Int("BUILDTIME")
	size, _ := h.Int("SIZE")
	// archive size comes from the signature section's PAYLOADSIZE, not the
	// main header's ARCHIVESIZE tag, which modern RPMs frequently omit.
	archiveSize, _ := h.Int("PAYLOADSIZE")
	sourceRPM, _ := h.Str("SOURCERPM")
	summary, _ := h.Str("SUMMARY")
	description, _ := h.Str("DESCRIPTION")
	url, _ := h.Str("URL")
	license, _ := h.Str("LICENSE")
	vendor, _ := h.Str("VENDOR")
	group, _ := h.Str("GROUP")
	packager, _ := h.Str("PACKAGER")
	buildHost, _ := h.Str("BUILDHOST")

	p := &Package{
		Name:        name,
		Version:     version,
		Release:     release,
		Arch:        arch,
		Epoch:       epoch,
		Summary:     decodeStr(summary),
		Description: decodeStr(description),
		URL:         url,
		License:     license,
		Vendor:      vendor,
		Group:       group,
		Packager:    packager,
		BuildHost:   buildHost,
		BuildTime:   buildTime,
		Size:        size,
		ArchiveSize: archiveSize,
		SourceRPM:   sourceRPM,
	}

	p.Files = buildFiles(h)
	p.Changelogs = buildChangelogs(h)

	p.Provides = depsFromHeader(h, "PROVIDENAME", "PROVIDEVERSION", "PROVIDEFLAGS", true)
	requires := depsFromHeader(h, "REQUIRENAME", "REQUIREVERSION", "REQUIREFLAGS", true)
	requires = filterSelfProvides(requires, p)
	requires = filterPrimaryFileRequires(requires, p)
	p.Requires = requires
	p.Conflicts = depsFromHeader(h, "CONFLICTNAME", "CONFLICTVERSION", "CONFLICTFLAGS", false)
	p.Obsoletes = depsFromHeader(h, "OBSOLETENAME", "OBSOLETEVERSION", "OBSOLETEFLAGS", false)

	return p, nil
}

func isSourcePackage(h Header) bool {
	if v, ok := h.Int("SOURCEPACKAGE"); ok && v == 1 {
		return true
	}
	_, hasSourceRPM := h.Str("SOURCERPM")
	return !hasSourceRPM
}

func depsFromHeader(h Header, nameTag, verTag, flagTag string, filterRPMLib bool) []Dependency {
	names := h.StrList(nameTag)
	if len(names) == 0 {
		return nil
	}
	versions := h.StrList(verTag)
	flags := h.Uint32List(flagTag)
	return zipDeps(names, versions, flags, filterRPMLib)
}

// isPrimaryFilePath reports whether path qualifies as a "primary file":
// under /etc/, exactly /usr/lib/sendmail, or containing "bin/" anywhere
// in it.
func isPrimaryFilePath(path string) bool {
	return strings.HasPrefix(path, "/etc/") ||
		path == "/usr/lib/sendmail" ||
		strings.Contains(path, "bin/")
}

// filterSelfProvides drops requires entries whose (name, epoch, version,
// release, operator) tuple exactly matches one of the package's own
// provides ("self-provides").
func filterSelfProvides(reqs []Dependency, p *Package) []Dependency {
	if len(reqs) == 0 || len(p.Provides) == 0 {
		return reqs
	}
	provided := make(map[string]bool, len(p.Provides))
	for _, pr := range p.Provides {
		provided[depIdentityKey(pr)] = true
	}
	out := make([]Dependency, 0, len(reqs))
	for _, r := range reqs {
		if provided[depIdentityKey(r)] {
			continue
		}
		out = append(out, r)
	}
	return out
}

func depIdentityKey(d Dependency) string {
	epoch, version, release := parseVerStr(d.Version)
	if epoch == "" {
		epoch = "0"
	}
	return d.Name + "\x00" + epoch + "\x00" + version + "\x00" + release + "\x00" + depFlagString(d.Flags)
}

// filterPrimaryFileRequires drops requires naming a primary-file path that
// the package also provides as one of its own files.
func filterPrimaryFileRequires(reqs []Dependency, p *Package) []Dependency {
	if len(reqs) == 0 {
		return reqs
	}
	ownFiles := make(map[string]bool, len(p.Files))
	for _, f := range p.Files {
		ownFiles[f.Path] = true
	}
	out := make([]Dependency, 0, len(reqs))
	for _, r := range reqs {
		if isPrimaryFilePath(r.Name) && ownFiles[r.Name] {
			continue
		}
		out = append(out, r)
	}
	return out
}

// buildFiles reconstructs the file list by zipping BASENAMES/DIRINDEXES
// against FILEMODES (reinterpreted as uint16): S_ISDIR -> "dir", S_ISREG or
// S_ISLNK -> "file", anything else is skipped entirely. Additionally every
// DIRNAMES entry is emitted as a standalone "dir".
func buildFiles(h Header) []FileEntry {
	baseNames := h.StrList("BASENAMES")
	dirNames := h.StrList("DIRNAMES")
	dirIndexes := h.Uint32List("DIRINDEXES")
	modes := modesAsUint32(h)

	const sIFMT = 0o170000
	const sIFDIR = 0o040000
	const sIFREG = 0o100000
	const sIFLNK = 0o120000

	var out []FileEntry
	for i, base := range baseNames {
		var dir string
		if i < len(dirIndexes) && int(dirIndexes[i]) < len(dirNames) {
			dir = dirNames[dirIndexes[i]]
		}
		path := dir + base

		var mode uint32
		if i < len(modes) {
			mode = modes[i]
		}

		switch mode & sIFMT {
		case sIFDIR:
			out = append(out, FileEntry{Path: path, Type: "dir"})
		case sIFREG, sIFLNK:
			out = append(out, FileEntry{Path: path, Type: "file"})
		}
	}

	for _, dir := range dirNames {
		out = append(out, FileEntry{Path: dir, Type: "dir"})
	}

	return out
}

func modesAsUint32(h Header) []uint32 {
	v, ok := h["FILEMODES"]
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case []int16:
		out := make([]uint32, len(t))
		for i, m := range t {
			out[i] = uint32(uint16(m))
		}
		return out
	case int16:
		return []uint32{uint32(uint16(t))}
	}
	return nil
}

// buildChangelogs takes only the 10 most recent entries (they arrive
// newest-first in the header) then reverses them back to chronological
// order for emission.
func buildChangelogs(h Header) []Changelog {
	times := h.Uint32List("CHANGELOGTIME")
	names := h.StrList("CHANGELOGNAME")
	texts := h.StrList("CHANGELOGTEXT")

	n := len(times)
	if len(names) < n {
		n = len(names)
	}
	if len(texts) < n {
		n = len(texts)
	}
	if n > 10 {
		n = 10
	}

	out := make([]Changelog, n)
	for i := 0; i < n; i++ {
		out[i] = Changelog{
			Time: int64(times[i]),
			Name: decodeStr(names[i]),
			Text: decodeStr(texts[i]),
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// SortForEmission orders packages deterministically by identity: name,
// then evr, then arch.
func SortForEmission(pkgs []*Package) {
	sort.SliceStable(pkgs, func(i, j int) bool {
		a, b := pkgs[i], pkgs[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if c := compareVersion(evrString(a), evrString(b)); c != 0 {
			return c < 0
		}
		return a.Arch < b.Arch
	})
}

func evrString(p *Package) string {
	v := p.Version
	if p.Epoch != "" {
		v = p.Epoch + ":" + v
	}
	if p.Release != "" {
		v = v + "-" + p.Release
	}
	return v
}
