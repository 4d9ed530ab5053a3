package deb

import (
	"fmt"

	"github.com/tarantool/mkrepo/internal/compressutil"
	"github.com/tarantool/mkrepo/internal/control"
	"github.com/tarantool/mkrepo/internal/hashutil"
)

// EmittedFile is one Packages/Sources artifact (plain, .gz or .bz2) ready
// to be written to storage, with its checksum pre-computed for the
// Release manifest.
type EmittedFile struct {
	RelPath  string // relative to dists/<dist>/, e.g. "main/binary-amd64/Packages.gz"
	Contents []byte
	Checksum hashutil.Checksums
}

// EmitPackageIndex renders a PackageIndex's plain/gz/bz2 triple.
func EmitPackageIndex(idx *PackageIndex, units []*BinaryPackage) ([]EmittedFile, error) {
	stanzas := make([]*control.File, len(units))
	for i, u := range units {
		stanzas[i] = u.File
	}
	plain := []byte(control.DumpStanzas(stanzas))
	subdir := fmt.Sprintf("%s/binary-%s", idx.Component, idx.Arch)
	return emitTriple(subdir, "Packages", plain)
}

// EmitSourceIndex renders a SourceIndex's plain/gz/bz2 triple.
func EmitSourceIndex(idx *SourceIndex, units []*SourcePackage) ([]EmittedFile, error) {
	stanzas := make([]*control.File, len(units))
	for i, u := range units {
		stanzas[i] = u.File
	}
	plain := []byte(control.DumpStanzas(stanzas))
	subdir := fmt.Sprintf("%s/source", idx.Component)
	return emitTriple(subdir, "Sources", plain)
}

func emitTriple(subdir, name string, plain []byte) ([]EmittedFile, error) {
	gz, err := compressutil.Gzip(plain)
	if err != nil {
		return nil, fmt.Errorf("deb: gzip %s: %w", name, err)
	}
	bz2, err := compressutil.Bzip2(plain)
	if err != nil {
		return nil, fmt.Errorf("deb: bzip2 %s: %w", name, err)
	}

	return []EmittedFile{
		{RelPath: subdir + "/" + name, Contents: plain, Checksum: hashutil.Sum(plain)},
		{RelPath: subdir + "/" + name + ".gz", Contents: gz, Checksum: hashutil.Sum(gz)},
		{RelPath: subdir + "/" + name + ".bz2", Contents: bz2, Checksum: hashutil.Sum(bz2)},
	}, nil
}
