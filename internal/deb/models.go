package deb

import (
	"github.com/tarantool/mkrepo/internal/control"
)

// BinaryPackage wraps one control stanza from a .deb's control file plus
// the size/checksum/location fields the reconciler fills in after
// extraction. Identity = (Package, Version, Architecture)
type BinaryPackage struct {
	*control.File
}

// Identity returns the (Package, Version, Architecture) tuple.
func (p *BinaryPackage) Identity() (string, string, string) {
	name, _ := p.Get("Package")
	version, _ := p.Get("Version")
	arch, _ := p.Get("Architecture")
	return name, version, arch
}

func binaryKey(name, version, arch string) string {
	return name + "\x00" + version + "\x00" + arch
}

// SourcePackage wraps a parsed .dsc. Identity = (Package, Version).
type SourcePackage struct {
	*control.File
}

// Identity returns the (Package, Version) tuple.
func (p *SourcePackage) Identity() (string, string) {
	name, _ := p.Get("Package")
	version, _ := p.Get("Version")
	return name, version
}

func sourceKey(name, version string) string {
	return name + "\x00" + version
}

// PackageIndex holds the BinaryPackage units for one (distribution,
// component, architecture) key, with set semantics on identity.
type PackageIndex struct {
	Dist, Component, Arch string
	units                 map[string]*BinaryPackage
}

// NewPackageIndex returns an empty index for the given key.
func NewPackageIndex(dist, component, arch string) *PackageIndex {
	return &PackageIndex{Dist: dist, Component: component, Arch: arch, units: make(map[string]*BinaryPackage)}
}

// Put inserts p, replacing any prior unit with the same identity.
func (idx *PackageIndex) Put(p *BinaryPackage) {
	name, version, arch := p.Identity()
	idx.units[binaryKey(name, version, arch)] = p
}

// Get looks up a unit by its (Package, Version, Architecture) identity.
func (idx *PackageIndex) Get(name, version, arch string) (*BinaryPackage, bool) {
	p, ok := idx.units[binaryKey(name, version, arch)]
	return p, ok
}

// Units returns every package currently in the index, in no particular
// order; callers needing deterministic output must sort.
func (idx *PackageIndex) Units() []*BinaryPackage {
	out := make([]*BinaryPackage, 0, len(idx.units))
	for _, p := range idx.units {
		out = append(out, p)
	}
	return out
}

// Len reports the number of units currently indexed.
func (idx *PackageIndex) Len() int { return len(idx.units) }

// SourceIndex holds SourcePackage units for one (distribution, component)
// key.
type SourceIndex struct {
	Dist, Component string
	units           map[string]*SourcePackage
}

// NewSourceIndex returns an empty index for the given key.
func NewSourceIndex(dist, component string) *SourceIndex {
	return &SourceIndex{Dist: dist, Component: component, units: make(map[string]*SourcePackage)}
}

// Put inserts p, replacing any prior unit with the same identity.
func (idx *SourceIndex) Put(p *SourcePackage) {
	name, version := p.Identity()
	idx.units[sourceKey(name, version)] = p
}

// Units returns every package currently in the index.
func (idx *SourceIndex) Units() []*SourcePackage {
	out := make([]*SourcePackage, 0, len(idx.units))
	for _, p := range idx.units {
		out = append(out, p)
	}
	return out
}

// Len reports the number of units currently indexed.
func (idx *SourceIndex) Len() int { return len(idx.units) }
