package deb

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tarantool/mkrepo/internal/control"
	"github.com/tarantool/mkrepo/internal/reconcile"
	"github.com/tarantool/mkrepo/internal/signer"
	"github.com/tarantool/mkrepo/internal/storage"
)

// Options configures one Reconcile run for a single distribution.
type Options struct {
	Dist         string
	Origin       string
	Label        string
	Description  string
	Architectures []string
	Force        bool
	ScratchRoot  string
	Signer       signer.Signer
}

const component = "main" // only the main component is supported

// Reconcile runs one full diff-parse-emit cycle for opts.Dist.
func Reconcile(ctx context.Context, s storage.Storage, opts Options, log *logrus.Logger) error {
	archs, err := discoverArchitectures(ctx, s, opts.Dist, opts.Architectures)
	if err != nil {
		return err
	}

	binaryIndexes := make(map[string]*PackageIndex) // keyed by arch
	for _, arch := range archs {
		idx := NewPackageIndex(opts.Dist, component, arch)
		if err := loadPackages(ctx, s, opts.Dist, idx); err != nil {
			return err
		}
		binaryIndexes[arch] = idx
	}

	sourceIdx := NewSourceIndex(opts.Dist, component)
	if err := loadSources(ctx, s, opts.Dist, sourceIdx); err != nil {
		return err
	}

	recordedMtimes := make(map[string]string) // Filename -> FileTime
	for _, idx := range binaryIndexes {
		for _, p := range idx.Units() {
			if fn, ok := p.Get("Filename"); ok {
				if ft, ok := p.Get("FileTime"); ok {
					recordedMtimes[fn] = ft
				}
			}
		}
	}
	for _, p := range sourceIdx.Units() {
		if fn, ok := p.Get("Filename"); ok {
			if ft, ok := p.Get("FileTime"); ok {
				recordedMtimes[fn] = ft
			}
		}
	}

	scratch, err := reconcile.NewScratch(opts.ScratchRoot)
	if err != nil {
		return err
	}
	defer scratch.Close()

	malformed := map[string][]string{} // dist -> paths; single-dist run but keyed for symmetry with the RPM reconciler

	debKeys, err := listSuffix(ctx, s, "pool/", ".deb")
	if err != nil {
		return err
	}
	for _, path := range debKeys {
		parsed, err := ParseDebFilename(path)
		if err != nil {
			if !opts.Force {
				return &reconcile.FilenameUnparseable{Path: path}
			}
			dist := distFromPoolPath(path)
			malformed[dist] = append(malformed[dist], path)
			continue
		}
		if parsed.Dist != opts.Dist {
			continue
		}

		mtime, err := s.Mtime(ctx, path)
		if err != nil {
			return &reconcile.StorageFailure{Op: "mtime", Key: path, Err: err}
		}
		mtimeStr := formatMtime(mtime)
		if recordedMtimes[path] == mtimeStr {
			log.Infof("Skipping: '%s'", path)
			continue
		}

		idx, ok := binaryIndexes[parsed.Arch]
		if !ok {
			idx = NewPackageIndex(opts.Dist, component, parsed.Arch)
			binaryIndexes[parsed.Arch] = idx
		}

		verb := "Adding"
		if _, existed := recordedMtimes[path]; existed {
			verb = "Updating"
		}
		log.Infof("%s: '%s'", verb, path)

		local := scratch.Path(path)
		if err := s.Download(ctx, path, local); err != nil {
			return fmt.Errorf("downloading %s: %w", path, err)
		}
		data, err := readScratchFile(local)
		if err != nil {
			return err
		}

		pkg, err := ParseDebBytes(data, path, mtime)
		if err != nil {
			if !opts.Force {
				return &reconcile.MalformedArtifact{Path: path, Err: err}
			}
			log.Warnf("skipping malformed artifact %q: %v", path, err)
			malformed[opts.Dist] = append(malformed[opts.Dist], path)
			continue
		}
		idx.Put(pkg)
	}

	dscKeys, err := listSuffix(ctx, s, "pool/", ".dsc")
	if err != nil {
		return err
	}
	for _, path := range dscKeys {
		dist := distFromPoolPath(path)
		if dist != opts.Dist {
			continue
		}

		mtime, err := s.Mtime(ctx, path)
		if err != nil {
			return &reconcile.StorageFailure{Op: "mtime", Key: path, Err: err}
		}
		mtimeStr := formatMtime(mtime)
		if recordedMtimes[path] == mtimeStr {
			log.Infof("Skipping: '%s'", path)
			continue
		}

		verb := "Adding"
		if _, existed := recordedMtimes[path]; existed {
			verb = "Updating"
		}
		log.Infof("%s: '%s'", verb, path)

		local := scratch.Path(path)
		if err := s.Download(ctx, path, local); err != nil {
			return fmt.Errorf("downloading %s: %w", path, err)
		}
		data, err := readScratchFile(local)
		if err != nil {
			return err
		}

		src, err := ParseDscBytes(data, path, mtime)
		if err != nil {
			if !opts.Force {
				return &reconcile.MalformedArtifact{Path: path, Err: err}
			}
			log.Warnf("skipping malformed artifact %q: %v", path, err)
			malformed[opts.Dist] = append(malformed[opts.Dist], path)
			continue
		}
		sourceIdx.Put(src)
	}

	var allFiles []EmittedFile
	archNames := make([]string, 0, len(binaryIndexes))
	for arch := range binaryIndexes {
		archNames = append(archNames, arch)
	}
	sort.Strings(archNames)

	for _, arch := range archNames {
		idx := binaryIndexes[arch]
		units := sortBinaryUnits(idx.Units())
		files, err := EmitPackageIndex(idx, units)
		if err != nil {
			return err
		}
		allFiles = append(allFiles, files...)
	}

	if sourceIdx.Len() > 0 {
		units := sortSourceUnits(sourceIdx.Units())
		files, err := EmitSourceIndex(sourceIdx, units)
		if err != nil {
			return err
		}
		allFiles = append(allFiles, files...)
	}

	for _, f := range allFiles {
		key := "dists/" + opts.Dist + "/" + f.RelPath
		if err := s.Write(ctx, key, f.Contents); err != nil {
			return &reconcile.StorageFailure{Op: "write", Key: key, Err: err}
		}
	}

	release := GenerateRelease(ReleaseInput{
		Origin:        opts.Origin,
		Label:         opts.Label,
		Description:   opts.Description,
		Codename:      opts.Dist,
		Architectures: archNames,
		Components:    []string{component},
		Files:         allFiles,
		Now:           time.Now(),
	})
	releaseKey := "dists/" + opts.Dist + "/Release"
	if err := s.Write(ctx, releaseKey, []byte(release)); err != nil {
		return &reconcile.StorageFailure{Op: "write", Key: releaseKey, Err: err}
	}

	if opts.Signer != nil {
		detached, err := opts.Signer.SignDetached([]byte(release))
		if err != nil {
			return &reconcile.SignerFailure{Op: "sign Release", Err: err}
		}
		if err := s.Write(ctx, "dists/"+opts.Dist+"/Release.gpg", detached); err != nil {
			return &reconcile.StorageFailure{Op: "write", Key: "dists/" + opts.Dist + "/Release.gpg", Err: err}
		}

		inRelease, err := opts.Signer.SignCleartext([]byte(release))
		if err != nil {
			return &reconcile.SignerFailure{Op: "sign InRelease", Err: err}
		}
		if err := s.Write(ctx, "dists/"+opts.Dist+"/InRelease", inRelease); err != nil {
			return &reconcile.StorageFailure{Op: "write", Key: "dists/" + opts.Dist + "/InRelease", Err: err}
		}
	}

	return reconcile.SaveOrDeleteMalformedList(ctx, s,
		"dists/"+opts.Dist+"/malformed_list.txt", malformed[opts.Dist], log)
}

func sortBinaryUnits(units []*BinaryPackage) []*BinaryPackage {
	sort.SliceStable(units, func(i, j int) bool {
		ni, vi, ai := units[i].Identity()
		nj, vj, aj := units[j].Identity()
		if ni != nj {
			return ni < nj
		}
		if vi != vj {
			return vi < vj
		}
		return ai < aj
	})
	return units
}

func sortSourceUnits(units []*SourcePackage) []*SourcePackage {
	sort.SliceStable(units, func(i, j int) bool {
		ni, vi := units[i].Identity()
		nj, vj := units[j].Identity()
		if ni != nj {
			return ni < nj
		}
		return vi < vj
	})
	return units
}

func listSuffix(ctx context.Context, s storage.Storage, prefix, suffix string) ([]string, error) {
	keys, err := s.List(ctx, prefix)
	if err != nil {
		return nil, &reconcile.StorageFailure{Op: "list", Key: prefix, Err: err}
	}
	out := keys[:0:0]
	for _, k := range keys {
		if strings.HasSuffix(k, suffix) {
			out = append(out, k)
		}
	}
	return out, nil
}

// discoverArchitectures unions the caller-requested architectures with
// whatever dists/<dist>/Release already lists, so existing binary-<arch>
// indices a prior run created are reloaded even if this run's caller only
// names a subset.
func discoverArchitectures(ctx context.Context, s storage.Storage, dist string, requested []string) ([]string, error) {
	seen := make(map[string]bool, len(requested))
	out := append([]string(nil), requested...)
	for _, a := range requested {
		seen[a] = true
	}

	key := "dists/" + dist + "/Release"
	exists, err := s.Exists(ctx, key)
	if err != nil {
		return nil, &reconcile.StorageFailure{Op: "exists", Key: key, Err: err}
	}
	if !exists {
		return out, nil
	}

	data, err := s.Read(ctx, key)
	if err != nil {
		return nil, &reconcile.StorageFailure{Op: "read", Key: key, Err: err}
	}
	release, err := control.Parse(data, false)
	if err != nil {
		return nil, &reconcile.MalformedIndex{Path: key, Err: err}
	}
	if archLine, ok := release.Get("Architectures"); ok {
		for _, a := range strings.Fields(archLine) {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	return out, nil
}

func loadPackages(ctx context.Context, s storage.Storage, dist string, idx *PackageIndex) error {
	key := fmt.Sprintf("dists/%s/%s/binary-%s/Packages", dist, component, idx.Arch)
	exists, err := s.Exists(ctx, key)
	if err != nil {
		return &reconcile.StorageFailure{Op: "exists", Key: key, Err: err}
	}
	if !exists {
		return nil
	}
	data, err := s.Read(ctx, key)
	if err != nil {
		return &reconcile.StorageFailure{Op: "read", Key: key, Err: err}
	}
	stanzas, err := control.ParseStanzas(data)
	if err != nil {
		return &reconcile.MalformedIndex{Path: key, Err: err}
	}
	for _, st := range stanzas {
		idx.Put(&BinaryPackage{File: st})
	}
	return nil
}

func loadSources(ctx context.Context, s storage.Storage, dist string, idx *SourceIndex) error {
	key := fmt.Sprintf("dists/%s/%s/source/Sources", dist, component)
	exists, err := s.Exists(ctx, key)
	if err != nil {
		return &reconcile.StorageFailure{Op: "exists", Key: key, Err: err}
	}
	if !exists {
		return nil
	}
	data, err := s.Read(ctx, key)
	if err != nil {
		return &reconcile.StorageFailure{Op: "read", Key: key, Err: err}
	}
	stanzas, err := control.ParseStanzas(data)
	if err != nil {
		return &reconcile.MalformedIndex{Path: key, Err: err}
	}
	for _, st := range stanzas {
		idx.Put(&SourcePackage{File: st})
	}
	return nil
}

func readScratchFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
