package rpm

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tarantool/mkrepo/internal/compressutil"
	"github.com/tarantool/mkrepo/internal/hashutil"
	"github.com/tarantool/mkrepo/internal/reconcile"
	"github.com/tarantool/mkrepo/internal/signer"
	"github.com/tarantool/mkrepo/internal/storage"
)

// Options configures one Reconcile run.
type Options struct {
	// RPMPrefix is the storage prefix under which *.rpm artifacts are
	// listed (e.g. "Packages").
	RPMPrefix string
	// Force enables force mode: malformed artifacts are recorded in
	// repodata/malformed_list.txt instead of aborting the run.
	Force bool
	// ScratchRoot is the local directory Scratch subdirectories are
	// created under.
	ScratchRoot string
	// Signer, if non-nil, produces repodata/repomd.xml.asc.
	Signer signer.Signer
}

// Reconcile runs one full diff-parse-emit cycle against s.
func Reconcile(ctx context.Context, s storage.Storage, opts Options, log *logrus.Logger) error {
	previous, err := LoadPrevious(ctx, s, "")
	if err != nil {
		return err
	}

	primary := map[string]*Package{}
	var prevMD *RepoMD
	if previous != nil {
		prevMD = previous
		if e, ok := previous.Entries[KindPrimary]; ok && e.Location != "" {
			primary, err = loadFamily(ctx, s, e.Location, ParsePrimary)
			if err != nil {
				return &reconcile.MalformedIndex{Path: e.Location, Err: err}
			}
		}
		filelists := map[string][]FileEntry{}
		if e, ok := previous.Entries[KindFilelists]; ok && e.Location != "" {
			raw, err := loadGzip(ctx, s, e.Location)
			if err != nil {
				return &reconcile.MalformedIndex{Path: e.Location, Err: err}
			}
			if raw != nil {
				filelists, err = ParseFilelists(raw)
				if err != nil {
					return &reconcile.MalformedIndex{Path: e.Location, Err: err}
				}
			}
		}
		other := map[string][]Changelog{}
		if e, ok := previous.Entries[KindOther]; ok && e.Location != "" {
			raw, err := loadGzip(ctx, s, e.Location)
			if err != nil {
				return &reconcile.MalformedIndex{Path: e.Location, Err: err}
			}
			if raw != nil {
				other, err = ParseOther(raw)
				if err != nil {
					return &reconcile.MalformedIndex{Path: e.Location, Err: err}
				}
			}
		}
		MergeFamilies(primary, filelists, other)
	}

	recordedFiles := make(map[string]float64, len(primary))
	for _, p := range primary {
		if p.Location != "" {
			recordedFiles[p.Location] = p.FileTime
		}
	}

	keys, err := s.List(ctx, opts.RPMPrefix)
	if err != nil {
		return &reconcile.StorageFailure{Op: "list", Key: opts.RPMPrefix, Err: err}
	}

	existingFiles := make(map[string]float64)
	for _, k := range keys {
		if !strings.HasSuffix(k, ".rpm") {
			continue
		}
		mtime, err := s.Mtime(ctx, k)
		if err != nil {
			return &reconcile.StorageFailure{Op: "mtime", Key: k, Err: err}
		}
		existingFiles[k] = mtime
	}

	// files_to_delete = recorded_files \ existing_files
	for loc := range recordedFiles {
		if _, ok := existingFiles[loc]; ok {
			continue
		}
		log.Infof("Deleting: '%s'", loc)
		for key, p := range primary {
			if p.Location == loc {
				delete(primary, key)
				break
			}
		}
	}

	// files_to_add = existing_files \ recorded_files
	toAdd := make([]string, 0)
	for path := range existingFiles {
		if _, ok := recordedFiles[path]; !ok {
			toAdd = append(toAdd, path)
		}
	}
	sort.Strings(toAdd)

	scratch, err := reconcile.NewScratch(opts.ScratchRoot)
	if err != nil {
		return err
	}
	defer scratch.Close()

	var malformed []string
	for _, path := range toAdd {
		log.Infof("Adding: '%s'", path)
		p, err := parseArtifact(ctx, s, scratch, path, existingFiles[path])
		if err != nil {
			if !opts.Force {
				return &reconcile.MalformedArtifact{Path: path, Err: err}
			}
			log.Warnf("skipping malformed artifact %q: %v", path, err)
			malformed = append(malformed, path)
			continue
		}
		primary[Identity(p)] = p
	}

	pkgs := make([]*Package, 0, len(primary))
	for _, p := range primary {
		pkgs = append(pkgs, p)
	}
	SortForEmission(pkgs)

	var primaryBody, filelistsBody, otherBody strings.Builder
	primaryBody.WriteString(PrimaryHeader(len(pkgs)))
	filelistsBody.WriteString(FilelistsHeader(len(pkgs)))
	otherBody.WriteString(OtherHeader(len(pkgs)))
	for _, p := range pkgs {
		primaryBody.WriteString(DumpPrimary(p))
		filelistsBody.WriteString(DumpFilelists(p))
		otherBody.WriteString(DumpOther(p))
	}
	primaryBody.WriteString(PrimaryFooter)
	filelistsBody.WriteString(FilelistsFooter)
	otherBody.WriteString(OtherFooter)

	files, repomdXML, err := GenerateRepomd(primaryBody.String(), filelistsBody.String(), otherBody.String(), prevMD, time.Now())
	if err != nil {
		return err
	}

	for _, f := range files {
		if err := s.Write(ctx, f.Path, f.Contents); err != nil {
			return &reconcile.StorageFailure{Op: "write", Key: f.Path, Err: err}
		}
	}
	if err := s.Write(ctx, "repodata/repomd.xml", []byte(repomdXML)); err != nil {
		return &reconcile.StorageFailure{Op: "write", Key: "repodata/repomd.xml", Err: err}
	}

	for _, stale := range StaleEntries(prevMD, files) {
		log.Infof("Deleting: '%s'", stale)
		if err := s.Delete(ctx, stale); err != nil {
			return &reconcile.StorageFailure{Op: "delete", Key: stale, Err: err}
		}
	}

	if opts.Signer != nil {
		sig, err := opts.Signer.SignDetached([]byte(repomdXML))
		if err != nil {
			return &reconcile.SignerFailure{Op: "sign repomd.xml", Err: err}
		}
		if err := s.Write(ctx, "repodata/repomd.xml.asc", sig); err != nil {
			return &reconcile.StorageFailure{Op: "write", Key: "repodata/repomd.xml.asc", Err: err}
		}
	}

	if err := reconcile.SaveOrDeleteMalformedList(ctx, s, "repodata/malformed_list.txt", malformed, log); err != nil {
		return err
	}

	return nil
}

func loadGzip(ctx context.Context, s storage.Storage, path string) ([]byte, error) {
	exists, err := s.Exists(ctx, path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	raw, err := s.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	return compressutil.Gunzip(raw)
}

func loadFamily(ctx context.Context, s storage.Storage, path string, parse func([]byte) (map[string]*Package, error)) (map[string]*Package, error) {
	raw, err := loadGzip(ctx, s, path)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return map[string]*Package{}, nil
	}
	return parse(raw)
}

func parseArtifact(ctx context.Context, s storage.Storage, scratch *reconcile.Scratch, path string, mtime float64) (*Package, error) {
	local := scratch.Path(path)
	if err := s.Download(ctx, path, local); err != nil {
		return nil, fmt.Errorf("downloading %s: %w", path, err)
	}

	f, err := os.Open(local)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	parsed, err := ParseFile(f)
	if err != nil {
		return nil, err
	}

	pkg, err := HeaderToPackage(parsed.Header)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(local)
	if err != nil {
		return nil, err
	}
	sum := hashutil.Sum(raw)

	pkg.ChecksumType = "sha256"
	pkg.Checksum = sum.SHA256
	pkg.Location = path
	pkg.PackageSize = sum.Size
	pkg.FileTime = mtime
	pkg.HeaderStart = parsed.HeaderStart
	pkg.HeaderEnd = parsed.HeaderEnd

	return pkg, nil
}
