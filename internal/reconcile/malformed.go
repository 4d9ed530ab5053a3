package reconcile

import (
	"context"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tarantool/mkrepo/internal/storage"
)

// SaveOrDeleteMalformedList writes the newline-joined, sorted list of
// malformed paths to path, or deletes path if the list is empty (spec
// §4.9 step 6/7, §7's "Save malformed list… / Delete malformed list…"
// progress lines).
func SaveOrDeleteMalformedList(ctx context.Context, s storage.Storage, path string, paths []string, log *logrus.Logger) error {
	if len(paths) == 0 {
		log.Infof("Delete malformed list: '%s'", path)
		if err := s.Delete(ctx, path); err != nil {
			return &StorageFailure{Op: "delete", Key: path, Err: err}
		}
		return nil
	}

	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	log.Infof("Save malformed list: '%s'", path)
	if err := s.Write(ctx, path, []byte(strings.Join(sorted, "\n")+"\n")); err != nil {
		return &StorageFailure{Op: "write", Key: path, Err: err}
	}
	return nil
}
