package rpm

import (
	"strings"

	rpmversion "github.com/knqyf263/go-rpm-version"
)

// Dependency is one provides/requires/conflicts/obsoletes entry, after
// decoding the parallel name/flags/version arrays off a header.
type Dependency struct {
	Name    string
	Flags   uint32
	Version string // e.g. "1:1.2.3-4" or "" if unversioned
}

// IsLibc6 reports whether d is a libc.so.6 dependency, the one case this
// package folds consecutive duplicate entries for.
func (d Dependency) IsLibc6() bool {
	return d.Name == "libc.so.6" || strings.HasPrefix(d.Name, "libc.so.6(")
}

// compareVersion compares two RPM version strings of the form
// "[epoch:]version[-release]" using RPM's segment-wise comparator. It
// returns -1, 0, or 1.
func compareVersion(a, b string) int {
	if a == b {
		return 0
	}
	va := rpmversion.NewVersion(a)
	vb := rpmversion.NewVersion(b)
	return va.Compare(vb)
}

// libcParenVersion extracts the version token carried inside a libc.so.6
// dependency's *name*, e.g. "libc.so.6(GLIBC_2.4)(64bit)" -> "2.4". A name
// with empty or absent parentheses (plain "libc.so.6" or "libc.so.6()")
// yields "", which compareLibc treats as lower than any real version.
func libcParenVersion(name string) string {
	open := strings.IndexByte(name, '(')
	if open == -1 {
		return ""
	}
	end := strings.IndexByte(name[open:], ')')
	if end == -1 {
		return ""
	}
	inner := name[open+1 : open+end]
	if inner == "" {
		return ""
	}
	i := 0
	for i < len(inner) && !(inner[i] >= '0' && inner[i] <= '9') {
		i++
	}
	if i == len(inner) {
		return ""
	}
	return inner[i:]
}

// compareLibc compares two libc.so.6 dependency names by the version token
// embedded in their parenthesised suffix (REQUIREVERSION is always empty
// for these entries; the real version lives in the name). Returns -1, 0, 1.
func compareLibc(a, b string) int {
	va, vb := libcParenVersion(a), libcParenVersion(b)
	if va == "" && vb == "" {
		return 0
	}
	if va == "" {
		return -1
	}
	if vb == "" {
		return 1
	}
	return compareVersion(va, vb)
}

// foldLibc folds a run of consecutive libc.so.6 dependency entries down to
// the single highest-versioned one. deps must already be sorted the way
// the caller intends to emit them; only *adjacent* libc.so.6 entries are
// folded, so callers that need the fold to apply to every libc.so.6 entry
// regardless of position must sort libc.so.6 entries together first.
//
// The run's highest-versioned entry is tracked and flushed when the run
// breaks or the loop ends — including at the very end of the list, so a
// trailing run is never silently dropped.
func foldLibc(deps []Dependency) []Dependency {
	var out []Dependency
	var pending *Dependency

	flush := func() {
		if pending != nil {
			out = append(out, *pending)
			pending = nil
		}
	}

	for i := range deps {
		d := deps[i]
		if !d.IsLibc6() {
			flush()
			out = append(out, d)
			continue
		}
		if pending == nil {
			pending = &d
			continue
		}
		if compareLibc(d.Name, pending.Name) > 0 {
			pending = &d
		}
	}
	flush()

	return out
}
