package rpm

import "testing"

// Real headers carry the libc.so.6 soname version inside the dependency
// NAME (e.g. "libc.so.6(GLIBC_2.4)(64bit)"), never in REQUIREVERSION, which
// stays empty for these entries. These tests feed that shape rather than
// inventing a Version field no real header populates.
func TestLibcFoldingKeepsHighestVersion(t *testing.T) {
	deps := []Dependency{
		{Name: "libc.so.6()(64bit)", Flags: senseEqual},
		{Name: "libc.so.6(GLIBC_2.2.5)(64bit)", Flags: senseEqual},
		{Name: "libc.so.6(GLIBC_2.4)(64bit)", Flags: senseEqual},
		{Name: "libpcre.so.1()(64bit)", Flags: senseEqual},
	}

	folded := foldLibc(sortDeps(deps))

	var libcCount int
	var gotLibcName string
	for _, d := range folded {
		if d.IsLibc6() {
			libcCount++
			gotLibcName = d.Name
		}
	}
	if libcCount != 1 {
		t.Fatalf("expected exactly one libc.so.6* entry, got %d: %v", libcCount, folded)
	}
	if gotLibcName != "libc.so.6(GLIBC_2.4)(64bit)" {
		t.Errorf("expected highest-versioned libc.so.6 entry to survive, got %q", gotLibcName)
	}
}

func TestLibcFoldingTrailingRunIsFlushed(t *testing.T) {
	deps := []Dependency{
		{Name: "libpcre.so.1()(64bit)", Flags: senseEqual},
		{Name: "libc.so.6()(64bit)", Flags: senseEqual},
		{Name: "libc.so.6(GLIBC_2.4)(64bit)", Flags: senseEqual},
	}

	folded := foldLibc(deps)

	var libcCount int
	for _, d := range folded {
		if d.IsLibc6() {
			libcCount++
		}
	}
	if libcCount != 1 {
		t.Fatalf("expected trailing libc.so.6 run to be flushed into one entry, got %d", libcCount)
	}
}

func TestCompareLibcOrdersByNameEmbeddedVersion(t *testing.T) {
	if compareLibc("libc.so.6()(64bit)", "libc.so.6(GLIBC_2.3.4)(64bit)") >= 0 {
		t.Errorf("expected unversioned libc.so.6() to rank below a versioned entry")
	}
	if compareLibc("libc.so.6(GLIBC_2.3.4)(64bit)", "libc.so.6(GLIBC_2.4)(64bit)") >= 0 {
		t.Errorf("expected GLIBC_2.3.4 to rank below GLIBC_2.4")
	}
}

func TestDumpPrimaryEscapesAndOrdersFields(t *testing.T) {
	p := &Package{
		Name: "a&b", Version: "1.0", Release: "1", Arch: "x86_64",
		Summary: "<desc>", ChecksumType: "sha256", Checksum: "abc123",
		Location: "Packages/a.rpm",
	}
	out := DumpPrimary(p)
	if want := "<name>a&amp;b</name>"; !contains(out, want) {
		t.Errorf("expected escaped name, got:\n%s", out)
	}
	if want := "<summary>&lt;desc&gt;</summary>"; !contains(out, want) {
		t.Errorf("expected escaped summary, got:\n%s", out)
	}

	order := []string{"<name>", "<arch>", "<version ", "<checksum ", "<summary>", "<description>",
		"<packager>", "<url>", "<time ", "<size ", "<location ", "<format>"}
	last := -1
	for _, tag := range order {
		idx := indexOf(out, tag)
		if idx < 0 {
			t.Fatalf("missing %q in:\n%s", tag, out)
		}
		if idx < last {
			t.Errorf("element %q out of order in:\n%s", tag, out)
		}
		last = idx
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
