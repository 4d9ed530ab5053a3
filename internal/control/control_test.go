package control

import "testing"

func TestParseDumpRoundTrip(t *testing.T) {
	src := "Package: openssl\nVersion: 1.1.1f-1ubuntu2\nArchitecture: amd64\n" +
		"Depends: libc6 (>= 2.15), libssl1.1 (>= 1.1.1)\n"

	f, err := Parse([]byte(src), false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got, _ := f.Get("Package"); got != "openssl" {
		t.Errorf("Package = %q, want openssl", got)
	}
	if got := f.Keys(); len(got) != 4 || got[0] != "Package" || got[3] != "Depends" {
		t.Errorf("Keys() = %v, want insertion order preserved", got)
	}

	if got := f.Dump(); got != src {
		t.Errorf("round-trip mismatch:\ngot:  %q\nwant: %q", got, src)
	}
}

func TestParseContinuationLine(t *testing.T) {
	src := "Description: short\n long line one\n ."
	f, err := Parse([]byte(src), false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := "short\n long line one\n ."
	if got, _ := f.Get("Description"); got != want {
		t.Errorf("Description = %q, want %q", got, want)
	}
}

func TestParseSourceRename(t *testing.T) {
	f, err := Parse([]byte("Source: tarantool\nVersion: 1.5.2\n"), true)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := f.Get("Source"); ok {
		t.Error("Source key should have been renamed away")
	}
	if got, _ := f.Get("Package"); got != "tarantool" {
		t.Errorf("Package = %q, want tarantool", got)
	}
	if got := f.Keys()[0]; got != "Package" {
		t.Errorf("renamed key lost its position: Keys()[0] = %q", got)
	}
}

func TestParseMultilineChecksumEmit(t *testing.T) {
	f := New()
	f.Set("Package", "foo")
	f.Append("Files", "abcd1234 100 foo_1.0.tar.gz")
	f.Append("Files", "ef567890 200 foo_1.0.dsc")

	got := f.Dump()
	want := "Package: foo\nFiles:\n abcd1234 100 foo_1.0.tar.gz\n ef567890 200 foo_1.0.dsc\n"
	if got != want {
		t.Errorf("Dump() =\n%q\nwant\n%q", got, want)
	}
}

func TestParseRejectsContinuationWithoutField(t *testing.T) {
	if _, err := Parse([]byte(" leading continuation"), false); err == nil {
		t.Error("expected error for continuation line with no pending field")
	}
}

func TestParseRejectsLineWithoutColon(t *testing.T) {
	if _, err := Parse([]byte("NoColonHere"), false); err == nil {
		t.Error("expected error for line without a colon")
	}
}

func TestDumpStanzas(t *testing.T) {
	a := New()
	a.Set("Package", "foo")
	b := New()
	b.Set("Package", "bar")

	got := DumpStanzas([]*File{a, b})
	want := "Package: foo\n\nPackage: bar\n"
	if got != want {
		t.Errorf("DumpStanzas() = %q, want %q", got, want)
	}
}
