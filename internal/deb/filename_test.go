package deb

import "testing"

func TestParseDebFilenameFullGrammar(t *testing.T) {
	got, err := ParseDebFilename("pool/focal/main/o/openssl/openssl_1.1.1f-1ubuntu2_amd64.deb")
	if err != nil {
		t.Fatalf("ParseDebFilename: %v", err)
	}
	if got.Package != "openssl" || got.Version != "1.1.1f-1ubuntu2" || got.Arch != "amd64" || got.Dist != "focal" {
		t.Errorf("got %+v", got)
	}
}

func TestParseDebFilenameNoRevisionFallback(t *testing.T) {
	got, err := ParseDebFilename("pool/focal/main/f/foo/foo_2.0_all.deb")
	if err != nil {
		t.Fatalf("ParseDebFilename: %v", err)
	}
	if got.Package != "foo" || got.Version != "2.0" || got.Arch != "all" {
		t.Errorf("got %+v", got)
	}
}

func TestParseDebFilenameDistDefaultsToAll(t *testing.T) {
	got, err := ParseDebFilename("somewhere/else/foo_1.0-1_amd64.deb")
	if err != nil {
		t.Fatalf("ParseDebFilename: %v", err)
	}
	if got.Dist != "all" {
		t.Errorf("Dist = %q, want all", got.Dist)
	}
}

func TestParseDebFilenameRejectsGarbage(t *testing.T) {
	if _, err := ParseDebFilename("pool/focal/main/n/not-a-deb.txt"); err == nil {
		t.Error("expected error for non-matching filename")
	}
}
