package rpm

import "testing"

func TestBuildChangelogsTruncatesAndReverses(t *testing.T) {
	h := Header{
		"CHANGELOGTIME": []uint32{12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1},
		"CHANGELOGNAME": []string{"n12", "n11", "n10", "n9", "n8", "n7", "n6", "n5", "n4", "n3", "n2", "n1"},
		"CHANGELOGTEXT": []string{"t12", "t11", "t10", "t9", "t8", "t7", "t6", "t5", "t4", "t3", "t2", "t1"},
	}

	logs := buildChangelogs(h)

	if len(logs) != 10 {
		t.Fatalf("expected 10 entries (first 10 then reversed), got %d", len(logs))
	}
	if logs[0].Name != "n3" {
		t.Errorf("expected oldest-of-first-10 first, got %q", logs[0].Name)
	}
	if logs[len(logs)-1].Name != "n12" {
		t.Errorf("expected newest entry last, got %q", logs[len(logs)-1].Name)
	}
}

func TestIsPrimaryFilePath(t *testing.T) {
	cases := map[string]bool{
		"/etc/foo.conf":    true,
		"/usr/lib/sendmail": true,
		"/usr/bin/foo":     true,
		"/usr/share/doc":   false,
	}
	for path, want := range cases {
		if got := isPrimaryFilePath(path); got != want {
			t.Errorf("isPrimaryFilePath(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestFilterSelfProvidesDropsMatchingIdentity(t *testing.T) {
	p := &Package{Name: "foo"}
	p.Provides = []Dependency{{Name: "libfoo.so", Flags: senseEqual, Version: "1.0-1"}}
	reqs := []Dependency{
		{Name: "libfoo.so", Flags: senseEqual, Version: "1.0-1"},
		{Name: "libbar.so", Flags: senseEqual, Version: "2.0-1"},
	}

	got := filterSelfProvides(reqs, p)

	if len(got) != 1 || got[0].Name != "libbar.so" {
		t.Errorf("expected only libbar.so to survive, got %v", got)
	}
}
