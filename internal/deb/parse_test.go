package deb

import "testing"

func TestParseDscBytesRenamesSourceAndAppendsDirectory(t *testing.T) {
	dsc := "Source: tarantool\nVersion: 1.5.2\nMaintainer: Dev <dev@example.com>\n" +
		"Files:\n abc123 100 tarantool_1.5.2.tar.gz\n"

	src, err := ParseDscBytes([]byte(dsc), "pool/focal/main/t/tarantool/tarantool_1.5.2.dsc", 1700000000.5)
	if err != nil {
		t.Fatalf("ParseDscBytes: %v", err)
	}

	if _, ok := src.Get("Source"); ok {
		t.Error("Source key should have been renamed to Package")
	}
	if name, _ := src.Get("Package"); name != "tarantool" {
		t.Errorf("Package = %q, want tarantool", name)
	}
	if dir, _ := src.Get("Directory"); dir != "pool/focal/main/t/tarantool" {
		t.Errorf("Directory = %q, want pool/focal/main/t/tarantool", dir)
	}
	if fn, _ := src.Get("Filename"); fn != "pool/focal/main/t/tarantool/tarantool_1.5.2.dsc" {
		t.Errorf("Filename = %q, want the .dsc's storage path", fn)
	}
	if ft, _ := src.Get("FileTime"); ft != "1700000000.5" {
		t.Errorf("FileTime = %q, want 1700000000.5", ft)
	}

	files, _ := src.Get("Files")
	if !contains(files, "tarantool_1.5.2.dsc") {
		t.Errorf("Files should include an entry for the .dsc itself, got %q", files)
	}
}

func contains(haystack, needle string) bool {
	return len(needle) == 0 || indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}
