package rpm

import (
	"bytes"
	"testing"
)

func TestParseFileRejectsBadMagic(t *testing.T) {
	buf := bytes.NewReader(make([]byte, 200))
	if _, err := ParseFile(buf); err == nil {
		t.Error("expected error for zeroed buffer with no RPM magic")
	}
}

func TestDecodeValueScalarUnwrap(t *testing.T) {
	store := []byte{0, 0, 0, 42}
	v, err := decodeValue(store, indexEntry{typ: 4, offset: 0, count: 1})
	if err != nil {
		t.Fatalf("decodeValue: %v", err)
	}
	got, ok := v.(uint32)
	if !ok || got != 42 {
		t.Errorf("decodeValue int32 count=1 = %#v, want uint32(42)", v)
	}
}

func TestDecodeValueStringArray(t *testing.T) {
	store := append([]byte("foo\x00"), []byte("bar\x00")...)
	v, err := decodeValue(store, indexEntry{typ: 8, offset: 0, count: 2})
	if err != nil {
		t.Fatalf("decodeValue: %v", err)
	}
	got, ok := v.([]string)
	if !ok || len(got) != 2 || got[0] != "foo" || got[1] != "bar" {
		t.Errorf("decodeValue string array = %#v, want [foo bar]", v)
	}
}
