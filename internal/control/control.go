// Package control implements the RFC-822-style control file dialect shared
// by .deb control records, .dsc source descriptors, Packages/Sources index
// stanzas, and the DEB Release manifest.
package control

import (
	"fmt"
	"strings"
)

// File is an ordered field->value mapping. Insertion order is preserved on
// Dump.
type File struct {
	order  []string
	values map[string]string
}

// New returns an empty File.
func New() *File {
	return &File{values: make(map[string]string)}
}

// Get returns the value of key and whether it was present.
func (f *File) Get(key string) (string, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Set assigns key = value, appending key to the insertion order the first
// time it is seen and overwriting the value (in place) on subsequent calls.
func (f *File) Set(key, value string) {
	if f.values == nil {
		f.values = make(map[string]string)
	}
	if _, ok := f.values[key]; !ok {
		f.order = append(f.order, key)
	}
	f.values[key] = value
}

// Append adds "\n <line>" to the existing value of key, used to grow the
// multi-line Files/Checksums-* fields.
func (f *File) Append(key, line string) {
	if cur, ok := f.values[key]; ok {
		f.Set(key, cur+"\n "+line)
		return
	}
	f.Set(key, "\n "+line)
}

// Delete removes key, if present.
func (f *File) Delete(key string) {
	if _, ok := f.values[key]; !ok {
		return
	}
	delete(f.values, key)
	for i, k := range f.order {
		if k == key {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
}

// Keys returns the fields in insertion order.
func (f *File) Keys() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Rename changes the field name stored at oldKey to newKey, preserving its
// position in the insertion order and its value. The .dsc Source: ->
// Package: rewrite does not use it; Parse performs that rewrite itself
// when renameSourceToPackage is set.
func (f *File) Rename(oldKey, newKey string) {
	v, ok := f.values[oldKey]
	if !ok {
		return
	}
	delete(f.values, oldKey)
	f.values[newKey] = v
	for i, k := range f.order {
		if k == oldKey {
			f.order[i] = newKey
			break
		}
	}
}

// Parse decodes one RFC-822-style stanza: a line starting
// with ASCII space continues the previous field (appended as "\n"+line,
// preserving the leading space); any other line must be "Key: Value"; the
// value is left-trimmed of leading spaces on its first line only.
//
// renameSourceToPackage, when true, implements the .dsc-specific rewrite of
// a top-level "Source" key to "Package" at parse time.
func Parse(data []byte, renameSourceToPackage bool) (*File, error) {
	text := strings.Trim(string(data), "\n")
	if text == "" {
		return New(), nil
	}
	lines := strings.Split(text, "\n")

	f := New()
	var key string
	var value strings.Builder
	haveField := false

	flush := func() error {
		if !haveField {
			return nil
		}
		k := key
		if renameSourceToPackage && k == "Source" {
			k = "Package"
		}
		f.Set(k, value.String())
		return nil
	}

	for _, line := range lines {
		if strings.HasPrefix(line, " ") {
			if !haveField {
				return nil, fmt.Errorf("control: continuation line with no pending field: %q", line)
			}
			value.WriteString("\n")
			value.WriteString(line)
			continue
		}

		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			return nil, fmt.Errorf("control: line before any colon: %q", line)
		}

		if err := flush(); err != nil {
			return nil, err
		}

		key = line[:idx]
		value.Reset()
		value.WriteString(strings.TrimLeft(line[idx+1:], " "))
		haveField = true
	}

	if err := flush(); err != nil {
		return nil, err
	}

	return f, nil
}

// Dump serializes f: a value starting with "\n" is emitted as
// "Key:" immediately followed by the value (no space — the convention used
// by multi-line checksum lists), otherwise as "Key: value".
func (f *File) Dump() string {
	var b strings.Builder
	for _, key := range f.order {
		value := f.values[key]
		b.WriteString(key)
		b.WriteByte(':')
		if !strings.HasPrefix(value, "\n") {
			b.WriteByte(' ')
		}
		b.WriteString(value)
		b.WriteByte('\n')
	}
	return b.String()
}

// ParseStanzas splits a Packages/Sources-style buffer into its constituent
// blank-line-separated stanzas and parses each with Parse.
func ParseStanzas(data []byte) ([]*File, error) {
	text := strings.Trim(string(data), "\n")
	if text == "" {
		return nil, nil
	}

	var stanzas []*File
	for _, chunk := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		f, err := Parse([]byte(chunk), false)
		if err != nil {
			return nil, err
		}
		stanzas = append(stanzas, f)
	}
	return stanzas, nil
}

// DumpStanzas joins stanzas with a single blank line, terminated by a
// trailing newline,
func DumpStanzas(stanzas []*File) string {
	dumped := make([]string, len(stanzas))
	for i, s := range stanzas {
		dumped[i] = strings.TrimRight(s.Dump(), "\n")
	}
	return strings.Join(dumped, "\n\n") + "\n"
}
