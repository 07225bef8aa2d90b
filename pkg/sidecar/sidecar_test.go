package sidecar

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/EchoTools/ktexTools/pkg/ktex"
)

func TestPaths(t *testing.T) {
	tests := []struct {
		in, header, meta string
	}{
		{"out/tex.png", "out/tex.ktex_header", "out/tex.ktex_meta.json"},
		{"a.b.png", "a.b.ktex_header", "a.b.ktex_meta.json"},
		{"noext", "noext.ktex_header", "noext.ktex_meta.json"},
	}
	for _, tt := range tests {
		h, m := Paths(tt.in)
		if h != tt.header || m != tt.meta {
			t.Errorf("Paths(%q) = %q, %q", tt.in, h, m)
		}
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "tex.png")

	sc := ktex.Sidecar{
		Meta: &ktex.Metadata{
			Version: 8, Format: "DXT5", FormatID: 2, Width: 256, Height: 128,
			HeaderSize: 88, HasMipmaps: true, MipmapCount: 7,
		},
		Header: bytes.Repeat([]byte{0xAB}, 88),
	}
	if err := Save(img, sc); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "tex.ktex_meta.json"))
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	for _, key := range []string{`"version"`, `"format"`, `"format_id"`, `"width"`, `"height"`, `"header_size"`, `"has_mipmaps"`, `"mipmap_count"`} {
		if !strings.Contains(string(raw), key) {
			t.Errorf("metadata lacks key %s: %s", key, raw)
		}
	}

	got, err := Load(img)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Meta == nil || *got.Meta != *sc.Meta {
		t.Errorf("expected %+v, got %+v", sc.Meta, got.Meta)
	}
	if !bytes.Equal(got.Header, sc.Header) {
		t.Error("header bytes differ")
	}

	if err := Remove(img); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	got, err = Load(img)
	if err != nil {
		t.Fatalf("Load after remove: %v", err)
	}
	if !got.Empty() {
		t.Errorf("expected empty sidecar, got %+v", got)
	}
}

func TestLoadPartial(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "only_header.png")
	if err := Save(img, ktex.Sidecar{Header: []byte("KTEX0123456789")}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(img)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Meta != nil {
		t.Error("unexpected metadata")
	}
	if string(got.Header) != "KTEX0123456789" {
		t.Errorf("unexpected header %q", got.Header)
	}
}

func TestLoadMalformedMetadata(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(filepath.Join(dir, "bad.ktex_meta.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(img); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFromContainer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orig.tex")

	data := make([]byte, 18+8)
	copy(data, ktex.Magic)
	data[6], data[7] = 1, 0
	binary.LittleEndian.PutUint16(data[8:], 4)
	binary.LittleEndian.PutUint16(data[10:], 4)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	sc, err := FromContainer(path)
	if err != nil {
		t.Fatalf("FromContainer: %v", err)
	}
	if sc.Meta.HeaderSize != 18 || sc.Meta.Format != "DXT1" || len(sc.Header) != 18 {
		t.Errorf("unexpected sidecar %+v", sc.Meta)
	}

	if err := os.WriteFile(path, []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = FromContainer(path)
	if !ktex.IsFormatError(err) {
		t.Fatalf("expected format error, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error lacks path: %v", err)
	}
}
