package m4data

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"os"
	"testing"
)

// writeTarball creates a gzip tarball at the archive's tarball path
// with the given member names and contents.
func writeTarball(t *testing.T, a *Archive, members map[string][]byte, order []string) {
	t.Helper()

	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(a.TarballPath())
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for _, name := range order {
		body := members[name]
		hdr := &tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(body)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write(body); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
}

func quietArchive(t *testing.T) *Archive {
	return &Archive{Dir: t.TempDir(), Log: io.Discard}
}

func TestFindDataMember(t *testing.T) {

	for _, tc := range []struct {
		names []string
		want  int
	}{
		{[]string{"M4comp2018/DESCRIPTION", "M4comp2018/data/M4.rda"}, 1},
		{[]string{"M4comp2018/data/M4.RData"}, 0},
		{[]string{"pkg/Data/m4.RDA", "pkg/data/m4.rda"}, 0},
		{[]string{"M4comp2018/data/M4.rda.bak", "M4comp2018/R/m4.R"}, -1},
		{[]string{"M4comp2018/data/datasets.rda"}, -1},
		{nil, -1},
	} {
		if got := findDataMember(tc.names); got != tc.want {
			t.Errorf("findDataMember(%v): got %d, want %d", tc.names, got, tc.want)
		}
	}
}

func TestExtract(t *testing.T) {

	a := quietArchive(t)
	payload := []byte("rda-bytes")
	writeTarball(t, a, map[string][]byte{
		"M4comp2018/DESCRIPTION": []byte("Package: M4comp2018"),
		"M4comp2018/data/M4.rda": payload,
		"M4comp2018/man/M4.Rd":   []byte("\\name{M4}"),
	}, []string{"M4comp2018/DESCRIPTION", "M4comp2018/data/M4.rda", "M4comp2018/man/M4.Rd"})

	path, err := a.Extract("", false)
	if err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload: got %q", got)
	}

	// A second extraction without force must leave byte-identical
	// content and short-circuit on the existing file.
	path2, err := a.Extract("", false)
	if err != nil {
		t.Fatal(err)
	}
	if path2 != path {
		t.Errorf("paths differ: %s vs %s", path, path2)
	}
	got2, err := os.ReadFile(path2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, got2) {
		t.Error("payload changed between extractions")
	}
}

func TestExtractFirstMatchWins(t *testing.T) {

	a := quietArchive(t)
	writeTarball(t, a, map[string][]byte{
		"a/data/M4.RData": []byte("first"),
		"b/data/M4.rda":   []byte("second"),
	}, []string{"a/data/M4.RData", "b/data/M4.rda"})

	path, err := a.Extract("", false)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "first" {
		t.Errorf("got %q, want first member in archive order", got)
	}
}

func TestExtractNoDataMember(t *testing.T) {

	a := quietArchive(t)
	writeTarball(t, a, map[string][]byte{
		"M4comp2018/DESCRIPTION": []byte("Package: M4comp2018"),
	}, []string{"M4comp2018/DESCRIPTION"})

	_, err := a.Extract("", false)
	if !errors.Is(err, ErrNoDataMember) {
		t.Errorf("got %v, want ErrNoDataMember", err)
	}
}

func TestExtractMissingTarball(t *testing.T) {

	a := quietArchive(t)
	_, err := a.Extract("", false)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("got %v, want not-exist", err)
	}
}

func TestExtractForceOverwrites(t *testing.T) {

	a := quietArchive(t)
	writeTarball(t, a, map[string][]byte{
		"M4comp2018/data/M4.rda": []byte("fresh"),
	}, []string{"M4comp2018/data/M4.rda"})

	if err := os.WriteFile(a.PayloadPath(), []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Without force the stale payload wins.
	path, err := a.Extract("", false)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "stale" {
		t.Errorf("without force: got %q, want stale", got)
	}

	path, err = a.Extract("", true)
	if err != nil {
		t.Fatal(err)
	}
	got, _ = os.ReadFile(path)
	if string(got) != "fresh" {
		t.Errorf("with force: got %q, want fresh", got)
	}
}
