package m4data

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// The dataset payload sits under the package's data directory, with
// either of two capitalizations in the wild.
var dataMemberSuffixes = []string{"/data/m4.rda", "/data/m4.rdata"}

// isDataMember reports whether a tarball member name refers to the
// M4 dataset payload.  Matching is case-insensitive on the member
// name.
func isDataMember(name string) bool {
	name = strings.ToLower(name)
	for _, sfx := range dataMemberSuffixes {
		if strings.HasSuffix(name, sfx) {
			return true
		}
	}
	return false
}

// findDataMember returns the position of the first member name that
// refers to the dataset payload, or -1 if there is none.  Members are
// considered in the order given, which for a tarball is the archive
// order.
func findDataMember(names []string) int {
	for i, name := range names {
		if isDataMember(name) {
			return i
		}
	}
	return -1
}

// Extract copies the M4 dataset payload out of the package tarball
// into the cache directory and returns its local path.  If tarPath
// is empty, the cached tarball location is used.  If the payload
// already exists and force is false, it is returned without
// re-reading the tarball.  Extract fails with os.ErrNotExist if the
// tarball is absent and with ErrNoDataMember if no member matches.
func (a *Archive) Extract(tarPath string, force bool) (string, error) {

	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return "", err
	}

	if tarPath == "" {
		tarPath = a.TarballPath()
	}

	if _, err := os.Stat(tarPath); err != nil {
		return "", fmt.Errorf("tarball not found at %s: %w", tarPath, err)
	}

	dest := a.PayloadPath()
	if _, err := os.Stat(dest); err == nil && !force {
		fmt.Fprintf(a.logw(), "M4.rda already exists at: %s\n", dest)
		return dest, nil
	}

	fmt.Fprintf(a.logw(), "Extracting M4.* from tarball: %s\n", tarPath)

	f, err := os.Open(tarPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return "", ErrNoDataMember
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrExtraction, err)
		}
		if !isDataMember(hdr.Name) {
			continue
		}
		if hdr.Typeflag != tar.TypeReg {
			return "", fmt.Errorf("%w: member %s is not a regular file", ErrExtraction, hdr.Name)
		}

		out, err := os.Create(dest)
		if err != nil {
			return "", err
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			return "", fmt.Errorf("%w: %v", ErrExtraction, err)
		}
		if err := out.Close(); err != nil {
			return "", err
		}

		fmt.Fprintf(a.logw(), "Extracted %s -> %s\n", hdr.Name, dest)
		return dest, nil
	}
}
