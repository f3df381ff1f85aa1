package m4data

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// Location of the M4comp2018 source package and the names used for
// the cached copies.
const (
	// DefaultTarballURL is the release tarball of the M4comp2018 R
	// package, which carries the M4 dataset.
	DefaultTarballURL = "https://github.com/carlanetto/M4comp2018/releases/download/0.2.0/" +
		"M4comp2018_0.2.0.tar.gz"

	// DefaultDataDir is the cache directory, relative to the working
	// directory.
	DefaultDataDir = "data"

	tarballName = "M4comp2018_0.2.0.tar.gz"
	payloadName = "M4.rda"
)

// An Archive describes where the M4comp2018 package tarball is
// fetched from and where its pieces are cached locally.  The zero
// value is not usable; construct with DefaultArchive and adjust
// fields as needed.
type Archive struct {

	// URL of the package tarball.
	URL string

	// Local cache directory, created on demand.
	Dir string

	// Destination for status messages.  Defaults to standard output.
	Log io.Writer
}

// DefaultArchive returns an Archive using the release URL and the
// data directory under the current working directory.
func DefaultArchive() *Archive {
	return &Archive{
		URL: DefaultTarballURL,
		Dir: DefaultDataDir,
		Log: os.Stdout,
	}
}

// TarballPath returns the local path of the cached package tarball.
func (a *Archive) TarballPath() string {
	return filepath.Join(a.Dir, tarballName)
}

// PayloadPath returns the local path of the extracted M4.rda file.
func (a *Archive) PayloadPath() string {
	return filepath.Join(a.Dir, payloadName)
}

func (a *Archive) logw() io.Writer {
	if a.Log == nil {
		return io.Discard
	}
	return a.Log
}

// Fetch downloads the package tarball into the cache directory and
// returns its local path.  If the tarball is already cached and
// force is false, no network activity takes place.  A single GET is
// attempted; transport errors are returned as-is, with no retry.
func (a *Archive) Fetch(force bool) (string, error) {

	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return "", err
	}

	dest := a.TarballPath()
	if _, err := os.Stat(dest); err == nil && !force {
		fmt.Fprintf(a.logw(), "Tarball already exists at: %s\n", dest)
		return dest, nil
	}

	fmt.Fprintf(a.logw(), "Downloading M4comp2018 tarball from:\n  %s\n", a.URL)

	resp, err := http.Get(a.URL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: unexpected status %s", a.URL, resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	fmt.Fprintf(a.logw(), "Saved to: %s\n", dest)
	return dest, nil
}

// Materialize runs the full acquisition pipeline: fetch the tarball,
// extract the M4.rda payload, and load it into the session, returning
// the dataset handle.
func (a *Archive) Materialize(sess *Session, force bool) (*Dataset, error) {

	if _, err := a.Fetch(force); err != nil {
		return nil, err
	}

	payload, err := a.Extract("", force)
	if err != nil {
		return nil, err
	}

	return LoadDataset(sess, payload)
}
