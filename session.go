package m4data

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// DatasetObjectName is the binding under which the M4comp2018 package
// stores the dataset in its save file.
const DatasetObjectName = "M4"

// A Session holds named objects read from R save files, standing in
// for the R global environment.  Loading a save file binds every
// object it defines; a binding loaded twice is replaced, not
// accumulated.  A Session must not be shared by concurrent loads;
// the internal lock enforces this by serializing them.
type Session struct {

	// Destination for status messages.  Defaults to standard output.
	Log io.Writer

	mu       sync.Mutex
	bindings map[string]*RObject
}

// NewSession returns an empty Session.
func NewSession() *Session {
	return &Session{
		Log:      os.Stdout,
		bindings: make(map[string]*RObject),
	}
}

func (s *Session) logw() io.Writer {
	if s.Log == nil {
		return io.Discard
	}
	return s.Log
}

// Clear removes the named binding if present.
func (s *Session) Clear(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bindings, name)
}

// Get returns the named binding.
func (s *Session) Get(name string) (*RObject, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.bindings[name]
	return obj, ok
}

// Load reads the save file at path and binds every object it defines
// into the session, replacing existing bindings of the same names.
// It returns the names bound, in file order.
func (s *Session) Load(path string) ([]string, error) {

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rdr, err := NewRDataReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	names, objects, err := rdr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, nm := range names {
		s.bindings[nm] = objects[nm]
	}

	return names, nil
}

// A Dataset is a handle to the M4 object held by a Session: an
// ordered collection of series, addressed by 1-based position as in
// R's M4[[i]].
type Dataset struct {
	obj  *RObject
	sess *Session
}

// LoadDataset loads the save file at path into the session and
// returns a handle to the M4 binding it defines.  Any prior M4
// binding is cleared first, so repeated loads do not shadow stale
// state.  If path is empty, the default extracted payload location
// is used.  LoadDataset fails with ErrObjectMissing if the file does
// not define M4.
func LoadDataset(sess *Session, path string) (*Dataset, error) {

	if path == "" {
		path = DefaultArchive().PayloadPath()
	}

	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	fmt.Fprintf(sess.logw(), "Loading %s from: %s\n", DatasetObjectName, path)

	sess.Clear(DatasetObjectName)

	if _, err := sess.Load(path); err != nil {
		return nil, err
	}

	obj, ok := sess.Get(DatasetObjectName)
	if !ok || obj == nil {
		return nil, fmt.Errorf("%w: %q after loading %s", ErrObjectMissing, DatasetObjectName, path)
	}

	ds := &Dataset{obj: obj, sess: sess}
	fmt.Fprintf(sess.logw(), "Retrieved %s object. Total series: %d\n", DatasetObjectName, ds.NumSeries())
	return ds, nil
}

// NumSeries returns the number of series in the dataset.
func (ds *Dataset) NumSeries() int {
	return ds.obj.Length()
}

// Series returns the series at the given 1-based position, as in
// R's M4[[index]].
func (ds *Dataset) Series(index int) (*RObject, error) {
	if index < 1 || index > ds.obj.Length() {
		return nil, fmt.Errorf("%w: %d (dataset has %d series)", ErrIndexOutOfBounds, index, ds.obj.Length())
	}
	return ds.obj.List[index-1], nil
}

// Fields returns the field names of the series at the given 1-based
// position, mirroring names(M4[[index]]) in R.
func (ds *Dataset) Fields(index int) ([]string, error) {
	s, err := ds.Series(index)
	if err != nil {
		return nil, err
	}
	return s.Names(), nil
}

func (ds *Dataset) logw() io.Writer {
	if ds.sess == nil {
		return io.Discard
	}
	return ds.sess.logw()
}
