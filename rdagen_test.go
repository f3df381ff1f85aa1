package m4data

// Helpers that generate R save files for testing.  The writer emits
// the version 2 XDR format, which is what NewRDataReader consumes,
// so no R installation is needed to run the tests.

import (
	"compress/gzip"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// robj is a minimal R object model for building test files.
type robj struct {
	kind  int
	ints  []int32
	reals []float64
	strs  []string
	list  []*robj
	attrs []rattr
	obj   bool
}

type rattr struct {
	name  string
	value *robj
}

func rstr(ss ...string) *robj {
	return &robj{kind: strSxp, strs: ss}
}

func rint(vals ...int32) *robj {
	return &robj{kind: intSxp, ints: vals}
}

func rreal(vals ...float64) *robj {
	return &robj{kind: realSxp, reals: vals}
}

// rfactor builds an R factor holding a single code with the given
// levels.
func rfactor(code int32, levels []string) *robj {
	return &robj{
		kind: intSxp,
		ints: []int32{code},
		obj:  true,
		attrs: []rattr{
			{"levels", rstr(levels...)},
			{"class", rstr("factor")},
		},
	}
}

// rlist builds a named generic vector.
func rlist(names []string, elems ...*robj) *robj {
	return &robj{
		kind:  vecSxp,
		list:  elems,
		attrs: []rattr{{"names", rstr(names...)}},
	}
}

var (
	periodLevels = []string{"Daily", "Hourly", "Monthly", "Quarterly", "Weekly", "Yearly"}
	typeLevels   = []string{"Demographic", "Finance", "Industry", "Macro", "Micro", "Other"}
)

// m4Series builds one series object with the standard field set.
func m4Series(st string, n, h int, period, typ int32, x, xx []float64) *robj {
	return rlist(
		[]string{"st", "n", "h", "period", "type", "x", "xx"},
		rstr(st),
		rint(int32(n)),
		rint(int32(h)),
		rfactor(period, periodLevels),
		rfactor(typ, typeLevels),
		rreal(x...),
		rreal(xx...),
	)
}

func seq(lo, hi float64) []float64 {
	var x []float64
	for v := lo; v <= hi; v++ {
		x = append(x, v)
	}
	return x
}

type binding struct {
	name  string
	value *robj
}

func wInt(w io.Writer, x int) {
	if err := binary.Write(w, binary.BigEndian, int32(x)); err != nil {
		panic(err)
	}
}

func wCharsxp(w io.Writer, s string) {
	wInt(w, charSxp)
	wInt(w, len(s))
	if _, err := io.WriteString(w, s); err != nil {
		panic(err)
	}
}

func wSym(w io.Writer, name string) {
	wInt(w, symSxp)
	wCharsxp(w, name)
}

func wAttrs(w io.Writer, attrs []rattr) {
	for _, a := range attrs {
		wInt(w, listSxp|hasTagBit)
		wSym(w, a.name)
		wObj(w, a.value)
	}
	wInt(w, nilValueSxp)
}

func wObj(w io.Writer, o *robj) {

	flags := o.kind
	if o.obj {
		flags |= isObjectBit
	}
	if len(o.attrs) > 0 {
		flags |= hasAttrBit
	}
	wInt(w, flags)

	switch o.kind {
	case intSxp, lglSxp:
		wInt(w, len(o.ints))
		for _, v := range o.ints {
			wInt(w, int(v))
		}
	case realSxp:
		wInt(w, len(o.reals))
		for _, v := range o.reals {
			if err := binary.Write(w, binary.BigEndian, v); err != nil {
				panic(err)
			}
		}
	case strSxp:
		wInt(w, len(o.strs))
		for _, s := range o.strs {
			wCharsxp(w, s)
		}
	case vecSxp:
		wInt(w, len(o.list))
		for _, el := range o.list {
			wObj(w, el)
		}
	default:
		panic("unsupported kind in test writer")
	}

	if len(o.attrs) > 0 {
		wAttrs(w, o.attrs)
	}
}

func wStream(w io.Writer, bindings []binding) {
	if _, err := io.WriteString(w, "RDX2\nX\n"); err != nil {
		panic(err)
	}
	wInt(w, 2)        // serialization version
	wInt(w, 0x030603) // writer R version
	wInt(w, 0x020300) // minimal reader R version
	for _, b := range bindings {
		wInt(w, listSxp|hasTagBit)
		wSym(w, b.name)
		wObj(w, b.value)
	}
	wInt(w, nilValueSxp)
}

// writeRDA writes a gzip-compressed save file holding the given
// bindings and returns its path.
func writeRDA(t *testing.T, dir string, bindings []binding) string {
	t.Helper()

	path := filepath.Join(dir, "M4.rda")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	wStream(gz, bindings)
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}

	return path
}

// loadTestDataset writes a save file binding the given series as M4
// and loads it into a fresh quiet session.
func loadTestDataset(t *testing.T, series ...*robj) *Dataset {
	t.Helper()

	path := writeRDA(t, t.TempDir(), []binding{
		{"M4", &robj{kind: vecSxp, list: series}},
	})

	sess := NewSession()
	sess.Log = io.Discard

	ds, err := LoadDataset(sess, path)
	if err != nil {
		t.Fatal(err)
	}
	return ds
}
