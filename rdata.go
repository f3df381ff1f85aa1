package m4data

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	xencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// SEXP type codes used by the R serialization format.  Only the
// subset that can appear in a data save file is handled here.
const (
	nilSxp      = 0
	symSxp      = 1
	listSxp     = 2
	langSxp     = 6
	charSxp     = 9
	lglSxp      = 10
	intSxp      = 13
	realSxp     = 14
	cplxSxp     = 15
	strSxp      = 16
	vecSxp      = 19
	exprSxp     = 20
	rawSxp      = 24
	altrepSxp   = 238
	nilValueSxp = 254
	refSxp      = 255
)

// Flag bits of the per-item header word.
const (
	isObjectBit = 1 << 8
	hasAttrBit  = 1 << 9
	hasTagBit   = 1 << 10
)

// CHARSXP encoding bits, carried in the levels field of the header.
const (
	latin1Mask = 1 << 2
	utf8Mask   = 1 << 3
)

// naInteger is the NA sentinel for R integer and logical vectors.
const naInteger = math.MinInt32

var supportedRdaVersions = []int{2, 3}

// An RObject holds one R object read from a save file.  Exactly one
// of the payload slices is populated, according to the type code.
// Attributes, when present, are available by name.
type RObject struct {

	// The SEXP type code of the object.
	Type int

	// Integer and logical vector payload.  NA values are stored as
	// math.MinInt32.
	Ints []int32

	// Real (and complex, interleaved) vector payload.
	Reals []float64

	// Character vector payload.
	Strs []string

	// Raw vector payload.
	Raw []byte

	// Elements of a generic vector (R list).
	List []*RObject

	// Attributes, keyed by attribute name.
	Attr map[string]*RObject

	// Whether the object bit was set (e.g. factors, data frames).
	IsObject bool

	// Pairlist fields, used while decoding attribute chains and the
	// top-level binding list of a save file.
	tag string
	car *RObject
	cdr *RObject
}

// Length returns the number of elements held by the object.
func (o *RObject) Length() int {
	if o == nil {
		return 0
	}
	switch o.Type {
	case lglSxp, intSxp:
		return len(o.Ints)
	case realSxp:
		return len(o.Reals)
	case strSxp, charSxp:
		return len(o.Strs)
	case rawSxp:
		return len(o.Raw)
	case vecSxp, exprSxp:
		return len(o.List)
	}
	return 0
}

// Names returns the names attribute of the object, or nil if there
// is none.
func (o *RObject) Names() []string {
	if o == nil || o.Attr == nil {
		return nil
	}
	nm, ok := o.Attr["names"]
	if !ok {
		return nil
	}
	return nm.Strs
}

// Class returns the class attribute of the object, or nil.
func (o *RObject) Class() []string {
	if o == nil || o.Attr == nil {
		return nil
	}
	cl, ok := o.Attr["class"]
	if !ok {
		return nil
	}
	return cl.Strs
}

// IsFactor reports whether the object is an R factor.
func (o *RObject) IsFactor() bool {
	if o == nil || o.Type != intSxp {
		return false
	}
	for _, c := range o.Class() {
		if c == "factor" {
			return true
		}
	}
	return false
}

// Levels returns the levels attribute of a factor, or nil.
func (o *RObject) Levels() []string {
	if o == nil || o.Attr == nil {
		return nil
	}
	lv, ok := o.Attr["levels"]
	if !ok {
		return nil
	}
	return lv.Strs
}

// Field returns the named element of a generic vector, using the
// names attribute, as in R's x$name.  The second return value is
// false if the object is not a list or has no such element.
func (o *RObject) Field(name string) (*RObject, bool) {
	if o == nil || o.Type != vecSxp {
		return nil, false
	}
	for i, nm := range o.Names() {
		if nm == name && i < len(o.List) {
			return o.List[i], true
		}
	}
	return nil, false
}

// Float64s returns the object's data as a float64 slice.  Integer and
// logical vectors are converted, with NA mapped to NaN.
func (o *RObject) Float64s() ([]float64, error) {
	if o == nil {
		return nil, errors.New("nil object has no numeric data")
	}
	switch o.Type {
	case realSxp:
		return o.Reals, nil
	case intSxp, lglSxp:
		x := make([]float64, len(o.Ints))
		for i, v := range o.Ints {
			if v == naInteger {
				x[i] = math.NaN()
			} else {
				x[i] = float64(v)
			}
		}
		return x, nil
	}
	return nil, fmt.Errorf("cannot use SEXP type %d as numeric vector", o.Type)
}

// FirstString returns the first element of a character vector.
func (o *RObject) FirstString() (string, error) {
	if o == nil || (o.Type != strSxp && o.Type != charSxp) || len(o.Strs) == 0 {
		return "", errors.New("object has no string data")
	}
	return o.Strs[0], nil
}

// FirstInt returns the first element of an integer or real vector as
// an int.
func (o *RObject) FirstInt() (int, error) {
	if o == nil {
		return 0, errors.New("nil object has no integer data")
	}
	switch o.Type {
	case intSxp, lglSxp:
		if len(o.Ints) > 0 {
			return int(o.Ints[0]), nil
		}
	case realSxp:
		if len(o.Reals) > 0 {
			return int(o.Reals[0]), nil
		}
	}
	return 0, fmt.Errorf("cannot use SEXP type %d as integer scalar", o.Type)
}

// FirstCode returns the first element of the object rendered as a
// category code string.  For factors this is the underlying level
// code ("1".."6" for the M4 categories), matching how R prints the
// codes rather than the labels.
func (o *RObject) FirstCode() (string, error) {
	if o == nil {
		return "", errors.New("nil object has no code data")
	}
	switch o.Type {
	case intSxp, lglSxp:
		if len(o.Ints) > 0 {
			return strconv.Itoa(int(o.Ints[0])), nil
		}
	case realSxp:
		if len(o.Reals) > 0 {
			return strconv.FormatFloat(o.Reals[0], 'g', -1, 64), nil
		}
	case strSxp:
		if len(o.Strs) > 0 {
			return o.Strs[0], nil
		}
	}
	return "", fmt.Errorf("cannot use SEXP type %d as category code", o.Type)
}

// An RDataReader reads R save files (.rda / .RData) written in the
// XDR serialization format, versions 2 (RDX2) and 3 (RDX3).  Both
// gzip-compressed and uncompressed files are accepted.
//
// The format is documented in the R Internals manual, section
// "Serialization Formats".
type RDataReader struct {

	// Decoder applied to strings flagged as latin1.  Defaults to
	// ISO 8859-1.
	TextDecoder *xencoding.Decoder

	// The serialization format version of the file (2 or 3).
	FormatVersion int

	// The native encoding recorded by the writer (version 3 only).
	NativeEncoding string

	reader *bufio.Reader

	// Reference table for symbols, as required by REFSXP.
	refs []*RObject
}

// NewRDataReader returns an RDataReader reading from r, after
// validating the file header.
func NewRDataReader(r io.Reader) (*RDataReader, error) {

	rdr := &RDataReader{
		TextDecoder: charmap.ISO8859_1.NewDecoder(),
	}

	br := bufio.NewReader(r)

	// Save files are normally gzip-compressed.
	magic, err := br.Peek(2)
	if err != nil {
		return nil, err
	}
	if magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		rdr.reader = bufio.NewReader(gz)
	} else {
		rdr.reader = br
	}

	if err := rdr.readHeader(); err != nil {
		return nil, err
	}

	return rdr, nil
}

func (rdr *RDataReader) readHeader() error {

	buf := make([]byte, 5)
	if _, err := io.ReadFull(rdr.reader, buf); err != nil {
		return err
	}
	if string(buf) != "RDX2\n" && string(buf) != "RDX3\n" {
		return fmt.Errorf("not an R save file (magic %q)", string(buf))
	}

	// Serialization format marker: only XDR is handled.
	if _, err := io.ReadFull(rdr.reader, buf[0:2]); err != nil {
		return err
	}
	if string(buf[0:2]) != "X\n" {
		return fmt.Errorf("unsupported R serialization format %q (only XDR)", string(buf[0:2]))
	}

	version, err := rdr.readInt()
	if err != nil {
		return err
	}
	rdr.FormatVersion = version

	supported := false
	for _, v := range supportedRdaVersions {
		if version == v {
			supported = true
		}
	}
	if !supported {
		return fmt.Errorf("unsupported R serialization version %d", version)
	}

	// Writer R version and minimal reader R version, packed ints.
	if _, err := rdr.readInt(); err != nil {
		return err
	}
	if _, err := rdr.readInt(); err != nil {
		return err
	}

	if version >= 3 {
		n, err := rdr.readInt()
		if err != nil {
			return err
		}
		enc := make([]byte, n)
		if _, err := io.ReadFull(rdr.reader, enc); err != nil {
			return err
		}
		rdr.NativeEncoding = string(enc)
	}

	return nil
}

// Read reads the save file's bindings.  A save file serializes a
// pairlist of name/value pairs; the names are returned in file order
// along with a map from name to object.
func (rdr *RDataReader) Read() ([]string, map[string]*RObject, error) {

	top, err := rdr.readItem()
	if err != nil {
		return nil, nil, err
	}

	var names []string
	objects := make(map[string]*RObject)

	for p := top; p != nil; p = p.cdr {
		if p.Type != listSxp {
			return nil, nil, fmt.Errorf("save file top object is not a pairlist (SEXP type %d)", p.Type)
		}
		names = append(names, p.tag)
		objects[p.tag] = p.car
	}

	return names, objects, nil
}

func (rdr *RDataReader) readInt() (int, error) {
	var x int32
	if err := binary.Read(rdr.reader, binary.BigEndian, &x); err != nil {
		return 0, err
	}
	return int(x), nil
}

// readItem reads one serialized object, recursively.
func (rdr *RDataReader) readItem() (*RObject, error) {

	flags, err := rdr.readInt()
	if err != nil {
		return nil, err
	}

	ty := flags & 255
	hasAttr := flags&hasAttrBit != 0
	hasTag := flags&hasTagBit != 0
	levs := flags >> 12

	switch ty {

	case nilSxp, nilValueSxp:
		return nil, nil

	case refSxp:
		idx := flags >> 8
		if idx == 0 {
			idx, err = rdr.readInt()
			if err != nil {
				return nil, err
			}
		}
		if idx < 1 || idx > len(rdr.refs) {
			return nil, fmt.Errorf("invalid reference index %d", idx)
		}
		return rdr.refs[idx-1], nil

	case symSxp:
		pname, err := rdr.readItem()
		if err != nil {
			return nil, err
		}
		if pname == nil || pname.Type != charSxp {
			return nil, errors.New("symbol print name is not a CHARSXP")
		}
		obj := &RObject{Type: symSxp, Strs: pname.Strs}
		rdr.refs = append(rdr.refs, obj)
		return obj, nil

	case charSxp:
		n, err := rdr.readInt()
		if err != nil {
			return nil, err
		}
		obj := &RObject{Type: charSxp}
		if n < 0 {
			// NA_character_
			obj.Strs = []string{""}
			return obj, nil
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(rdr.reader, buf); err != nil {
			return nil, err
		}
		s := string(buf)
		if levs&latin1Mask != 0 && levs&utf8Mask == 0 && rdr.TextDecoder != nil {
			if dec, err := rdr.TextDecoder.String(s); err == nil {
				s = dec
			}
		}
		obj.Strs = []string{s}
		return obj, nil

	case lglSxp, intSxp:
		n, err := rdr.readInt()
		if err != nil {
			return nil, err
		}
		obj := &RObject{Type: ty, Ints: make([]int32, n)}
		if err := binary.Read(rdr.reader, binary.BigEndian, obj.Ints); err != nil {
			return nil, err
		}
		return rdr.finishVector(obj, flags, hasAttr)

	case realSxp:
		n, err := rdr.readInt()
		if err != nil {
			return nil, err
		}
		obj := &RObject{Type: ty, Reals: make([]float64, n)}
		if err := binary.Read(rdr.reader, binary.BigEndian, obj.Reals); err != nil {
			return nil, err
		}
		return rdr.finishVector(obj, flags, hasAttr)

	case cplxSxp:
		n, err := rdr.readInt()
		if err != nil {
			return nil, err
		}
		obj := &RObject{Type: ty, Reals: make([]float64, 2*n)}
		if err := binary.Read(rdr.reader, binary.BigEndian, obj.Reals); err != nil {
			return nil, err
		}
		return rdr.finishVector(obj, flags, hasAttr)

	case strSxp:
		n, err := rdr.readInt()
		if err != nil {
			return nil, err
		}
		obj := &RObject{Type: ty, Strs: make([]string, n)}
		for i := 0; i < n; i++ {
			el, err := rdr.readItem()
			if err != nil {
				return nil, err
			}
			if el == nil || el.Type != charSxp {
				return nil, errors.New("string vector element is not a CHARSXP")
			}
			obj.Strs[i] = el.Strs[0]
		}
		return rdr.finishVector(obj, flags, hasAttr)

	case vecSxp, exprSxp:
		n, err := rdr.readInt()
		if err != nil {
			return nil, err
		}
		obj := &RObject{Type: ty, List: make([]*RObject, n)}
		for i := 0; i < n; i++ {
			el, err := rdr.readItem()
			if err != nil {
				return nil, err
			}
			obj.List[i] = el
		}
		return rdr.finishVector(obj, flags, hasAttr)

	case rawSxp:
		n, err := rdr.readInt()
		if err != nil {
			return nil, err
		}
		obj := &RObject{Type: ty, Raw: make([]byte, n)}
		if _, err := io.ReadFull(rdr.reader, obj.Raw); err != nil {
			return nil, err
		}
		return rdr.finishVector(obj, flags, hasAttr)

	case listSxp, langSxp:
		obj := &RObject{Type: ty}
		if hasAttr {
			attr, err := rdr.readItem()
			if err != nil {
				return nil, err
			}
			obj.Attr = pairlistToMap(attr)
		}
		if hasTag {
			tag, err := rdr.readItem()
			if err != nil {
				return nil, err
			}
			if tag != nil && len(tag.Strs) > 0 {
				obj.tag = tag.Strs[0]
			}
		}
		if obj.car, err = rdr.readItem(); err != nil {
			return nil, err
		}
		if obj.cdr, err = rdr.readItem(); err != nil {
			return nil, err
		}
		return obj, nil

	case altrepSxp:
		return nil, errors.New("ALTREP serialization is not supported; re-save the object with version = 2")

	default:
		return nil, fmt.Errorf("unsupported SEXP type %d in save file", ty)
	}
}

// finishVector reads the trailing attribute pairlist of a vector
// object, if present, and applies the object bit.
func (rdr *RDataReader) finishVector(obj *RObject, flags int, hasAttr bool) (*RObject, error) {
	obj.IsObject = flags&isObjectBit != 0
	if hasAttr {
		attr, err := rdr.readItem()
		if err != nil {
			return nil, err
		}
		obj.Attr = pairlistToMap(attr)
	}
	return obj, nil
}

// pairlistToMap flattens an attribute pairlist into a name-keyed map.
func pairlistToMap(p *RObject) map[string]*RObject {
	if p == nil {
		return nil
	}
	m := make(map[string]*RObject)
	for ; p != nil; p = p.cdr {
		if p.tag != "" {
			m[p.tag] = p.car
		}
	}
	return m
}
