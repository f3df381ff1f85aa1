package m4data

import "fmt"

// A Record is one M4 series materialized in Go.  Period and Type
// hold the factor codes ("1".."6"), not the labels; use
// PeriodCodeToLabel / TypeCodeToLabel to translate.  PtFF, UpFF and
// LowFF are the submitted forecast bands, present only for some
// series.  Fields of the R object with no conversion rule are kept
// unconverted in Extra.
type Record struct {
	St     string
	N      int
	H      int
	Period string
	Type   string
	X      []float64
	XX     []float64
	PtFF   []float64
	UpFF   []float64
	LowFF  []float64
	Extra  map[string]*RObject
}

// Conversion rules applied to series fields, by field name.
type conversion int

const (
	convOpaque conversion = iota
	convRealVector
	convString
	convCode
	convInt
)

// fieldConversions is consulted for every field of a series; names
// not listed pass through as opaque R objects, so new fields in the
// dataset never break extraction.
var fieldConversions = map[string]conversion{
	"st":     convString,
	"n":      convInt,
	"h":      convInt,
	"period": convCode,
	"type":   convCode,
	"x":      convRealVector,
	"xx":     convRealVector,
	"pt_ff":  convRealVector,
	"up_ff":  convRealVector,
	"low_ff": convRealVector,
}

// basicFields is the reduced field set used for quick inspection.
var basicFields = []string{"st", "n", "h", "period", "type", "x", "xx"}

// Extract materializes the series at the given 1-based position,
// converting every field it carries according to the conversion
// table.  The stored lengths are validated against the n and h
// fields; a mismatch fails with ErrSchema.
func (ds *Dataset) Extract(index int) (*Record, error) {

	s, err := ds.Series(index)
	if err != nil {
		return nil, err
	}

	return extractFields(s, index, s.Names(), false)
}

// ExtractBasic materializes the reduced field set (st, n, h, period,
// type, x, xx) of the series at the given 1-based position.  Unlike
// Extract, every listed field must be present.
func (ds *Dataset) ExtractBasic(index int) (*Record, error) {

	s, err := ds.Series(index)
	if err != nil {
		return nil, err
	}

	return extractFields(s, index, basicFields, true)
}

// extractFields applies the conversion table to the given fields of
// one series.  With required set, a missing field is an error;
// otherwise only fields present on the object are considered.
func extractFields(s *RObject, index int, fields []string, required bool) (*Record, error) {

	rec := &Record{}

	for _, name := range fields {
		value, ok := s.Field(name)
		if !ok {
			if required {
				return nil, fmt.Errorf("series %d has no %s field", index, name)
			}
			continue
		}

		switch fieldConversions[name] {

		case convRealVector:
			v, err := value.Float64s()
			if err != nil {
				return nil, fmt.Errorf("series %d field %s: %w", index, name, err)
			}
			switch name {
			case "x":
				rec.X = v
			case "xx":
				rec.XX = v
			case "pt_ff":
				rec.PtFF = v
			case "up_ff":
				rec.UpFF = v
			case "low_ff":
				rec.LowFF = v
			}

		case convString:
			v, err := value.FirstString()
			if err != nil {
				return nil, fmt.Errorf("series %d field %s: %w", index, name, err)
			}
			rec.St = v

		case convCode:
			v, err := value.FirstCode()
			if err != nil {
				return nil, fmt.Errorf("series %d field %s: %w", index, name, err)
			}
			if name == "period" {
				rec.Period = v
			} else {
				rec.Type = v
			}

		case convInt:
			v, err := value.FirstInt()
			if err != nil {
				return nil, fmt.Errorf("series %d field %s: %w", index, name, err)
			}
			if name == "n" {
				rec.N = v
			} else {
				rec.H = v
			}

		default:
			if rec.Extra == nil {
				rec.Extra = make(map[string]*RObject)
			}
			rec.Extra[name] = value
		}
	}

	if err := rec.validate(index); err != nil {
		return nil, err
	}

	return rec, nil
}

// validate checks the documented length invariants of a series:
// len(x) == n and len(xx) == h.  Fields that were not extracted are
// not checked.
func (rec *Record) validate(index int) error {
	if rec.X != nil && rec.N != 0 && len(rec.X) != rec.N {
		return fmt.Errorf("%w: series %d has len(x)=%d but n=%d", ErrSchema, index, len(rec.X), rec.N)
	}
	if rec.XX != nil && rec.H != 0 && len(rec.XX) != rec.H {
		return fmt.Errorf("%w: series %d has len(xx)=%d but h=%d", ErrSchema, index, len(rec.XX), rec.H)
	}
	return nil
}
