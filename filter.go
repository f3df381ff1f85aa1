package m4data

import "fmt"

// FilterOptions selects series by their period and type categories.
// Labels are the human-readable level names ("Yearly", "Finance",
// ...); an empty label places no constraint on that dimension.  When
// both labels are set, a series must match both.  MaxSeries, when
// positive, caps the number of series extracted; the result then
// holds the lowest matching positions.
type FilterOptions struct {
	Period    string
	Type      string
	MaxSeries int
}

// A FilterResult maps 1-based series positions to extracted records.
// Indices holds the positions in ascending order.
type FilterResult struct {
	Indices []int
	Records map[int]*Record
}

// Len returns the number of series selected.
func (r *FilterResult) Len() int {
	return len(r.Indices)
}

// Filter scans all series in ascending position order, extracting
// those whose stored factor codes match the given labels.  An empty
// result is not an error.  A label outside the fixed level tables
// fails with ErrUnknownLabel rather than silently matching nothing.
func (ds *Dataset) Filter(opts FilterOptions) (*FilterResult, error) {

	var periodCode, typeCode string
	if opts.Period != "" {
		code, ok := PeriodLabelToCode[opts.Period]
		if !ok {
			return nil, fmt.Errorf("%w: period %q", ErrUnknownLabel, opts.Period)
		}
		periodCode = code
	}
	if opts.Type != "" {
		code, ok := TypeLabelToCode[opts.Type]
		if !ok {
			return nil, fmt.Errorf("%w: type %q", ErrUnknownLabel, opts.Type)
		}
		typeCode = code
	}

	total := ds.NumSeries()
	result := &FilterResult{Records: make(map[int]*Record)}

	for idx := 1; idx <= total; idx++ {

		pCode, tCode, err := ds.FactorCodes(idx)
		if err != nil {
			return nil, err
		}

		if periodCode != "" && pCode != periodCode {
			continue
		}
		if typeCode != "" && tCode != typeCode {
			continue
		}

		rec, err := ds.Extract(idx)
		if err != nil {
			return nil, err
		}
		result.Indices = append(result.Indices, idx)
		result.Records[idx] = rec

		if opts.MaxSeries > 0 && len(result.Indices) >= opts.MaxSeries {
			break
		}
	}

	fmt.Fprintf(ds.logw(), "Selected %d series out of %d (period=%s, type=%s)\n",
		result.Len(), total, opts.Period, opts.Type)

	return result, nil
}
