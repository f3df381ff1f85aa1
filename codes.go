package m4data

import "fmt"

// Factor level tables of the M4 object.  In R:
//
//	levels(M4[[1]]$period) -> "Daily" "Hourly" "Monthly" "Quarterly" "Weekly" "Yearly"
//	levels(M4[[1]]$type)   -> "Demographic" "Finance" "Industry" "Macro" "Micro" "Other"
//
// The stored values are the level codes "1".."6"; these tables map
// the human-readable labels to the codes.  Both are fixed and closed.
var (
	PeriodLabelToCode = map[string]string{
		"Daily":     "1",
		"Hourly":    "2",
		"Monthly":   "3",
		"Quarterly": "4",
		"Weekly":    "5",
		"Yearly":    "6",
	}

	TypeLabelToCode = map[string]string{
		"Demographic": "1",
		"Finance":     "2",
		"Industry":    "3",
		"Macro":       "4",
		"Micro":       "5",
		"Other":       "6",
	}
)

// PeriodCodeToLabel and TypeCodeToLabel are the inverses of the label
// tables.
var (
	PeriodCodeToLabel = invertCodes(PeriodLabelToCode)
	TypeCodeToLabel   = invertCodes(TypeLabelToCode)
)

func invertCodes(m map[string]string) map[string]string {
	inv := make(map[string]string, len(m))
	for label, code := range m {
		inv[code] = label
	}
	return inv
}

// FactorCodes returns the stored factor codes for the period and
// type fields of the series at the given 1-based position, as
// strings "1".."6".  No label translation is performed.
func (ds *Dataset) FactorCodes(index int) (periodCode, typeCode string, err error) {

	s, err := ds.Series(index)
	if err != nil {
		return "", "", err
	}

	pf, ok := s.Field("period")
	if !ok {
		return "", "", fmt.Errorf("series %d has no period field", index)
	}
	periodCode, err = pf.FirstCode()
	if err != nil {
		return "", "", err
	}

	tf, ok := s.Field("type")
	if !ok {
		return "", "", fmt.Errorf("series %d has no type field", index)
	}
	typeCode, err = tf.FirstCode()
	if err != nil {
		return "", "", err
	}

	return periodCode, typeCode, nil
}
