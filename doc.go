/*

Package m4data downloads the M4comp2018 R package tarball, extracts
the binary M4 dataset payload from it, and reads that payload into Go.

The M4 dataset is distributed as an R save file (M4.rda) inside the
package tarball.  Package m4data includes a native reader for the R
serialization format (RDX2/RDX3, XDR encoding), so no R installation
is required.  Objects read from a save file are held in a Session,
which plays the role of the R global environment: named bindings that
are cleared and repopulated on each load.

The M4 object itself is a list of about 100,000 time series.  The
Dataset type wraps it and provides 1-based positional access, field
extraction with per-field type conversion, and filtering by the
period and type categories of each series.

*/
package m4data

import "errors"

// Errors reported by the acquisition and extraction pipeline.
// Failures of the underlying transport or filesystem are returned
// as-is, or wrapped with one of these sentinels where the condition
// is part of the pipeline's own contract.
var (
	// ErrNoDataMember indicates that the package tarball contains no
	// member named */data/m4.rda or */data/m4.rdata.
	ErrNoDataMember = errors.New("no m4 data member found in tarball")

	// ErrExtraction indicates that a located tarball member could not
	// be read out of the archive.
	ErrExtraction = errors.New("failed to extract m4 data member")

	// ErrObjectMissing indicates that the expected top-level binding
	// did not appear after loading a save file.
	ErrObjectMissing = errors.New("object not defined by save file")

	// ErrIndexOutOfBounds indicates a series position outside 1..NumSeries.
	ErrIndexOutOfBounds = errors.New("series index out of bounds")

	// ErrUnknownLabel indicates a period or type label that is not one
	// of the six labels defined by the dataset.
	ErrUnknownLabel = errors.New("unknown category label")

	// ErrSchema indicates a series whose stored lengths disagree with
	// its n or h fields.
	ErrSchema = errors.New("series violates m4 schema")
)
