// m4toparquet converts filtered M4 series to a parquet file in long
// format: one row per observation, with the series identifier, the
// category codes, the segment ("x" for history, "xx" for the true
// future values), the 1-based time step, and the value.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
	"golang.org/x/sync/errgroup"

	"github.com/rafmontano/m4data"
)

// Observation is one parquet row.
type Observation struct {
	St      string  `parquet:"name=st, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Period  string  `parquet:"name=period, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Type    string  `parquet:"name=type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Segment string  `parquet:"name=segment, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	T       int32   `parquet:"name=t, type=INT32"`
	Value   float64 `parquet:"name=value, type=DOUBLE"`
}

func main() {

	dataDir := flag.String("dir", "data", "local cache directory")
	period := flag.String("period", "", "period label, e.g. Yearly")
	typ := flag.String("type", "", "type label, e.g. Macro")
	max := flag.Int("max", 0, "cap on the number of series exported")
	out := flag.String("out", "m4.parquet", "output parquet file")
	flag.Parse()

	if err := run(*dataDir, *period, *typ, *max, *out); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(dataDir, period, typ string, max int, out string) error {

	a := m4data.DefaultArchive()
	a.Dir = dataDir

	ds, err := m4data.LoadDataset(m4data.NewSession(), a.PayloadPath())
	if err != nil {
		return err
	}

	res, err := ds.Filter(m4data.FilterOptions{Period: period, Type: typ, MaxSeries: max})
	if err != nil {
		return err
	}

	fw, err := local.NewLocalFileWriter(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(Observation), 4)
	if err != nil {
		return fmt.Errorf("creating parquet writer: %w", err)
	}
	pw.RowGroupSize = 128 * 1024 * 1024
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	// One goroutine flattens records to rows while this one writes.
	rows := make(chan Observation, 1024)

	var g errgroup.Group
	g.Go(func() error {
		defer close(rows)
		for _, idx := range res.Indices {
			rec := res.Records[idx]
			for t, v := range rec.X {
				rows <- Observation{rec.St, rec.Period, rec.Type, "x", int32(t + 1), v}
			}
			for t, v := range rec.XX {
				rows <- Observation{rec.St, rec.Period, rec.Type, "xx", int32(t + 1), v}
			}
		}
		return nil
	})

	ntot := 0
	for row := range rows {
		if err := pw.Write(row); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
		ntot++
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("closing parquet writer: %w", err)
	}

	fmt.Printf("Wrote %d observations from %d series to %s\n", ntot, res.Len(), out)
	return nil
}
