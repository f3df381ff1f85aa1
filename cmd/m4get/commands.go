package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rafmontano/m4data"
)

func archiveFromFlags(cmd *cobra.Command) *m4data.Archive {
	a := m4data.DefaultArchive()
	if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
		a.Dir = dir
	}
	if url, _ := cmd.Flags().GetString("url"); url != "" {
		a.URL = url
	}
	return a
}

func loadFromFlags(cmd *cobra.Command) (*m4data.Dataset, error) {
	a := archiveFromFlags(cmd)
	return m4data.LoadDataset(m4data.NewSession(), a.PayloadPath())
}

// --- fetch ---

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the M4comp2018 package tarball",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		_, err := archiveFromFlags(cmd).Fetch(force)
		return err
	},
}

// --- extract ---

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract M4.rda from the cached tarball",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		tarball, _ := cmd.Flags().GetString("tarball")
		_, err := archiveFromFlags(cmd).Extract(tarball, force)
		return err
	},
}

// --- vars ---

var varsCmd = &cobra.Command{
	Use:   "vars",
	Short: "Print the field names of one series",
	RunE: func(cmd *cobra.Command, args []string) error {
		index, _ := cmd.Flags().GetInt("index")

		ds, err := loadFromFlags(cmd)
		if err != nil {
			return err
		}

		fields, err := ds.Fields(index)
		if err != nil {
			return err
		}

		fmt.Printf("Variables for M4[[%d]]:\n", index)
		for _, f := range fields {
			fmt.Println(" -", f)
		}
		return nil
	},
}

// --- export ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export filtered series to CSV in long format",
	Long: `Export filtered series to CSV in long format.

Each row is one observation: st, period, type, segment, t, value.
The segment column is "x" for historical values and "xx" for the
true future values over the forecast horizon.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		period, _ := cmd.Flags().GetString("period")
		typ, _ := cmd.Flags().GetString("type")
		max, _ := cmd.Flags().GetInt("max")
		out, _ := cmd.Flags().GetString("out")

		ds, err := loadFromFlags(cmd)
		if err != nil {
			return err
		}

		res, err := ds.Filter(m4data.FilterOptions{Period: period, Type: typ, MaxSeries: max})
		if err != nil {
			return err
		}

		var w io.Writer = os.Stdout
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		return writeCSV(w, res)
	},
}

func writeCSV(w io.Writer, res *m4data.FilterResult) error {

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"st", "period", "type", "segment", "t", "value"}); err != nil {
		return err
	}

	row := make([]string, 6)
	for _, idx := range res.Indices {
		rec := res.Records[idx]
		row[0] = rec.St
		row[1] = rec.Period
		row[2] = rec.Type
		for _, seg := range []struct {
			name string
			vals []float64
		}{{"x", rec.X}, {"xx", rec.XX}} {
			row[3] = seg.name
			for t, v := range seg.vals {
				row[4] = strconv.Itoa(t + 1)
				row[5] = strconv.FormatFloat(v, 'g', -1, 64)
				if err := cw.Write(row); err != nil {
					return err
				}
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func init() {
	fetchCmd.Flags().Bool("force", false, "re-download even if cached")

	extractCmd.Flags().Bool("force", false, "overwrite an existing M4.rda")
	extractCmd.Flags().String("tarball", "", "path to the tarball (default: cached location)")

	varsCmd.Flags().Int("index", 1, "1-based series position")

	exportCmd.Flags().String("period", "", "period label (Daily, Hourly, Monthly, Quarterly, Weekly, Yearly)")
	exportCmd.Flags().String("type", "", "type label (Demographic, Finance, Industry, Macro, Micro, Other)")
	exportCmd.Flags().Int("max", 0, "cap on the number of series exported")
	exportCmd.Flags().String("out", "", "output file (default: standard output)")
}
