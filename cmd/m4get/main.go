// m4get fetches the M4comp2018 package tarball, extracts the M4
// dataset payload from it, and provides quick inspection and CSV
// export of the series.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "m4get",
	Short: "Fetch and inspect the M4comp2018 time series dataset",
	Long: `m4get manages a local copy of the M4 competition dataset.

The dataset ships inside the M4comp2018 R package tarball as a binary
R save file (M4.rda).  m4get downloads the tarball, extracts the save
file, and reads it natively; no R installation is required.

Examples:
  m4get fetch
  m4get extract
  m4get vars --index 1
  m4get export --period Yearly --type Macro --max 10 --out yearly_macro.csv`,
}

func main() {
	rootCmd.PersistentFlags().String("data-dir", "data", "local cache directory")
	rootCmd.PersistentFlags().String("url", "", "override the tarball URL")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(varsCmd)
	rootCmd.AddCommand(exportCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
