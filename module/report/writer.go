package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Header is the first line of a report table
const Header = "Block No\tThreads\tBlock Size\tWilliams Time"

// WriteTable writes the report as a tab separated table, one row per block:
// block number, worker count, transaction count and execution time in milliseconds.
func WriteTable(w io.Writer, r *RunReport) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, Header); err != nil {
		return fmt.Errorf("could not write report header: %w", err)
	}
	for _, res := range r.Blocks {
		_, err := fmt.Fprintf(bw, "%d\t%d\t%d\t%.6fms\n",
			res.Number,
			r.Threads,
			res.TxCount,
			Millis(res.ExecutionTime()),
		)
		if err != nil {
			return fmt.Errorf("could not write report row for block %d: %w", res.Number, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("could not flush report: %w", err)
	}
	return nil
}

// WriteFile writes the report table to path, replacing any existing file
func WriteFile(path string, r *RunReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create report file %s: %w", path, err)
	}

	err = WriteTable(f, r)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("could not close report file %s: %w", path, cerr)
	}
	return err
}
