package report

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// TimeColumn is the column of the execution time in a report written by WriteTable
const TimeColumn = 3

// Times is the per block execution time read back from a report, in milliseconds
type Times []float64

// Total returns the sum of the times
func (t Times) Total() float64 {
	var total float64
	for _, v := range t {
		total += v
	}
	return total
}

// ReadTimes reads the time column of a whitespace separated report. The first
// line is a header. Blank lines and rows without the column are ignored.
func ReadTimes(path string, column int) (Times, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open report %s: %w", path, err)
	}
	defer f.Close()

	var times Times
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		if line == 1 {
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) <= column {
			continue
		}
		ms, err := ParseMillis(fields[column])
		if err != nil {
			return nil, fmt.Errorf("invalid time on line %d of %s: %w", line, path, err)
		}
		times = append(times, ms)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read report %s: %w", path, err)
	}
	return times, nil
}

// ParseMillis parses a time such as "1.5ms", "20µs", "20us" or "3ns" into
// milliseconds. A bare number is taken as milliseconds.
func ParseMillis(s string) (float64, error) {
	s = strings.TrimSpace(s)
	scale := 1.0
	switch {
	case strings.HasSuffix(s, "ms"):
		s = strings.TrimSuffix(s, "ms")
	case strings.HasSuffix(s, "µs"):
		s = strings.TrimSuffix(s, "µs")
		scale = 1e-3
	case strings.HasSuffix(s, "us"):
		s = strings.TrimSuffix(s, "us")
		scale = 1e-3
	case strings.HasSuffix(s, "ns"):
		s = strings.TrimSuffix(s, "ns")
		scale = 1e-6
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return v * scale, nil
}

// Comparison compares the total execution time of a candidate run against a baseline
type Comparison struct {
	BaselineBlocks  int
	CandidateBlocks int
	// totals in milliseconds
	BaselineTotal  float64
	CandidateTotal float64
	// Improvement is the time saved by the candidate as a percentage of the baseline
	Improvement float64
	// Speedup is baseline time over candidate time, zero if the candidate took no time
	Speedup   float64
	TimeSaved float64
}

// Compare compares two sets of block times
func Compare(baseline, candidate Times) Comparison {
	c := Comparison{
		BaselineBlocks:  len(baseline),
		CandidateBlocks: len(candidate),
		BaselineTotal:   baseline.Total(),
		CandidateTotal:  candidate.Total(),
	}
	c.TimeSaved = c.BaselineTotal - c.CandidateTotal
	if c.BaselineTotal > 0 {
		c.Improvement = c.TimeSaved / c.BaselineTotal * 100
	}
	if c.CandidateTotal > 0 {
		c.Speedup = c.BaselineTotal / c.CandidateTotal
	}
	return c
}

// MeetsThreshold returns true if the candidate improves on the baseline by at least pct percent
func (c Comparison) MeetsThreshold(pct float64) bool {
	return c.Improvement >= pct
}
