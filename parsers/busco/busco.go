// Package busco parses an optional BUSCO full_table.tsv and reports
// per-contig marker-gene sets and completeness counts, per spec.md S6 and
// S9 (BUSCO is carried as accounting metadata only; it never feeds the
// tournament's competition predicate).
package busco

import (
	"bufio"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
)

const (
	statusComplete   = "Complete"
	statusDuplicated = "Duplicated"
)

// columns: 0 busco_id, 1 status, 2 sequence (standard BUSCO full_table.tsv
// layout; later columns vary by BUSCO version and are ignored).
const (
	colBuscoID = 0
	colStatus  = 1
	colSeq     = 2
)

// Parse reads a BUSCO full_table.tsv (comment lines starting with '#' are
// skipped) and returns, for each contig id, the set of marker ids found
// Complete or Duplicated on it.
func Parse(r io.Reader, name string) (map[string]map[string]struct{}, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	out := make(map[string]map[string]struct{})
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) <= colSeq {
			continue
		}
		status := fields[colStatus]
		if status != statusComplete && status != statusDuplicated {
			continue
		}
		seq := fields[colSeq]
		if out[seq] == nil {
			out[seq] = make(map[string]struct{})
		}
		out[seq][fields[colBuscoID]] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.E(err, "reading BUSCO table", name)
	}
	return out, nil
}

// Completeness summarizes single-copy vs duplicated BUSCO markers found
// among a set of retained contig ids.
type Completeness struct {
	CompleteSingle int
	Duplicated     int
}

// CountCompleteness re-derives completeness counts restricted to
// retainedIDs: a marker found on exactly one retained contig counts as
// single-copy complete; found on more than one counts as duplicated.
func CountCompleteness(perContig map[string]map[string]struct{}, retainedIDs map[string]struct{}) Completeness {
	counts := make(map[string]int)
	for seq, markers := range perContig {
		if _, ok := retainedIDs[seq]; !ok {
			continue
		}
		for marker := range markers {
			counts[marker]++
		}
	}
	var c Completeness
	for _, n := range counts {
		switch {
		case n == 1:
			c.CompleteSingle++
		case n > 1:
			c.Duplicated++
		}
	}
	return c
}
