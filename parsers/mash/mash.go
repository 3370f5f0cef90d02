// Package mash parses Mash-style contig-vs-contig distance TSVs and builds
// the distance.Oracle the core consumes, applying the p-value filter from
// spec.md S3.2.
package mash

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/dedupref/distance"
)

const pValueCutoff = 0.05

// Parse reads (id_a, id_b, distance, p_value[, num_hashes]) rows from r and
// returns the subset with p_value < 0.05, ready for distance.Build.
func Parse(r io.Reader, name string) ([]distance.Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var records []distance.Record
	filtered := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 4 {
			return nil, errors.E(fmt.Sprintf(
				"malformed Mash row: expected at least 4 columns, got %d", len(fields)),
				name, fmt.Sprintf("line %d", lineNo))
		}

		dist, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, errors.E(err, "malformed Mash distance", name, fmt.Sprintf("line %d", lineNo))
		}
		pValue, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, errors.E(err, "malformed Mash p_value", name, fmt.Sprintf("line %d", lineNo))
		}

		if pValue >= pValueCutoff {
			filtered++
			continue
		}

		records = append(records, distance.Record{
			A:        fields[0],
			B:        fields[1],
			Distance: dist,
			PValue:   pValue,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.E(err, "reading Mash", name)
	}
	if filtered > 0 {
		log.Info.Printf("filtered out %d Mash records with p-value >= %.2f in %s", filtered, pValueCutoff, name)
	}
	return records, nil
}
