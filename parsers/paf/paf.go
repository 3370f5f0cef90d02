// Package paf parses minimap2-style PAF alignment files into align.Row
// values, applying the mapping-quality filter and AS:i tag extraction
// described in spec.md S6. PAF rows carry a variable number of trailing
// optional SAM-style tag fields, which rules out a fixed-struct TSV reader;
// parsing instead splits each line into tab-separated tokens by hand.
package paf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/dedupref/align"
)

const numMandatoryFields = 12

// Parse reads PAF records from r, keeps only rows with mapping quality >=
// minMQ, and returns them as align.Row values. name is used only to
// annotate malformed-input errors.
func Parse(r io.Reader, name string, minMQ int) ([]align.Row, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var rows []align.Row
	missingAS := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < numMandatoryFields {
			return nil, errors.E(fmt.Sprintf(
				"malformed PAF row: expected at least %d columns, got %d", numMandatoryFields, len(fields)),
				name, fmt.Sprintf("line %d", lineNo))
		}

		queryLen, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, errors.E(err, "malformed PAF query_len", name, fmt.Sprintf("line %d", lineNo))
		}
		targetStart, err := strconv.Atoi(fields[7])
		if err != nil {
			return nil, errors.E(err, "malformed PAF target_start", name, fmt.Sprintf("line %d", lineNo))
		}
		targetEnd, err := strconv.Atoi(fields[8])
		if err != nil {
			return nil, errors.E(err, "malformed PAF target_end", name, fmt.Sprintf("line %d", lineNo))
		}
		alnLen, err := strconv.Atoi(fields[10])
		if err != nil {
			return nil, errors.E(err, "malformed PAF aln_len", name, fmt.Sprintf("line %d", lineNo))
		}
		mq, err := strconv.Atoi(fields[11])
		if err != nil {
			return nil, errors.E(err, "malformed PAF mapping_quality", name, fmt.Sprintf("line %d", lineNo))
		}
		if mq < minMQ {
			continue
		}

		as, ok := extractASTag(fields[numMandatoryFields:])
		if !ok {
			missingAS++
		}

		rows = append(rows, align.Row{
			QueryID:     fields[0],
			QueryLength: queryLen,
			TargetID:    fields[5],
			TargetStart: targetStart,
			TargetEnd:   targetEnd,
			AlnLen:      alnLen,
			AlnScore:    as,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.E(err, "reading PAF", name)
	}
	if missingAS > 0 {
		log.Error.Printf("%d records missing 'AS:i:' tag in %s; defaulted to 0", missingAS, name)
	}
	if len(rows) == 0 {
		log.Info.Printf("PAF file %s contained no rows passing mq >= %d", name, minMQ)
	}
	return rows, nil
}

// extractASTag scans the SAM-style optional tag fields of a PAF row for
// "AS:i:<score>", returning (0, false) if absent or unparseable.
func extractASTag(tags []string) (int, bool) {
	for _, t := range tags {
		if strings.HasPrefix(t, "AS:i:") {
			v, err := strconv.Atoi(strings.TrimPrefix(t, "AS:i:"))
			if err != nil {
				continue
			}
			return v, true
		}
	}
	return 0, false
}
