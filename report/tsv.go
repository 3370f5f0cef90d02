package report

import (
	"context"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/dedupref/contig"
)

var summaryHeader = []string{
	"query_id", "query_length", "gc_content", "matching_length", "status",
	"primary_target", "sum_normalized_score", "max_alignment_score", "disqualifier",
	"round1_discard", "orphan_override_discard", "mash_redundancy_discard",
	"score_retain", "mash_retain", "size_retain", "orphan_recovery_retain", "unique_retain",
}

// WriteTSV writes the per-contig disposition table (spec.md S8, "summary
// report") to path, one row per record in records, in the given order.
func WriteTSV(ctx context.Context, path string, records []*contig.Record) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create summary report", path)
	}
	defer func() {
		if closeErr := out.Close(ctx); err == nil {
			err = closeErr
		}
	}()

	w := tsv.NewWriter(out.Writer(ctx))
	for i, col := range summaryHeader {
		if i > 0 {
			w.WriteString("\t")
		}
		w.WriteString(col)
	}
	if err = w.EndLine(); err != nil {
		return errors.E(err, "write summary report header", path)
	}

	for _, r := range records {
		matchingLength := 0
		for _, iv := range r.Intervals {
			matchingLength += iv.End - iv.Start
		}

		w.WriteString(r.ID)
		w.WriteString("\t")
		w.WriteString(strconv.Itoa(r.Length))
		w.WriteString("\t")
		w.WriteString(strconv.FormatFloat(r.GC, 'f', 4, 64))
		w.WriteString("\t")
		w.WriteString(strconv.Itoa(matchingLength))
		w.WriteString("\t")
		w.WriteString(r.Status.String())
		w.WriteString("\t")
		w.WriteString(r.PrimaryTarget)
		w.WriteString("\t")
		w.WriteString(strconv.FormatFloat(r.SumNormalizedScore, 'f', 4, 64))
		w.WriteString("\t")
		w.WriteString(strconv.Itoa(r.MaxAlignmentScore))
		w.WriteString("\t")
		w.WriteString(r.Disqualifier)
		w.WriteString("\t")
		w.WriteString(strconv.FormatBool(r.DiscardReasons.Round1))
		w.WriteString("\t")
		w.WriteString(strconv.FormatBool(r.DiscardReasons.OrphanOverride))
		w.WriteString("\t")
		w.WriteString(strconv.FormatBool(r.DiscardReasons.MashRedundancy))
		w.WriteString("\t")
		w.WriteString(strconv.FormatBool(r.RetainReasons.Score))
		w.WriteString("\t")
		w.WriteString(strconv.FormatBool(r.RetainReasons.Mash))
		w.WriteString("\t")
		w.WriteString(strconv.FormatBool(r.RetainReasons.Size))
		w.WriteString("\t")
		w.WriteString(strconv.FormatBool(r.RetainReasons.OrphanRecovery))
		w.WriteString("\t")
		w.WriteString(strconv.FormatBool(r.RetainReasons.Unique))
		if err = w.EndLine(); err != nil {
			return errors.E(err, "write summary report row", path, r.ID)
		}
	}
	if err = w.Flush(); err != nil {
		return errors.E(err, "flush summary report", path)
	}
	return nil
}
