// Package align implements the alignment-side stages of the pipeline: S2
// primary-target selection (spec.md S4.1) and S3 alignment tiling and score
// finalization (spec.md S4.2). S1 contig-record initialization is done by
// package pipeline.
package align

import (
	"sort"

	"github.com/grailbio/dedupref/contig"
	"gonum.org/v1/gonum/stat"
)

// Row is a single alignment record, the S2/S3 input contract of spec.md
// S3.3. Mapping-quality filtering and the AS default are applied by the
// caller (parsers/paf) before Rows reach this package.
type Row struct {
	QueryID     string
	QueryLength int
	TargetID    string
	TargetStart int
	TargetEnd   int
	AlnLen      int
	AlnScore    int // AS tag; defaults to 0 upstream when absent.
}

// PrimaryTargets implements spec.md S4.1: for every query id with at least
// one row, choose exactly one target locus and return only the rows that
// align to it. Candidate loci are ranked by (p90(AS) desc, max(aln_len)
// desc, target_id asc).
func PrimaryTargets(rows []Row) []Row {
	if len(rows) == 0 {
		return rows
	}

	byQuery := make(map[string][]Row)
	queryOrder := make([]string, 0)
	for _, r := range rows {
		if _, ok := byQuery[r.QueryID]; !ok {
			queryOrder = append(queryOrder, r.QueryID)
		}
		byQuery[r.QueryID] = append(byQuery[r.QueryID], r)
	}

	out := make([]Row, 0, len(rows))
	for _, q := range queryOrder {
		target := choosePrimaryTarget(byQuery[q])
		for _, r := range byQuery[q] {
			if r.TargetID == target {
				out = append(out, r)
			}
		}
	}
	return out
}

type targetSummary struct {
	targetID  string
	p90AS     float64
	maxAlnLen int
}

func choosePrimaryTarget(rows []Row) string {
	byTarget := make(map[string][]Row)
	targetOrder := make([]string, 0)
	for _, r := range rows {
		if _, ok := byTarget[r.TargetID]; !ok {
			targetOrder = append(targetOrder, r.TargetID)
		}
		byTarget[r.TargetID] = append(byTarget[r.TargetID], r)
	}

	summaries := make([]targetSummary, 0, len(targetOrder))
	for _, t := range targetOrder {
		group := byTarget[t]
		scores := make([]float64, len(group))
		maxLen := 0
		for i, r := range group {
			scores[i] = float64(r.AlnScore)
			if r.AlnLen > maxLen {
				maxLen = r.AlnLen
			}
		}
		summaries = append(summaries, targetSummary{
			targetID:  t,
			p90AS:     percentile90(scores),
			maxAlnLen: maxLen,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if a.p90AS != b.p90AS {
			return a.p90AS > b.p90AS
		}
		if a.maxAlnLen != b.maxAlnLen {
			return a.maxAlnLen > b.maxAlnLen
		}
		return a.targetID < b.targetID
	})
	return summaries[0].targetID
}

// percentile90 returns the 90th percentile of values using gonum/stat's
// LinInterp cumulant kind, which interpolates the empirical CDF at p*n; this
// is not numpy's default (n-1)*p rank interpolation.
func percentile90(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return stat.Quantile(0.90, stat.LinInterp, sorted, nil)
}

// TileResult is the S3 output for a single contig.
type TileResult struct {
	QueryID            string
	Intervals          []contig.Interval
	SumNormalizedScore float64
	MaxAlignmentScore  int
	TiledOutCount      int
}

// TileAndScore implements spec.md S4.2: greedy-by-score tiling of one
// contig's alignments on its primary target, with a single normalized
// score. rows must all share QueryID and TargetID (already filtered to the
// primary target by PrimaryTargets).
func TileAndScore(queryID string, queryLength int, rows []Row, overlapTolerance int) TileResult {
	sorted := append([]Row(nil), rows...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].AlnScore != sorted[j].AlnScore {
			return sorted[i].AlnScore > sorted[j].AlnScore
		}
		return sorted[i].AlnLen > sorted[j].AlnLen
	})

	var accepted []contig.Interval
	total := 0
	maxScore := 0
	tiledOut := 0

	for _, r := range sorted {
		iv := contig.Interval{Start: r.TargetStart, End: r.TargetEnd}
		overlapping := false
		for _, a := range accepted {
			if iv.Overlap(a) > overlapTolerance {
				overlapping = true
				break
			}
		}
		if overlapping {
			tiledOut++
			continue
		}
		accepted = append(accepted, iv)
		total += r.AlnScore
		if r.AlnScore > maxScore {
			maxScore = r.AlnScore
		}
	}

	var sumNormalized float64
	if queryLength > 0 {
		sumNormalized = float64(total) / float64(queryLength)
	}

	return TileResult{
		QueryID:            queryID,
		Intervals:          accepted,
		SumNormalizedScore: sumNormalized,
		MaxAlignmentScore:  maxScore,
		TiledOutCount:      tiledOut,
	}
}

// InitialOverlappingBases implements the diagnostic sweep from spec.md S4.2
// (and orig/core/filtering.py's calculate_initial_redundancy): the number
// of reference bases on the primary target covered by more than one input
// alignment, computed via a coordinate sweep of (position, +-1) events.
func InitialOverlappingBases(rows []Row) int {
	if len(rows) == 0 {
		return 0
	}
	type event struct {
		pos   int
		delta int
	}
	events := make([]event, 0, len(rows)*2)
	for _, r := range rows {
		events = append(events, event{r.TargetStart, 1}, event{r.TargetEnd, -1})
	}
	sort.Slice(events, func(i, j int) bool { return events[i].pos < events[j].pos })

	coverage := 0
	lastPos := events[0].pos
	redundant := 0
	for _, e := range events {
		if coverage > 1 {
			redundant += e.pos - lastPos
		}
		coverage += e.delta
		lastPos = e.pos
	}
	return redundant
}
