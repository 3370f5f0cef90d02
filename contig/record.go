// Package contig defines the per-contig record that flows through every
// stage of the de-duplication pipeline (S1-S6) and is enriched in place as
// each stage runs.
package contig

// Status is the tagged status of a contig at a point in the pipeline.
type Status int

const (
	// UnalignedRetained is the initial status of every contig.
	UnalignedRetained Status = iota
	// UnalignedDiscarded is set by S6 when an unaligned contig is found
	// redundant against a retained contig.
	UnalignedDiscarded
	// AlignedRetained is set during S1 for any contig with a surviving
	// primary-target alignment, and remains set for survivors of S5.
	AlignedRetained
	// AlignedDiscarded is set by S5 when a contig is disqualified by a
	// competing contig on the same locus.
	AlignedDiscarded
)

func (s Status) String() string {
	switch s {
	case UnalignedRetained:
		return "UnalignedRetained"
	case UnalignedDiscarded:
		return "UnalignedDiscarded"
	case AlignedRetained:
		return "AlignedRetained"
	case AlignedDiscarded:
		return "AlignedDiscarded"
	default:
		return "Unknown"
	}
}

// Interval is a half-open reference-coordinate range [Start, End) on a
// contig's primary target.
type Interval struct {
	Start, End int
}

// Overlap returns the number of bases by which i and o overlap. It may be
// negative, meaning the intervals are disjoint by that many bases.
func (i Interval) Overlap(o Interval) int {
	end := i.End
	if o.End < end {
		end = o.End
	}
	start := i.Start
	if o.Start > start {
		start = o.Start
	}
	return end - start
}

// DiscardReasons records why a contig left the retained set. The tournament
// and the unaligned screen set exactly one of these per spec.
type DiscardReasons struct {
	// Round1 is set when a contig is eliminated in the tournament's
	// initial sweep (S5 pass 1).
	Round1 bool
	// OrphanOverride is set when a contig is eliminated (or kept
	// eliminated) during the orphan-recovery fixpoint.
	OrphanOverride bool
	// MashRedundancy is set when an unaligned contig is discarded in S6.
	MashRedundancy bool
}

// Any reports whether at least one discard reason is set.
func (d DiscardReasons) Any() bool {
	return d.Round1 || d.OrphanOverride || d.MashRedundancy
}

// RetainReasons records why a surviving contig was kept. More than one may
// be set; see spec.md S9 for the known Score/Mash/Size/Score interaction.
type RetainReasons struct {
	Score          bool
	Mash           bool
	Size           bool
	OrphanRecovery bool
	Unique         bool
}

// Any reports whether at least one retain reason is set.
func (r RetainReasons) Any() bool {
	return r.Score || r.Mash || r.Size || r.OrphanRecovery || r.Unique
}

// Clear resets every retain reason; used by the tournament fixpoint when a
// contig's state changes, after which the caller re-derives whichever
// reasons apply.
func (r *RetainReasons) Clear() {
	*r = RetainReasons{}
}

// Record is the mutable per-contig record described in spec.md S3.1. A
// single Record is updated by exactly one pipeline stage/shard at a time.
type Record struct {
	ID     string
	Length int
	GC     float64 // fraction in [0, 100], informational only.
	Busco  map[string]struct{}

	Status Status

	// PrimaryTarget is the chosen reference locus id (S2); empty if the
	// contig never aligned.
	PrimaryTarget string

	// Intervals is the tiled, non-overlapping (within tolerance) interval
	// cover produced by S3. Never mutated after S3 completes.
	Intervals []Interval

	SumNormalizedScore float64
	MaxAlignmentScore  int

	InitialOverlappingBases int
	TiledOutCount           int

	// Disqualifier is the id of the contig that caused this contig's
	// current discarded status, if any.
	Disqualifier string

	DiscardReasons DiscardReasons
	RetainReasons  RetainReasons
}

// New returns a Record in its initial pipeline state (S1, before any
// alignment or marker data has been attached).
func New(id string, length int, gc float64) *Record {
	return &Record{
		ID:     id,
		Length: length,
		GC:     gc,
		Status: UnalignedRetained,
	}
}

// MinIntervalStart returns the minimum Start among Intervals, used for the
// canonical per-locus ordering in S5 (spec.md S4.4.3). Contigs with no
// intervals sort as if their minimum start were 0.
func (r *Record) MinIntervalStart() int {
	if len(r.Intervals) == 0 {
		return 0
	}
	m := r.Intervals[0].Start
	for _, iv := range r.Intervals[1:] {
		if iv.Start < m {
			m = iv.Start
		}
	}
	return m
}

// OverlapsAny reports whether any interval of r overlaps any interval of o
// by at least minOverlap bases.
func (r *Record) OverlapsAny(o *Record, minOverlap int) bool {
	for _, a := range r.Intervals {
		for _, b := range o.Intervals {
			if a.Overlap(b) >= minOverlap {
				return true
			}
		}
	}
	return false
}
