package report

import "github.com/grailbio/dedupref/contig"

// ReasonCounts tallies how many contigs carry each retain/discard reason
// flag across a final summary list (spec.md S8, "filtering decision sums").
type ReasonCounts struct {
	Score          int
	Mash           int
	Size           int
	OrphanRecovery int
	Unique         int

	Round1         int
	OrphanOverride int
	MashRedundancy int
}

// CountReasons tallies retain/discard reason flags across records.
func CountReasons(records []*contig.Record) ReasonCounts {
	var c ReasonCounts
	for _, r := range records {
		if r.RetainReasons.Score {
			c.Score++
		}
		if r.RetainReasons.Mash {
			c.Mash++
		}
		if r.RetainReasons.Size {
			c.Size++
		}
		if r.RetainReasons.OrphanRecovery {
			c.OrphanRecovery++
		}
		if r.RetainReasons.Unique {
			c.Unique++
		}
		if r.DiscardReasons.Round1 {
			c.Round1++
		}
		if r.DiscardReasons.OrphanOverride {
			c.OrphanOverride++
		}
		if r.DiscardReasons.MashRedundancy {
			c.MashRedundancy++
		}
	}
	return c
}

// RetainedLengths returns the lengths of every record whose Status is one
// of the two "retained" statuses.
func RetainedLengths(records []*contig.Record) []int {
	lengths := make([]int, 0, len(records))
	for _, r := range records {
		if r.Status == contig.AlignedRetained || r.Status == contig.UnalignedRetained {
			lengths = append(lengths, r.Length)
		}
	}
	return lengths
}

// AllLengths returns the lengths of every record, in input order.
func AllLengths(records []*contig.Record) []int {
	lengths := make([]int, len(records))
	for i, r := range records {
		lengths[i] = r.Length
	}
	return lengths
}
