// Package screen implements S6, the unaligned redundancy screen described
// in spec.md S4.5: after the tournament, contigs that never aligned are
// tested against a rolling survivor set built from aligned survivors and
// previously-confirmed unaligned survivors, in length-descending order.
package screen

import (
	"sort"

	"github.com/grailbio/dedupref/contig"
	"github.com/grailbio/dedupref/distance"
)

// Run screens unaligned in place against the given aligned survivors,
// mutating each unaligned record's Status/Disqualifier/DiscardReasons as
// it goes and returning the final set of contigs still UnalignedRetained
// (in the same length-descending order they were screened).
func Run(unaligned []*contig.Record, alignedSurvivors []*contig.Record, oracle *distance.Oracle, tau float64) []*contig.Record {
	sorted := append([]*contig.Record(nil), unaligned...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Length > sorted[j].Length
	})

	survivors := append([]*contig.Record(nil), alignedSurvivors...)
	var retainedUnaligned []*contig.Record

	for _, u := range sorted {
		var redundant *contig.Record
		for _, r := range survivors {
			if r.ID == u.ID {
				continue
			}
			if d, ok := oracle.Dist(u.ID, r.ID); ok && d < tau {
				redundant = r
				break
			}
		}
		if redundant != nil {
			u.Status = contig.UnalignedDiscarded
			u.Disqualifier = redundant.ID
			u.DiscardReasons.MashRedundancy = true
			continue
		}
		survivors = append(survivors, u)
		retainedUnaligned = append(retainedUnaligned, u)
	}

	return retainedUnaligned
}
