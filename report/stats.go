// Package report computes assembly summary statistics and writes the
// per-contig disposition TSV and the self-contained HTML dashboard
// produced at the end of the pipeline (spec.md S8).
package report

import "sort"

// AssemblyStats holds the Nx family of statistics (N50 through N100) plus
// basic totals, following the original's calculate_assembly_stats.
type AssemblyStats struct {
	TotalBases  int
	NumContigs  int
	N           map[int]int // Nx length, keyed by 50,60,...,100
	NCount      map[int]int // number of contigs needed to reach Nx
}

var nxThresholds = []int{50, 60, 70, 80, 90, 100}

// CalculateAssemblyStats computes N50..N100 (and the contig counts needed
// to reach each) over lengths, in descending-length order.
func CalculateAssemblyStats(lengths []int) AssemblyStats {
	stats := AssemblyStats{
		N:      make(map[int]int, len(nxThresholds)),
		NCount: make(map[int]int, len(nxThresholds)),
	}
	if len(lengths) == 0 {
		for _, x := range nxThresholds {
			stats.N[x] = 0
			stats.NCount[x] = 0
		}
		return stats
	}

	sorted := append([]int(nil), lengths...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	total := 0
	for _, l := range sorted {
		total += l
	}
	stats.TotalBases = total
	stats.NumContigs = len(sorted)

	targets := make(map[int]float64, len(nxThresholds))
	for _, x := range nxThresholds {
		targets[x] = float64(total) * (float64(x) / 100.0)
	}

	cumulative := 0
	thresholdIdx := 0
	for i, length := range sorted {
		cumulative += length
		for thresholdIdx < len(nxThresholds) && float64(cumulative) >= targets[nxThresholds[thresholdIdx]] {
			x := nxThresholds[thresholdIdx]
			stats.N[x] = length
			stats.NCount[x] = i + 1
			thresholdIdx++
		}
	}
	for _, x := range nxThresholds[thresholdIdx:] {
		stats.N[x] = 0
		stats.NCount[x] = 0
	}
	return stats
}

// LCurve returns the (rank, cumulative-bases) pairs used for the L-curve
// plot: contig ranks 1..n against running total of lengths sorted
// descending.
func LCurve(lengths []int) (ranks []int, cumulative []int) {
	sorted := append([]int(nil), lengths...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	ranks = make([]int, len(sorted))
	cumulative = make([]int, len(sorted))
	running := 0
	for i, l := range sorted {
		running += l
		ranks[i] = i + 1
		cumulative[i] = running
	}
	return ranks, cumulative
}
