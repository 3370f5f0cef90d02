// Package tournament implements the S5 iterative tournament described in
// spec.md S4.4: the per-locus competition predicate, the Pass 1 sweep, and
// the orphan-recovery fixpoint.
package tournament

import (
	"sort"

	"github.com/grailbio/base/log"
	"github.com/grailbio/dedupref/contig"
	"github.com/grailbio/dedupref/distance"
)

// Params are the tournament's tunable parameters, drawn from spec.md S6's
// configuration table.
type Params struct {
	MinOverlap    int
	SizeSafeguard float64
	DistanceTau   float64
	MaxIterations int
}

// Run executes the tournament on one locus group (all contigs sharing a
// primary target, all AlignedRetained on entry) and returns once the
// fixpoint is reached or MaxIterations is exhausted. group is mutated in
// place and also returned for convenience.
func Run(group []*contig.Record, oracle *distance.Oracle, p Params) []*contig.Record {
	if len(group) == 0 {
		return group
	}

	// Canonical order: ascending minimum interval start, tie-broken by id
	// (spec.md S4.4.3).
	sort.Slice(group, func(i, j int) bool {
		a, b := group[i], group[j]
		sa, sb := a.MinIntervalStart(), b.MinIntervalStart()
		if sa != sb {
			return sa < sb
		}
		return a.ID < b.ID
	})

	byID := make(map[string]*contig.Record, len(group))
	for _, c := range group {
		byID[c.ID] = c
	}
	// order gives each contig's canonical rank, for the score-tie
	// tie-break rule (spec.md S4.4.1 condition 3).
	order := make(map[string]int, len(group))
	for i, c := range group {
		order[c.ID] = i
	}

	competes := func(c, o *contig.Record) bool {
		return Competes(c, o, byID, order, oracle, p)
	}

	pass1(group, competes, oracle, p)
	checkInvariants(group)
	fixpoint(group, byID, competes, oracle, p)
	checkInvariants(group)

	return group
}

// checkInvariants enforces spec.md S7's internal invariant breach case: a
// discarded contig with no disqualifier set is a bug in the competition
// logic above, not a recoverable runtime condition, so it is a fatal
// assertion. Run's caller is expected to contain the resulting panic per
// locus shard (spec.md S5/S7's per-locus S5 containment policy).
func checkInvariants(group []*contig.Record) {
	for _, c := range group {
		if c.Status == contig.AlignedDiscarded && c.Disqualifier == "" {
			log.Panicf("invariant breach: contig %s is AlignedDiscarded with no disqualifier set", c.ID)
		}
	}
}

// Competes implements spec.md S4.4.1: does O outrank C on this locus? byID
// and order give O(1) id resolution and canonical rank lookup.
func Competes(c, o *contig.Record, byID map[string]*contig.Record, order map[string]int, oracle *distance.Oracle, p Params) bool {
	if o.ID == c.ID {
		return false
	}
	if o.Status != contig.AlignedRetained {
		return false
	}
	if !c.OverlapsAny(o, p.MinOverlap) {
		return false
	}

	switch {
	case o.SumNormalizedScore > c.SumNormalizedScore:
		// superior score, continue.
	case o.SumNormalizedScore == c.SumNormalizedScore:
		if order[o.ID] >= order[c.ID] {
			return false
		}
		log.Debug.Printf("score tie between %s and %s broken by canonical order in favor of %s", c.ID, o.ID, o.ID)
	default:
		return false
	}

	d, ok := oracle.Dist(c.ID, o.ID)
	if !ok || d >= p.DistanceTau {
		return false
	}

	if float64(o.Length) < p.SizeSafeguard*float64(c.Length) {
		return false
	}
	return true
}

// pass1 implements spec.md S4.4.3.
func pass1(group []*contig.Record, competes func(c, o *contig.Record) bool, oracle *distance.Oracle, p Params) {
	for _, c := range group {
		if c.Status != contig.AlignedRetained {
			continue
		}

		var disqualifier *contig.Record
		for _, o := range group {
			if o.ID == c.ID {
				continue
			}
			if competes(c, o) {
				disqualifier = o
				break
			}
		}

		if disqualifier != nil {
			c.Status = contig.AlignedDiscarded
			c.Disqualifier = disqualifier.ID
			c.DiscardReasons.Round1 = true
			continue
		}

		recomputeRetainReasons(c, group, oracle, p)
	}
}

// recomputeRetainReasons scans every other member of the group and sets
// C's retain-reason flags exactly as spec.md S4.4.3/S4.4.4 define them.
func recomputeRetainReasons(c *contig.Record, group []*contig.Record, oracle *distance.Oracle, p Params) {
	anyOverlap := false
	for _, o := range group {
		if o.ID == c.ID {
			continue
		}
		if !c.OverlapsAny(o, p.MinOverlap) {
			continue
		}
		anyOverlap = true

		if o.Status != contig.AlignedRetained {
			continue
		}
		if c.SumNormalizedScore > o.SumNormalizedScore {
			c.RetainReasons.Score = true
		}
		if d, ok := oracle.Dist(c.ID, o.ID); ok && d > p.DistanceTau && c.SumNormalizedScore < o.SumNormalizedScore {
			c.RetainReasons.Mash = true
		}
		if float64(o.Length) < p.SizeSafeguard*float64(c.Length) && c.SumNormalizedScore < o.SumNormalizedScore {
			c.RetainReasons.Size = true
		}
	}
	if !anyOverlap {
		c.RetainReasons.Unique = true
	}
}

// fixpoint implements spec.md S4.4.4's orphan-recovery loop.
func fixpoint(group []*contig.Record, byID map[string]*contig.Record, competes func(c, o *contig.Record) bool, oracle *distance.Oracle, p Params) {
	maxIter := p.MaxIterations
	if maxIter <= 0 {
		maxIter = 100000
	}

	changed := true
	iterations := 0
	for changed && iterations < maxIter {
		changed = false
		iterations++

		var orphans []*contig.Record
		for _, c := range group {
			if c.Status != contig.AlignedDiscarded {
				continue
			}
			dq, ok := byID[c.Disqualifier]
			if ok && dq.Status == contig.AlignedDiscarded {
				orphans = append(orphans, c)
			}
		}
		sort.Slice(orphans, func(i, j int) bool {
			a, b := orphans[i], orphans[j]
			sa, sb := a.MinIntervalStart(), b.MinIntervalStart()
			if sa != sb {
				return sa < sb
			}
			return a.ID < b.ID
		})

		for _, c := range orphans {
			// 1. Challenge existing winners, treating c as retained.
			prevStatus := c.Status
			c.Status = contig.AlignedRetained
			for _, r := range group {
				if r.ID == c.ID || r.Status != contig.AlignedRetained {
					continue
				}
				if competes(r, c) {
					r.Status = contig.AlignedDiscarded
					r.Disqualifier = c.ID
					r.DiscardReasons = contig.DiscardReasons{OrphanOverride: true}
					r.RetainReasons.Clear()
					changed = true
				}
			}
			c.Status = prevStatus

			// 2. Re-test C against whatever remains retained.
			var winner *contig.Record
			for _, r := range group {
				if r.ID == c.ID || r.Status != contig.AlignedRetained {
					continue
				}
				if competes(c, r) {
					winner = r
					break
				}
			}

			if winner != nil {
				c.Disqualifier = winner.ID
				c.DiscardReasons = contig.DiscardReasons{OrphanOverride: true}
				c.RetainReasons.Clear()
				continue
			}

			c.Status = contig.AlignedRetained
			c.Disqualifier = ""
			c.RetainReasons.Clear()
			c.RetainReasons.OrphanRecovery = true
			recomputeRetainReasons(c, group, oracle, p)
			changed = true
		}
	}

	if iterations >= maxIter {
		target := "unknown"
		if len(group) > 0 {
			target = group[0].PrimaryTarget
		}
		log.Error.Printf("tournament did not converge within %d iterations for target %s; accepting current state", maxIter, target)
	}
}
