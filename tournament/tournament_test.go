package tournament

import (
	"testing"

	"github.com/grailbio/dedupref/contig"
	"github.com/grailbio/dedupref/distance"
	"github.com/stretchr/testify/assert"
)

func mkContig(id string, length int, score float64, iv ...contig.Interval) *contig.Record {
	return &contig.Record{
		ID:                 id,
		Length:             length,
		Status:             contig.AlignedRetained,
		PrimaryTarget:      "T1",
		Intervals:          iv,
		SumNormalizedScore: score,
	}
}

// S-D from spec.md S8: direct discard by a superior, similar competitor.
func TestRun_SD_DirectDiscard(t *testing.T) {
	c1 := mkContig("C1", 1000, 0.8, contig.Interval{Start: 100, End: 500})
	c2 := mkContig("C2", 1000, 0.9, contig.Interval{Start: 200, End: 600})

	oracle := distance.Build([]distance.Record{{A: "C1", B: "C2", Distance: 0.01, PValue: 0.01}})
	group := Run([]*contig.Record{c1, c2}, oracle, Params{MinOverlap: 1, SizeSafeguard: 0.5, DistanceTau: 0.05, MaxIterations: 1000})

	byID := map[string]*contig.Record{}
	for _, c := range group {
		byID[c.ID] = c
	}
	assert.Equal(t, contig.AlignedRetained, byID["C2"].Status)
	assert.Equal(t, contig.AlignedDiscarded, byID["C1"].Status)
	assert.Equal(t, "C2", byID["C1"].Disqualifier)
	assert.True(t, byID["C1"].DiscardReasons.Round1)
}

// S-E from spec.md S8: size safeguard protects a much larger contig.
func TestRun_SE_SizeSafeguardProtectsLarge(t *testing.T) {
	c1 := mkContig("C1", 1000, 0.8, contig.Interval{Start: 100, End: 500})
	c2 := mkContig("C2", 300, 0.9, contig.Interval{Start: 200, End: 600})

	oracle := distance.Build([]distance.Record{{A: "C1", B: "C2", Distance: 0.01, PValue: 0.01}})
	group := Run([]*contig.Record{c1, c2}, oracle, Params{MinOverlap: 1, SizeSafeguard: 0.5, DistanceTau: 0.05, MaxIterations: 1000})

	byID := map[string]*contig.Record{}
	for _, c := range group {
		byID[c.ID] = c
	}
	assert.Equal(t, contig.AlignedRetained, byID["C1"].Status)
	assert.Equal(t, contig.AlignedRetained, byID["C2"].Status)
	assert.True(t, byID["C1"].RetainReasons.Size)
}

func TestRun_SingleContigIsUniqueAndRetained(t *testing.T) {
	c1 := mkContig("C1", 1000, 0.5, contig.Interval{Start: 0, End: 100})
	oracle := distance.Build(nil)
	group := Run([]*contig.Record{c1}, oracle, Params{MinOverlap: 1, SizeSafeguard: 0.5, DistanceTau: 0.05, MaxIterations: 1000})
	assert.Equal(t, contig.AlignedRetained, group[0].Status)
	assert.True(t, group[0].RetainReasons.Unique)
}

func TestRun_ZeroThresholdNeverDiscardsOnSimilarity(t *testing.T) {
	c1 := mkContig("C1", 1000, 0.8, contig.Interval{Start: 100, End: 500})
	c2 := mkContig("C2", 1000, 0.9, contig.Interval{Start: 200, End: 600})
	oracle := distance.Build([]distance.Record{{A: "C1", B: "C2", Distance: 0.0, PValue: 0.01}})
	group := Run([]*contig.Record{c1, c2}, oracle, Params{MinOverlap: 1, SizeSafeguard: 0.5, DistanceTau: 0, MaxIterations: 1000})
	for _, c := range group {
		assert.Equal(t, contig.AlignedRetained, c.Status)
	}
}

func TestRun_OrphanRecovery(t *testing.T) {
	// C1 and C2 overlap and are similar; C2 beats C1. C2 and C3 overlap and
	// are similar; C3 beats C2. C1 and C3 do not overlap each other. Once C2
	// is discarded by C3, C1 becomes an orphan (its disqualifier C2 is
	// itself discarded) and should be promoted back to retained.
	c1 := mkContig("C1", 1000, 0.5, contig.Interval{Start: 0, End: 200})
	c2 := mkContig("C2", 1000, 0.6, contig.Interval{Start: 100, End: 300}, contig.Interval{Start: 400, End: 600})
	c3 := mkContig("C3", 1000, 0.7, contig.Interval{Start: 500, End: 700})

	oracle := distance.Build([]distance.Record{
		{A: "C1", B: "C2", Distance: 0.01, PValue: 0.01},
		{A: "C2", B: "C3", Distance: 0.01, PValue: 0.01},
	})
	group := Run([]*contig.Record{c1, c2, c3}, oracle, Params{MinOverlap: 1, SizeSafeguard: 0.5, DistanceTau: 0.05, MaxIterations: 1000})

	byID := map[string]*contig.Record{}
	for _, c := range group {
		byID[c.ID] = c
	}
	assert.Equal(t, contig.AlignedDiscarded, byID["C2"].Status)
	assert.Equal(t, contig.AlignedRetained, byID["C3"].Status)
	assert.Equal(t, contig.AlignedRetained, byID["C1"].Status)
	assert.True(t, byID["C1"].RetainReasons.OrphanRecovery)
}

// Local maximality (spec.md S8, property 4): after convergence no retained
// contig has any retained competitor that would disqualify it.
func TestRun_LocalMaximalityAndIdempotence(t *testing.T) {
	c1 := mkContig("C1", 1000, 0.5, contig.Interval{Start: 0, End: 200})
	c2 := mkContig("C2", 1000, 0.6, contig.Interval{Start: 100, End: 300}, contig.Interval{Start: 400, End: 600})
	c3 := mkContig("C3", 1000, 0.7, contig.Interval{Start: 500, End: 700})

	oracle := distance.Build([]distance.Record{
		{A: "C1", B: "C2", Distance: 0.01, PValue: 0.01},
		{A: "C2", B: "C3", Distance: 0.01, PValue: 0.01},
	})
	params := Params{MinOverlap: 1, SizeSafeguard: 0.5, DistanceTau: 0.05, MaxIterations: 1000}
	group := Run([]*contig.Record{c1, c2, c3}, oracle, params)

	byID := map[string]*contig.Record{}
	order := map[string]int{}
	for i, c := range group {
		byID[c.ID] = c
		order[c.ID] = i
	}
	for _, c := range group {
		if c.Status != contig.AlignedRetained {
			continue
		}
		for _, o := range group {
			if o.ID == c.ID {
				continue
			}
			assert.False(t, Competes(c, o, byID, order, oracle, params), "%s should have no retained competitor after convergence", c.ID)
		}
	}

	// Running the tournament again on its own output must be a no-op.
	before := make(map[string]contig.Status, len(group))
	for _, c := range group {
		before[c.ID] = c.Status
	}
	Run(group, oracle, params)
	for _, c := range group {
		assert.Equal(t, before[c.ID], c.Status)
	}
}

// spec.md S7's internal invariant breach: a discarded contig with no
// disqualifier set is a fatal assertion, not a silently-tolerated state.
func TestCheckInvariants_PanicsOnUnsetDisqualifier(t *testing.T) {
	bad := []*contig.Record{
		{ID: "C1", Status: contig.AlignedDiscarded, Disqualifier: ""},
	}
	assert.Panics(t, func() { checkInvariants(bad) })
}

func TestCheckInvariants_OKWhenDisqualifierSet(t *testing.T) {
	good := []*contig.Record{
		{ID: "C1", Status: contig.AlignedDiscarded, Disqualifier: "C2"},
		{ID: "C2", Status: contig.AlignedRetained},
	}
	assert.NotPanics(t, func() { checkInvariants(good) })
}
