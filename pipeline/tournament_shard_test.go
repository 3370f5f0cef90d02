package pipeline

import (
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/dedupref/contig"
	"github.com/grailbio/dedupref/distance"
	"github.com/grailbio/dedupref/tournament"
	"github.com/stretchr/testify/assert"
)

// A locus shard whose contigs already violate spec.md S7's internal
// invariant (a discarded contig with no disqualifier) trips
// tournament.Run's fatal assertion. runLocusTournament must contain that
// panic rather than let it escape the worker goroutine, recording it in the
// shared errors.Once so the caller can tell the locus was skipped.
func TestRunLocusTournament_ContainsInvariantPanic(t *testing.T) {
	broken := []*contig.Record{
		{ID: "C1", Status: contig.AlignedDiscarded, Disqualifier: ""},
	}
	oracle := distance.Build(nil)
	params := tournament.Params{MinOverlap: 1, SizeSafeguard: 0.5, DistanceTau: 0.05, MaxIterations: 1000}

	e := errors.Once{}
	assert.NotPanics(t, func() {
		runLocusTournament("badTarget", broken, oracle, params, &e)
	})
	assert.Error(t, e.Err())
}

// A healthy shard runs to completion normally, leaving no trace in the
// errors.Once.
func TestRunLocusTournament_HealthyShardLeavesNoError(t *testing.T) {
	good := []*contig.Record{
		{ID: "G1", Status: contig.AlignedRetained, PrimaryTarget: "good", Length: 1000,
			Intervals: []contig.Interval{{Start: 0, End: 100}}},
	}
	oracle := distance.Build(nil)
	params := tournament.Params{MinOverlap: 1, SizeSafeguard: 0.5, DistanceTau: 0.05, MaxIterations: 1000}

	e := errors.Once{}
	runLocusTournament("good", good, oracle, params, &e)
	assert.NoError(t, e.Err())
	assert.Equal(t, contig.AlignedRetained, good[0].Status)
	assert.True(t, good[0].RetainReasons.Unique)
}
