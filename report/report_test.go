package report

import (
	"testing"

	"github.com/grailbio/dedupref/contig"
	"github.com/grailbio/dedupref/parsers/busco"
	"github.com/stretchr/testify/assert"
)

func TestCalculateAssemblyStats_Empty(t *testing.T) {
	stats := CalculateAssemblyStats(nil)
	assert.Equal(t, 0, stats.TotalBases)
	assert.Equal(t, 0, stats.NumContigs)
	assert.Equal(t, 0, stats.N[50])
}

func TestCalculateAssemblyStats_Basic(t *testing.T) {
	// Four contigs of length 100 each: total 400, so N50 reached at the
	// first contig covering 200 cumulative bases (the 2nd of the four).
	lengths := []int{100, 100, 100, 100}
	stats := CalculateAssemblyStats(lengths)
	assert.Equal(t, 400, stats.TotalBases)
	assert.Equal(t, 4, stats.NumContigs)
	assert.Equal(t, 100, stats.N[50])
	assert.Equal(t, 2, stats.NCount[50])
	assert.Equal(t, 100, stats.N[100])
	assert.Equal(t, 4, stats.NCount[100])
}

func TestCalculateAssemblyStats_SkewedLengths(t *testing.T) {
	// One big contig dominates: N50 should be the big contig itself.
	lengths := []int{1000, 10, 10, 10}
	stats := CalculateAssemblyStats(lengths)
	assert.Equal(t, 1000, stats.N[50])
	assert.Equal(t, 1, stats.NCount[50])
}

func TestLCurve_MonotoneCumulative(t *testing.T) {
	ranks, cum := LCurve([]int{30, 10, 20})
	assert.Equal(t, []int{1, 2, 3}, ranks)
	assert.Equal(t, []int{30, 50, 60}, cum)
}

func TestCountReasons(t *testing.T) {
	a := contig.New("a", 100, 40)
	a.RetainReasons.Score = true
	b := contig.New("b", 100, 40)
	b.DiscardReasons.Round1 = true

	counts := CountReasons([]*contig.Record{a, b})
	assert.Equal(t, 1, counts.Score)
	assert.Equal(t, 1, counts.Round1)
	assert.Equal(t, 0, counts.Mash)
}

func TestRetainedLengths(t *testing.T) {
	a := contig.New("a", 100, 40)
	a.Status = contig.AlignedRetained
	b := contig.New("b", 50, 40)
	b.Status = contig.AlignedDiscarded
	c := contig.New("c", 70, 40)
	c.Status = contig.UnalignedRetained

	lengths := RetainedLengths([]*contig.Record{a, b, c})
	assert.ElementsMatch(t, []int{100, 70}, lengths)
}

func TestBuildDashboard_RendersWithoutPanicking(t *testing.T) {
	a := contig.New("a", 100, 40)
	a.Status = contig.AlignedRetained
	a.RetainReasons.Score = true
	b := contig.New("b", 50, 60)
	b.Status = contig.AlignedDiscarded
	b.DiscardReasons.Round1 = true

	data := BuildDashboard(
		[]*contig.Record{a, b},
		[]float64{0.01, 0.02, 0.03},
		0.02,
		"KDE Valley",
		busco.Completeness{},
		busco.Completeness{},
		map[string]string{"min_mq": "20"},
	)
	assert.Contains(t, string(data.MashHistogramSVG), "<svg")
	assert.Contains(t, string(data.LCurveSVG), "<svg")
	assert.Contains(t, string(data.GCBlobSVG), "<svg")
}
