package distance

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Threshold method labels, returned verbatim for the report and log lines.
const (
	MethodInsufficientPairs = "Default (Insufficient pairs)"
	MethodKDEValley         = "KDE Valley"
	Method95thPercentile    = "95th Percentile"
	MethodUnimodalHighMean  = "Default (Unimodal high-mean)"
	MethodUserSupplied      = "User-supplied"
)

const (
	minPairsForEstimate = 1000
	gridLow             = 0.0
	gridHigh            = 0.2
	gridPoints          = 500
	defaultThreshold    = 0.05
	unimodalMeanCutoff  = 0.1
	percentileCutoff    = 95.0
)

// EstimateThreshold implements spec.md S4.3's threshold cascade over the
// sketch distances of locus-overlapping contig pairs.
func EstimateThreshold(overlapDistances []float64) (tau float64, method string) {
	if len(overlapDistances) < minPairsForEstimate {
		return defaultThreshold, MethodInsufficientPairs
	}

	data := append([]float64(nil), overlapDistances...)
	sort.Float64s(data)

	if x, ok := kdeValley(data); ok {
		return x, MethodKDEValley
	}

	mean := stat.Mean(data, nil)
	if mean <= unimodalMeanCutoff {
		return stat.Quantile(percentileCutoff/100.0, stat.LinInterp, data, nil), Method95thPercentile
	}
	return defaultThreshold, MethodUnimodalHighMean
}

// kdeValley estimates a Gaussian KDE over sorted data using Scott's-rule
// bandwidth, evaluates it on a uniform 500-point grid over [0, 0.2], and
// returns the leftmost interior point where the density's discrete second
// difference changes sign from falling to rising (the first local minimum
// scanning left to right). gonum has no kernel-density estimator, so the
// kernel sum and the sign-change scan are both hand-written here,
// mirroring the original implementation's own hand-rolled
// np.diff(np.sign(np.diff(...))) valley scan.
func kdeValley(sortedData []float64) (float64, bool) {
	n := len(sortedData)
	if n == 0 {
		return 0, false
	}
	bw := scottBandwidth(sortedData)
	if bw <= 0 {
		return 0, false
	}

	grid := make([]float64, gridPoints)
	step := (gridHigh - gridLow) / float64(gridPoints-1)
	for i := range grid {
		grid[i] = gridLow + float64(i)*step
	}

	density := make([]float64, gridPoints)
	norm := 1.0 / (float64(n) * bw * math.Sqrt(2*math.Pi))
	for i, x := range grid {
		sum := 0.0
		for _, d := range sortedData {
			u := (x - d) / bw
			sum += math.Exp(-0.5 * u * u)
		}
		density[i] = sum * norm
	}

	// first derivative, then sign of second derivative's sign change:
	// look for the first index where diff(sign(diff(density))) > 0,
	// i.e. density stops falling and starts rising.
	diff1 := make([]float64, gridPoints-1)
	for i := 0; i < gridPoints-1; i++ {
		diff1[i] = density[i+1] - density[i]
	}
	sign := make([]int, len(diff1))
	for i, d := range diff1 {
		switch {
		case d > 0:
			sign[i] = 1
		case d < 0:
			sign[i] = -1
		default:
			sign[i] = 0
		}
	}
	for i := 1; i < len(sign); i++ {
		if sign[i]-sign[i-1] > 0 {
			// valley at grid index i (the +1 offset from diff1's index
			// matches numpy's `.nonzero()[0] + 1` adjustment).
			return grid[i], true
		}
	}
	return 0, false
}

// scottBandwidth computes Scott's rule bandwidth: n^(-1/5) * sigma, where
// sigma is the sample standard deviation.
func scottBandwidth(data []float64) float64 {
	n := float64(len(data))
	if n < 2 {
		return 0
	}
	_, sd := stat.MeanStdDev(data, nil)
	return sd * math.Pow(n, -1.0/5.0)
}
