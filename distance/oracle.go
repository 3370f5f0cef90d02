// Package distance implements the sketch-distance oracle (spec.md S3.2) and
// the S4 distance-threshold estimation cascade (spec.md S4.3).
package distance

// Oracle is a symmetric, read-only lookup of precomputed sketch distances
// between contig pairs. It is built once (Build) and never mutated
// afterward, matching spec.md S5's "oracle is immutable once built" rule.
type Oracle struct {
	byID map[string]map[string]float64
}

// Record is one input row: the sketch distance between A and B, exposed to
// the core only when PValue < 0.05 (spec.md S3.2).
type Record struct {
	A, B     string
	Distance float64
	PValue   float64
}

// Build constructs an Oracle from records already filtered to PValue < 0.05
// by the caller (parsers/mash). Both (a, b) and (b, a) are stored.
func Build(records []Record) *Oracle {
	o := &Oracle{byID: make(map[string]map[string]float64)}
	for _, r := range records {
		o.insert(r.A, r.B, r.Distance)
		o.insert(r.B, r.A, r.Distance)
	}
	return o
}

func (o *Oracle) insert(a, b string, d float64) {
	m, ok := o.byID[a]
	if !ok {
		m = make(map[string]float64)
		o.byID[a] = m
	}
	m[b] = d
}

// Dist returns (distance, true) if the oracle has a record for (a, b), or
// (0, false) ("no information") otherwise. Dist(a, a) is always (0, true).
func (o *Oracle) Dist(a, b string) (float64, bool) {
	if a == b {
		return 0, true
	}
	if o == nil {
		return 0, false
	}
	m, ok := o.byID[a]
	if !ok {
		return 0, false
	}
	d, ok := m[b]
	return d, ok
}
