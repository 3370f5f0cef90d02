package report

import (
	"context"
	"html/template"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/dedupref/contig"
	"github.com/grailbio/dedupref/parsers/busco"
)

// DashboardData is everything the HTML dashboard template renders (spec.md
// S8, "interactive report"). It mirrors the original's generate_report
// inputs, minus the Plotly-JSON figures: plots are rendered as inline SVG
// rather than via a charting library (see DESIGN.md).
type DashboardData struct {
	RunParameters map[string]string

	StatsInitial  AssemblyStats
	StatsFiltered AssemblyStats

	BuscoInitial  busco.Completeness
	BuscoFiltered busco.Completeness

	RetainCounts  ReasonCounts
	DistanceTau   float64
	ThresholdMethod string

	MashHistogramSVG template.HTML
	LCurveSVG        template.HTML
	GCBlobSVG        template.HTML
}

const svgWidth, svgHeight = 640, 320

// BuildDashboard assembles DashboardData from a final summary list and the
// distances used to estimate the threshold.
func BuildDashboard(
	records []*contig.Record,
	overlapDistances []float64,
	tau float64,
	method string,
	buscoInitial, buscoFiltered busco.Completeness,
	runParameters map[string]string,
) DashboardData {
	initial := AllLengths(records)
	filtered := RetainedLengths(records)

	return DashboardData{
		RunParameters:   runParameters,
		StatsInitial:    CalculateAssemblyStats(initial),
		StatsFiltered:   CalculateAssemblyStats(filtered),
		BuscoInitial:    buscoInitial,
		BuscoFiltered:   buscoFiltered,
		RetainCounts:    CountReasons(records),
		DistanceTau:     tau,
		ThresholdMethod: method,

		MashHistogramSVG: template.HTML(histogramSVG(overlapDistances, tau)), // nolint: gosec
		LCurveSVG:        template.HTML(lCurveSVG(initial, filtered)),        // nolint: gosec
		GCBlobSVG:        template.HTML(gcBlobSVG(records)),                  // nolint: gosec
	}
}

// WriteHTML renders the dashboard to a self-contained HTML file at path.
func WriteHTML(ctx context.Context, path string, data DashboardData) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "create HTML report", path)
	}
	defer func() {
		if closeErr := out.Close(ctx); err == nil {
			err = closeErr
		}
	}()

	if err = dashboardTemplate.Execute(out.Writer(ctx), data); err != nil {
		return errors.E(err, "render HTML report", path)
	}
	return nil
}

var dashboardTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Assembly de-duplication report</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; margin-bottom: 1.5em; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: right; }
th { background: #f0f0f0; }
h2 { margin-top: 2em; }
</style>
</head>
<body>
<h1>Assembly de-duplication report</h1>

<h2>Run parameters</h2>
<table>
{{range $k, $v := .RunParameters}}<tr><th>{{$k}}</th><td>{{$v}}</td></tr>
{{end}}
</table>

<h2>Assembly statistics</h2>
<table>
<tr><th>Metric</th><th>Initial</th><th>Filtered</th></tr>
<tr><td>Total bases</td><td>{{.StatsInitial.TotalBases}}</td><td>{{.StatsFiltered.TotalBases}}</td></tr>
<tr><td>Num contigs</td><td>{{.StatsInitial.NumContigs}}</td><td>{{.StatsFiltered.NumContigs}}</td></tr>
<tr><td>N50</td><td>{{index .StatsInitial.N 50}}</td><td>{{index .StatsFiltered.N 50}}</td></tr>
<tr><td>N90</td><td>{{index .StatsInitial.N 90}}</td><td>{{index .StatsFiltered.N 90}}</td></tr>
</table>

<h2>BUSCO completeness</h2>
<table>
<tr><th>Metric</th><th>Initial</th><th>Filtered</th></tr>
<tr><td>Complete (single-copy)</td><td>{{.BuscoInitial.CompleteSingle}}</td><td>{{.BuscoFiltered.CompleteSingle}}</td></tr>
<tr><td>Duplicated</td><td>{{.BuscoInitial.Duplicated}}</td><td>{{.BuscoFiltered.Duplicated}}</td></tr>
</table>

<h2>Filtering decisions</h2>
<table>
<tr><th>Reason</th><th>Contigs</th></tr>
<tr><td>Retained: Score</td><td>{{.RetainCounts.Score}}</td></tr>
<tr><td>Retained: Mash</td><td>{{.RetainCounts.Mash}}</td></tr>
<tr><td>Retained: Size</td><td>{{.RetainCounts.Size}}</td></tr>
<tr><td>Retained: OrphanRecovery</td><td>{{.RetainCounts.OrphanRecovery}}</td></tr>
<tr><td>Retained: Unique</td><td>{{.RetainCounts.Unique}}</td></tr>
<tr><td>Discarded: Round1</td><td>{{.RetainCounts.Round1}}</td></tr>
<tr><td>Discarded: OrphanOverride</td><td>{{.RetainCounts.OrphanOverride}}</td></tr>
<tr><td>Discarded: MashRedundancy</td><td>{{.RetainCounts.MashRedundancy}}</td></tr>
</table>

<h2>Mash distance threshold</h2>
<p>tau = {{printf "%.4f" .DistanceTau}} (method: {{.ThresholdMethod}})</p>
{{.MashHistogramSVG}}

<h2>L-curve (cumulative assembly size)</h2>
{{.LCurveSVG}}

<h2>GC content vs. length</h2>
{{.GCBlobSVG}}

</body>
</html>
`))

func histogramSVG(distances []float64, tau float64) string {
	if len(distances) == 0 {
		return "<p>no overlap distances available</p>"
	}
	sorted := append([]float64(nil), distances...)
	sort.Float64s(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if hi <= lo {
		hi = lo + 1
	}
	const bins = 50
	counts := make([]int, bins)
	width := (hi - lo) / bins
	for _, d := range sorted {
		b := int((d - lo) / width)
		if b >= bins {
			b = bins - 1
		}
		if b < 0 {
			b = 0
		}
		counts[b]++
	}
	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	var b strings.Builder
	b.WriteString(svgOpen())
	barWidth := float64(svgWidth) / float64(bins)
	for i, c := range counts {
		h := float64(c) / float64(maxCount) * (svgHeight - 20)
		x := float64(i) * barWidth
		y := float64(svgHeight) - 20 - h
		b.WriteString(svgRect(x, y, barWidth-1, h, "#4472c4"))
	}
	if hi > lo {
		tauX := (tau - lo) / (hi - lo) * svgWidth
		b.WriteString(svgLine(tauX, 0, tauX, svgHeight-20, "red"))
	}
	b.WriteString("</svg>")
	return b.String()
}

func lCurveSVG(initial, filtered []int) string {
	_, yInit := LCurve(initial)
	_, yFilt := LCurve(filtered)
	maxY := 0
	for _, y := range yInit {
		if y > maxY {
			maxY = y
		}
	}
	if maxY == 0 {
		maxY = 1
	}
	var b strings.Builder
	b.WriteString(svgOpen())
	b.WriteString(svgPolyline(yInit, maxY, "#4472c4"))
	b.WriteString(svgPolyline(yFilt, maxY, "#70ad47"))
	b.WriteString("</svg>")
	return b.String()
}

func svgPolyline(ys []int, maxY int, color string) string {
	if len(ys) == 0 {
		return ""
	}
	var pts strings.Builder
	for i, y := range ys {
		x := float64(i) / float64(len(ys)-1) * svgWidth
		if len(ys) == 1 {
			x = 0
		}
		py := svgHeight - float64(y)/float64(maxY)*svgHeight
		if i > 0 {
			pts.WriteString(" ")
		}
		pts.WriteString(itoaF(x))
		pts.WriteString(",")
		pts.WriteString(itoaF(py))
	}
	return `<polyline points="` + pts.String() + `" fill="none" stroke="` + color + `" stroke-width="2"/>`
}

func gcBlobSVG(records []*contig.Record) string {
	if len(records) == 0 {
		return "<p>no contigs</p>"
	}
	maxLen := 1
	for _, r := range records {
		if r.Length > maxLen {
			maxLen = r.Length
		}
	}
	colorByStatus := map[contig.Status]string{
		contig.AlignedRetained:     "#4472c4",
		contig.UnalignedRetained:   "#70ad47",
		contig.AlignedDiscarded:    "#c00000",
		contig.UnalignedDiscarded:  "#ed7d31",
	}
	var b strings.Builder
	b.WriteString(svgOpen())
	for _, r := range records {
		x := float64(r.Length) / float64(maxLen) * svgWidth
		y := svgHeight - (r.GC/100.0)*svgHeight
		color := colorByStatus[r.Status]
		if color == "" {
			color = "gray"
		}
		b.WriteString(svgCircle(x, y, 2, color))
	}
	b.WriteString("</svg>")
	return b.String()
}

func svgOpen() string {
	return `<svg xmlns="http://www.w3.org/2000/svg" width="` + itoaF(svgWidth) + `" height="` + itoaF(svgHeight) + `" style="border:1px solid #ccc">`
}

func svgRect(x, y, w, h float64, color string) string {
	if h < 0 {
		h = 0
	}
	return `<rect x="` + itoaF(x) + `" y="` + itoaF(y) + `" width="` + itoaF(w) + `" height="` + itoaF(h) + `" fill="` + color + `"/>`
}

func svgLine(x1, y1, x2, y2 float64, color string) string {
	return `<line x1="` + itoaF(x1) + `" y1="` + itoaF(y1) + `" x2="` + itoaF(x2) + `" y2="` + itoaF(y2) + `" stroke="` + color + `" stroke-width="2"/>`
}

func svgCircle(cx, cy, r float64, color string) string {
	return `<circle cx="` + itoaF(cx) + `" cy="` + itoaF(cy) + `" r="` + itoaF(r) + `" fill="` + color + `" fill-opacity="0.5"/>`
}

func itoaF(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
