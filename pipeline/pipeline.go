// Package pipeline orchestrates the full S0-S8 de-duplication run: parsing
// inputs, S1-S6 filtering, and S7-S8 reporting, mirroring the phase
// sequence of the original implementation and the worker-pool shape of
// markduplicates.MarkDuplicates.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/dedupref/align"
	"github.com/grailbio/dedupref/contig"
	"github.com/grailbio/dedupref/distance"
	"github.com/grailbio/dedupref/parsers/busco"
	"github.com/grailbio/dedupref/parsers/fasta"
	"github.com/grailbio/dedupref/parsers/mash"
	"github.com/grailbio/dedupref/parsers/paf"
	"github.com/grailbio/dedupref/report"
	"github.com/grailbio/dedupref/screen"
	"github.com/grailbio/dedupref/tournament"
)

// Config is the closed set of tunable parameters from spec.md S6.
type Config struct {
	MinMQ                  int
	OverlapTolerance       int
	MinOverlap             int
	SizeSafeguard          float64
	DistanceThreshold      float64 // ignored unless DistanceThresholdSet.
	DistanceThresholdSet   bool
	MaxIterations          int
	Threads                int
}

// DefaultConfig returns spec.md S6's documented defaults, except Threads,
// which is 1 here; cmd/dedupref resolves the CPU-based default.
func DefaultConfig() Config {
	return Config{
		MinMQ:            10,
		OverlapTolerance: 10,
		MinOverlap:       1,
		SizeSafeguard:    0.50,
		MaxIterations:    100000,
		Threads:          1,
	}
}

// Inputs are the file paths the pipeline reads from and writes to.
type Inputs struct {
	PAFPath   string
	MashPath  string
	FASTAPath string
	BuscoPath string // optional; empty disables BUSCO accounting.
	OutDir    string
}

// Result is what a completed run produced, returned mainly for tests.
type Result struct {
	Records         []*contig.Record
	DistanceTau     float64
	ThresholdMethod string
}

// Run executes the complete pipeline: parse inputs, run S1-S6 filtering,
// then write the S7/S8 reports.
func Run(ctx context.Context, in Inputs, cfg Config) (Result, error) {
	records, rows, oracle, buscoByContig, err := loadInputs(ctx, in, cfg)
	if err != nil {
		return Result{}, err
	}

	primaryRows := align.PrimaryTargets(rows)
	rowsByQuery := groupByQuery(primaryRows)

	tileAndInit(records, rowsByQuery, cfg)

	tau, method, overlapDistances := estimateThreshold(records, oracle, cfg)

	runTournaments(records, oracle, tau, cfg)

	unaligned, alignedSurvivors := splitByAlignment(records)
	screen.Run(unaligned, alignedSurvivors, oracle, tau)

	if err := writeReports(ctx, in, cfg, records, overlapDistances, tau, method, buscoByContig); err != nil {
		return Result{}, err
	}

	ordered := make([]*contig.Record, 0, len(records))
	for _, r := range records {
		ordered = append(ordered, r)
	}

	return Result{Records: ordered, DistanceTau: tau, ThresholdMethod: method}, nil
}

func loadInputs(ctx context.Context, in Inputs, cfg Config) (
	map[string]*contig.Record, []align.Row, *distance.Oracle, map[string]map[string]struct{}, error,
) {
	summaries, err := fasta.Parse(ctx, in.FASTAPath, cfg.Threads)
	if err != nil {
		return nil, nil, nil, nil, errors.E(err, "loading FASTA")
	}
	records := make(map[string]*contig.Record, len(summaries))
	for _, s := range summaries {
		records[s.ID] = contig.New(s.ID, s.Length, s.GC)
	}

	pafFile, err := openFile(ctx, in.PAFPath)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	defer pafFile.closeAndLog()
	rows, err := paf.Parse(pafFile.reader, in.PAFPath, cfg.MinMQ)
	if err != nil {
		return nil, nil, nil, nil, errors.E(err, "loading PAF")
	}

	mashFile, err := openFile(ctx, in.MashPath)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	defer mashFile.closeAndLog()
	mashRecords, err := mash.Parse(mashFile.reader, in.MashPath)
	if err != nil {
		return nil, nil, nil, nil, errors.E(err, "loading Mash distances")
	}
	oracle := distance.Build(mashRecords)

	var buscoByContig map[string]map[string]struct{}
	if in.BuscoPath != "" {
		buscoFile, err := openFile(ctx, in.BuscoPath)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		defer buscoFile.closeAndLog()
		buscoByContig, err = busco.Parse(buscoFile.reader, in.BuscoPath)
		if err != nil {
			return nil, nil, nil, nil, errors.E(err, "loading BUSCO table")
		}
		for id, markers := range buscoByContig {
			if rec, ok := records[id]; ok {
				rec.Busco = markers
			}
		}
	}

	return records, rows, oracle, buscoByContig, nil
}

func groupByQuery(rows []align.Row) map[string][]align.Row {
	byQuery := make(map[string][]align.Row)
	for _, r := range rows {
		byQuery[r.QueryID] = append(byQuery[r.QueryID], r)
	}
	return byQuery
}

// tileAndInit runs S3 (tiling/scoring) for every aligned contig, sharded by
// query_id across Threads workers, following markduplicates.MarkDuplicates'
// channel-of-work + WaitGroup shape (spec.md S5); record writes are guarded
// by a sync.Mutex.
func tileAndInit(records map[string]*contig.Record, rowsByQuery map[string][]align.Row, cfg Config) {
	queryIDs := make([]string, 0, len(rowsByQuery))
	for id := range rowsByQuery {
		queryIDs = append(queryIDs, id)
	}

	jobs := make(chan string, len(queryIDs))
	for _, id := range queryIDs {
		jobs <- id
	}
	close(jobs)

	var mu sync.Mutex
	var wg sync.WaitGroup
	workers := cfg.Threads
	if workers < 1 {
		workers = 1
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for queryID := range jobs {
				rows := rowsByQuery[queryID]
				rec, ok := records[queryID]
				if !ok {
					continue
				}
				result := align.TileAndScore(queryID, rec.Length, rows, cfg.OverlapTolerance)
				initialOverlap := align.InitialOverlappingBases(rows)

				mu.Lock()
				rec.PrimaryTarget = rows[0].TargetID
				rec.Intervals = result.Intervals
				rec.SumNormalizedScore = result.SumNormalizedScore
				rec.MaxAlignmentScore = result.MaxAlignmentScore
				rec.TiledOutCount = result.TiledOutCount
				rec.InitialOverlappingBases = initialOverlap
				rec.Status = contig.AlignedRetained
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}

// estimateThreshold implements spec.md S4.3: collect the oracle distances
// of every locus-overlap pair among aligned contigs, then estimate tau
// (unless the caller supplied one).
func estimateThreshold(records map[string]*contig.Record, oracle *distance.Oracle, cfg Config) (float64, string, []float64) {
	byTarget := make(map[string][]*contig.Record)
	for _, r := range records {
		if r.Status != contig.AlignedRetained {
			continue
		}
		byTarget[r.PrimaryTarget] = append(byTarget[r.PrimaryTarget], r)
	}

	var overlapDistances []float64
	for _, group := range byTarget {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if !a.OverlapsAny(b, cfg.MinOverlap) {
					continue
				}
				if d, ok := oracle.Dist(a.ID, b.ID); ok {
					overlapDistances = append(overlapDistances, d)
				}
			}
		}
	}

	if cfg.DistanceThresholdSet {
		return cfg.DistanceThreshold, distance.MethodUserSupplied, overlapDistances
	}
	tau, method := distance.EstimateThreshold(overlapDistances)
	return tau, method, overlapDistances
}

// runTournaments executes S5 per locus group, sharded by primary_target
// across Threads workers (spec.md S5's "one shard per group" model).
// Per-locus failures (the fatal invariant assertion in tournament.Run, or
// any other panic escaping one shard's work) are contained exactly as
// markduplicates.MarkDuplicates.generatePAM contains its worker errors: each
// locus's tournament runs under a recover(), its error captured in a shared
// errors.Once, and the remaining loci proceed regardless (spec.md S5/S7).
func runTournaments(records map[string]*contig.Record, oracle *distance.Oracle, tau float64, cfg Config) {
	byTarget := make(map[string][]*contig.Record)
	for _, r := range records {
		if r.Status != contig.AlignedRetained {
			continue
		}
		byTarget[r.PrimaryTarget] = append(byTarget[r.PrimaryTarget], r)
	}

	targets := make([]string, 0, len(byTarget))
	for t := range byTarget {
		targets = append(targets, t)
	}

	jobs := make(chan string, len(targets))
	for _, t := range targets {
		jobs <- t
	}
	close(jobs)

	params := tournament.Params{
		MinOverlap:    cfg.MinOverlap,
		SizeSafeguard: cfg.SizeSafeguard,
		DistanceTau:   tau,
		MaxIterations: cfg.MaxIterations,
	}

	e := errors.Once{}
	var wg sync.WaitGroup
	workers := cfg.Threads
	if workers < 1 {
		workers = 1
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for target := range jobs {
				runLocusTournament(target, byTarget[target], oracle, params, &e)
			}
		}()
	}
	wg.Wait()

	if err := e.Err(); err != nil {
		log.Error.Printf("one or more loci failed their tournament and were skipped: %v", err)
	}
}

// runLocusTournament runs the tournament for a single locus shard, containing
// any panic (in particular tournament.checkInvariants' fatal assertion) so
// it cannot bring down sibling shards (spec.md S7's per-locus containment
// policy). The locus's records keep whatever state they had when the panic
// occurred; they are not rolled back.
func runLocusTournament(target string, group []*contig.Record, oracle *distance.Oracle, params tournament.Params, e *errors.Once) {
	defer func() {
		if r := recover(); r != nil {
			log.Error.Printf("tournament for locus %s failed, locus skipped: %v", target, r)
			e.Set(fmt.Errorf("locus %s: %v", target, r))
		}
	}()
	tournament.Run(group, oracle, params)
}

func splitByAlignment(records map[string]*contig.Record) (unaligned, alignedSurvivors []*contig.Record) {
	for _, r := range records {
		switch r.Status {
		case contig.UnalignedRetained:
			unaligned = append(unaligned, r)
		case contig.AlignedRetained:
			alignedSurvivors = append(alignedSurvivors, r)
		}
	}
	return unaligned, alignedSurvivors
}

func writeReports(
	ctx context.Context, in Inputs, cfg Config,
	records map[string]*contig.Record, overlapDistances []float64, tau float64, method string,
	buscoByContig map[string]map[string]struct{},
) error {
	if err := os.MkdirAll(in.OutDir, 0755); err != nil {
		return errors.E(err, "create output directory", in.OutDir)
	}

	ordered := make([]*contig.Record, 0, len(records))
	for _, r := range records {
		ordered = append(ordered, r)
	}

	if err := report.WriteTSV(ctx, filepath.Join(in.OutDir, "summary_report.tsv"), ordered); err != nil {
		return err
	}

	retained := make(map[string]struct{})
	for _, r := range ordered {
		if r.Status == contig.AlignedRetained || r.Status == contig.UnalignedRetained {
			retained[r.ID] = struct{}{}
		}
	}
	if err := fasta.WriteFiltered(ctx, in.FASTAPath, filepath.Join(in.OutDir, "filtered.fasta"), retained); err != nil {
		return err
	}

	allIDs := make(map[string]struct{}, len(ordered))
	for _, r := range ordered {
		allIDs[r.ID] = struct{}{}
	}
	buscoInitial := busco.CountCompleteness(buscoByContig, allIDs)
	buscoFiltered := busco.CountCompleteness(buscoByContig, retained)

	runParams := map[string]string{
		"min_mq":             itoa(cfg.MinMQ),
		"overlap_tolerance":  itoa(cfg.OverlapTolerance),
		"min_overlap":        itoa(cfg.MinOverlap),
		"size_safeguard":     ftoa(cfg.SizeSafeguard),
		"max_iterations":     itoa(cfg.MaxIterations),
		"threads":            itoa(cfg.Threads),
	}
	dashboard := report.BuildDashboard(ordered, overlapDistances, tau, method, buscoInitial, buscoFiltered, runParams)
	if err := report.WriteHTML(ctx, filepath.Join(in.OutDir, "report.html"), dashboard); err != nil {
		return err
	}

	log.Info.Printf("pipeline complete: %d contigs retained of %d total", len(retained), len(ordered))
	return nil
}
