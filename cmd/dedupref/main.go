// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

/*
dedupref removes redundant haplotigs from a reference-based genome
assembly, using contig-to-reference alignment overlap and Mash sketch distance to decide
which of two competing contigs on the same locus survives.
*/

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/dedupref/pipeline"
)

var (
	pafPath          = flag.String("paf", "", "Input PAF contig-to-reference alignment path (required)")
	mashPath         = flag.String("mash", "", "Input Mash distance TSV path (required)")
	fastaPath        = flag.String("fasta", "", "Input assembly FASTA path (required)")
	buscoPath        = flag.String("busco", "", "Optional BUSCO full_table.tsv path")
	outDir           = flag.String("out", "dedupref-out", "Output directory")
	minMQ            = flag.Int("min-mq", 10, "Minimum PAF mapping quality")
	overlapTolerance = flag.Int("overlap-tolerance", 10, "Max accepted same-contig tile overlap, in bases")
	minOverlap       = flag.Int("min-overlap", 1, "Min inter-contig overlap to trigger competition, in bases")
	sizeSafeguard    = flag.Float64("size-safeguard", 0.50, "Small/large length ratio floor for disqualification")
	distanceThresh   = flag.Float64("distance-threshold", -1, "Override the Mash distance threshold tau; if negative, estimate it")
	maxIterations    = flag.Int("max-iterations", 100000, "Fixpoint iteration ceiling per locus")
	threads          = flag.Int("threads", 0, "Parallel worker count; 0 = runtime.NumCPU()-1")
)

func deduprefUsage() {
	fmt.Printf("Usage: %s -paf <path> -mash <path> -fasta <path> [OPTIONS]\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = deduprefUsage
	shutdown := grail.Init()
	defer shutdown()

	flag.Parse()
	if *pafPath == "" || *mashPath == "" || *fastaPath == "" {
		log.Fatalf("-paf, -mash, and -fasta are all required")
	}

	cfg := pipeline.DefaultConfig()
	cfg.MinMQ = *minMQ
	cfg.OverlapTolerance = *overlapTolerance
	cfg.MinOverlap = *minOverlap
	cfg.SizeSafeguard = *sizeSafeguard
	cfg.MaxIterations = *maxIterations
	if *distanceThresh >= 0 {
		cfg.DistanceThreshold = *distanceThresh
		cfg.DistanceThresholdSet = true
	}
	cfg.Threads = *threads
	if cfg.Threads <= 0 {
		cfg.Threads = runtime.NumCPU() - 1
		if cfg.Threads < 1 {
			cfg.Threads = 1
		}
	}

	in := pipeline.Inputs{
		PAFPath:   *pafPath,
		MashPath:  *mashPath,
		FASTAPath: *fastaPath,
		BuscoPath: *buscoPath,
		OutDir:    *outDir,
	}

	ctx := vcontext.Background()
	result, err := pipeline.Run(ctx, in, cfg)
	if err != nil {
		log.Panicf("%v", err)
	}
	log.Info.Printf("dedupref complete: %d contigs processed, tau=%.4f (%s)", len(result.Records), result.DistanceTau, result.ThresholdMethod)
	log.Debug.Printf("exiting")
}
