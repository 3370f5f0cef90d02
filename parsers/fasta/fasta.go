// Package fasta extracts per-sequence length and GC fraction from a FASTA
// assembly, and streams a filtered copy of the input keeping only selected
// sequence ids. It deliberately stops short of encoding/fasta's full
// indexed-random-access Fasta interface: this module only ever needs
// length+GC summaries and a filtering pass, not substring lookups.
package fasta

import (
	"bufio"
	"context"
	"strings"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
)

const scannerBufferSize = 300 * 1024 * 1024

// Summary is the per-sequence length and GC fraction (percentage, [0,100])
// extracted from a FASTA record.
type Summary struct {
	ID     string
	Length int
	GC     float64
}

type rawSeq struct {
	id  string
	seq string
}

// Parse reads all sequences from path and computes their (length, GC%)
// summaries, sharding GC computation across threads workers the same way
// S3/S5 shard their per-contig work (spec.md S5).
func Parse(ctx context.Context, path string, threads int) ([]Summary, error) {
	seqs, err := readSequences(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(seqs) == 0 {
		return nil, nil
	}
	if threads < 1 {
		threads = 1
	}

	summaries := make([]Summary, len(seqs))
	jobs := make(chan int, len(seqs))
	for i := range seqs {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < threads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				summaries[i] = Summary{
					ID:     seqs[i].id,
					Length: len(seqs[i].seq),
					GC:     gcFraction(seqs[i].seq),
				}
			}
		}()
	}
	wg.Wait()
	return summaries, nil
}

// gcFraction returns the percentage (0-100) of G/C bases in seq. This is a
// plain byte scan rather than biosimd's packed-nibble routines: those
// require a 4-bit/base encoding this module has no other use for (see
// DESIGN.md).
func gcFraction(seq string) float64 {
	if len(seq) == 0 {
		return 0
	}
	gc := 0
	for i := 0; i < len(seq); i++ {
		switch seq[i] {
		case 'G', 'g', 'C', 'c':
			gc++
		}
	}
	return float64(gc) / float64(len(seq)) * 100
}

func readSequences(ctx context.Context, path string) ([]rawSeq, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open FASTA", path)
	}
	defer f.Close(ctx) // nolint: errcheck

	scanner := bufio.NewScanner(f.Reader(ctx))
	scanner.Buffer(make([]byte, 0, 64*1024), scannerBufferSize)

	var seqs []rawSeq
	var id string
	var seq strings.Builder
	flush := func() {
		if id != "" {
			seqs = append(seqs, rawSeq{id: id, seq: seq.String()})
			seq.Reset()
		}
	}
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if line[0] == '>' {
			flush()
			id = strings.SplitN(line[1:], " ", 2)[0]
		} else {
			seq.WriteString(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.E(err, "reading FASTA", path)
	}
	flush()
	return seqs, nil
}

// WriteFiltered streams srcPath to dstPath, keeping only records whose id
// is in keep.
func WriteFiltered(ctx context.Context, srcPath, dstPath string, keep map[string]struct{}) error {
	in, err := file.Open(ctx, srcPath)
	if err != nil {
		return errors.E(err, "open FASTA", srcPath)
	}
	defer in.Close(ctx) // nolint: errcheck

	out, err := file.Create(ctx, dstPath)
	if err != nil {
		return errors.E(err, "create filtered FASTA", dstPath)
	}
	w := bufio.NewWriter(out.Writer(ctx))

	scanner := bufio.NewScanner(in.Reader(ctx))
	scanner.Buffer(make([]byte, 0, 64*1024), scannerBufferSize)

	writing := false
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) > 0 && line[0] == '>' {
			id := strings.SplitN(line[1:], " ", 2)[0]
			_, writing = keep[id]
		}
		if !writing {
			continue
		}
		if _, err := w.WriteString(line); err != nil {
			return errors.E(err, "write filtered FASTA", dstPath)
		}
		if _, err := w.WriteString("\n"); err != nil {
			return errors.E(err, "write filtered FASTA", dstPath)
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.E(err, "reading FASTA", srcPath)
	}
	if err := w.Flush(); err != nil {
		return errors.E(err, "flush filtered FASTA", dstPath)
	}
	return out.Close(ctx)
}
