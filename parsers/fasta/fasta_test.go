package fasta

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGCFraction(t *testing.T) {
	cases := []struct {
		seq  string
		want float64
	}{
		{"", 0},
		{"GGCC", 100},
		{"AATT", 0},
		{"GCAT", 50},
	}
	for _, c := range cases {
		got := gcFraction(c.seq)
		if got != c.want {
			t.Errorf("gcFraction(%q) = %v, want %v", c.seq, got, c.want)
		}
	}
}

func TestParse_BasicRecords(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)

	path := filepath.Join(tmpdir, "a.fasta")
	assert.NoError(t, ioutil.WriteFile(path, []byte(">seq1 desc\nACGT\nACGT\n>seq2\nGGCC\n"), 0644))

	ctx := vcontext.Background()
	summaries, err := Parse(ctx, path, 2)
	assert.NoError(t, err)
	assert.Len(t, summaries, 2)

	byID := make(map[string]Summary, len(summaries))
	for _, s := range summaries {
		byID[s.ID] = s
	}
	assert.Equal(t, 8, byID["seq1"].Length)
	assert.Equal(t, 50.0, byID["seq1"].GC)
	assert.Equal(t, 4, byID["seq2"].Length)
	assert.Equal(t, 100.0, byID["seq2"].GC)
}

func TestWriteFiltered_KeepsOnlySelected(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)

	src := filepath.Join(tmpdir, "src.fasta")
	dst := filepath.Join(tmpdir, "dst.fasta")
	assert.NoError(t, ioutil.WriteFile(src, []byte(">keep\nACGT\n>drop\nTTTT\n"), 0644))

	ctx := vcontext.Background()
	err := WriteFiltered(ctx, src, dst, map[string]struct{}{"keep": {}})
	assert.NoError(t, err)

	out, err := ioutil.ReadFile(dst)
	assert.NoError(t, err)
	assert.Contains(t, string(out), ">keep")
	assert.NotContains(t, string(out), ">drop")
}
