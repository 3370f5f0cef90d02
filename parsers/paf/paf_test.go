package paf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse_BasicRowWithASTag(t *testing.T) {
	line := "Q1\t1000\t0\t200\t+\tchrA\t5000\t100\t300\t190\t200\t60\tAS:i:180\tcg:Z:200M\n"
	rows, err := Parse(strings.NewReader(line), "test.paf", 10)
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "Q1", rows[0].QueryID)
	assert.Equal(t, 1000, rows[0].QueryLength)
	assert.Equal(t, "chrA", rows[0].TargetID)
	assert.Equal(t, 100, rows[0].TargetStart)
	assert.Equal(t, 300, rows[0].TargetEnd)
	assert.Equal(t, 200, rows[0].AlnLen)
	assert.Equal(t, 180, rows[0].AlnScore)
}

func TestParse_MissingASDefaultsToZero(t *testing.T) {
	line := "Q1\t1000\t0\t200\t+\tchrA\t5000\t100\t300\t190\t200\t60\n"
	rows, err := Parse(strings.NewReader(line), "test.paf", 10)
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].AlnScore)
}

func TestParse_MapQFilter(t *testing.T) {
	line := "Q1\t1000\t0\t200\t+\tchrA\t5000\t100\t300\t190\t200\t5\tAS:i:180\n"
	rows, err := Parse(strings.NewReader(line), "test.paf", 10)
	assert.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParse_EmptyInput(t *testing.T) {
	rows, err := Parse(strings.NewReader(""), "empty.paf", 10)
	assert.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParse_MalformedRowTooFewColumns(t *testing.T) {
	_, err := Parse(strings.NewReader("Q1\t1000\t0\n"), "bad.paf", 10)
	assert.Error(t, err)
}
