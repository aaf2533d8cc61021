/*
 *  caller_test.go
 *  hicpeaks
 *
 *  Created by shu on 03/14/21
 *  Copyright © 2021 buguashushu. All rights reserved.
 */

package hicpeaks_test

import (
	"bytes"
	"io/ioutil"
	"os"
	"path"
	"strconv"
	"strings"
	"testing"

	hicpeaks "github.com/buguashushu/HiCPeaks"
	"github.com/gonum/matrix/mat64"
	"github.com/shenwei356/xopen"
)

const testRes = 10000

// hotspotMatrix builds an n x n matrix with uniform background and one
// planted symmetric hotspot
func hotspotMatrix(n int, background, signal float64, row, col int) *mat64.Dense {
	m := uniformDense(n, background)
	m.Set(row, col, signal)
	m.Set(col, row, signal)
	return m
}

// unitWeights returns a weight vector of all ones
func unitWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return w
}

// testConfig is the engine configuration used across the synthetic scenarios
func testConfig() hicpeaks.Config {
	cfg := hicpeaks.DefaultConfig()
	cfg.Pws = []int{2}
	cfg.Wws = []int{5}
	cfg.MaxWw = 5
	cfg.SigLevel = 0.1
	cfg.MaxApart = 300000 // 30 bins
	return cfg
}

// runCaller executes the caller into a temp file and returns the raw output
func runCaller(t *testing.T, source hicpeaks.MatrixSource, cfg hicpeaks.Config, name string) []byte {
	t.Helper()
	outfile := path.Join(t.TempDir(), name)
	caller := hicpeaks.Caller{Source: source, Config: cfg, Outfile: outfile}
	if err := caller.Run(); err != nil {
		t.Fatal(err)
	}
	buf, err := ioutil.ReadFile(outfile)
	if err != nil {
		t.Fatal(err)
	}
	return buf
}

// dataRows strips the header and empty trailing line from caller output
func dataRows(buf []byte) []string {
	lines := strings.Split(strings.TrimSpace(string(buf)), "\n")
	return lines[1:]
}

func TestCallerPlantedHotspot(t *testing.T) {
	n := 50
	source := &hicpeaks.MemSource{
		Res:     testRes,
		Names:   []string{"1"},
		Mats:    map[string]*mat64.Dense{"1": hotspotMatrix(n, 10, 500, 20, 35)},
		Weights: map[string][]float64{"1": unitWeights(n)},
	}

	rows := dataRows(runCaller(t, source, testConfig(), "peaks.txt"))
	if len(rows) != 1 {
		t.Fatalf("got %d peaks; want exactly 1:\n%s", len(rows), strings.Join(rows, "\n"))
	}

	fields := strings.Split(rows[0], "\t")
	if fields[0] != "1" {
		t.Errorf("chrom = %q; want \"1\"", fields[0])
	}
	loc1, _ := strconv.Atoi(fields[1])
	loc2, _ := strconv.Atoi(fields[2])
	if loc1 != 20*testRes || loc2 != 35*testRes {
		t.Errorf("peak at (%d, %d); want (%d, %d)", loc1, loc2, 20*testRes, 35*testRes)
	}

	enrichment, _ := strconv.ParseFloat(fields[7], 64)
	if enrichment <= 10 {
		t.Errorf("D-enrichment = %v; want > 10", enrichment)
	}
	dq, _ := strconv.ParseFloat(fields[9], 64)
	llq, _ := strconv.ParseFloat(fields[12], 64)
	if dq >= 0.1 || llq >= 0.1 {
		t.Errorf("q-values = (%v, %v); want both < 0.1", dq, llq)
	}
}

func TestCallerDistanceBand(t *testing.T) {
	n := 50
	// The hotspot sits 35 bins off-diagonal, beyond maxapart (30 bins):
	// it must never be tested
	source := &hicpeaks.MemSource{
		Res:     testRes,
		Names:   []string{"1"},
		Mats:    map[string]*mat64.Dense{"1": hotspotMatrix(n, 10, 500, 5, 40)},
		Weights: map[string][]float64{"1": unitWeights(n)},
	}
	if rows := dataRows(runCaller(t, source, testConfig(), "far.txt")); len(rows) != 0 {
		t.Errorf("hotspot beyond the distance band was called: %v", rows)
	}

	// Below the minimum donut width (3 < 5 bins): also never tested
	source.Mats["1"] = hotspotMatrix(n, 10, 500, 20, 23)
	if rows := dataRows(runCaller(t, source, testConfig(), "near.txt")); len(rows) != 0 {
		t.Errorf("hotspot below the minimum donut width was called: %v", rows)
	}
}

// threeChromSource plants one hotspot per chromosome
func threeChromSource(n int) *hicpeaks.MemSource {
	return &hicpeaks.MemSource{
		Res:   testRes,
		Names: []string{"1", "2", "X"},
		Mats: map[string]*mat64.Dense{
			"1": hotspotMatrix(n, 10, 500, 10, 25),
			"2": hotspotMatrix(n, 10, 500, 15, 30),
			"X": hotspotMatrix(n, 10, 500, 20, 35),
		},
		Weights: map[string][]float64{
			"1": unitWeights(n),
			"2": unitWeights(n),
			"X": unitWeights(n),
		},
	}
}

func TestCallerDeterministicOrdering(t *testing.T) {
	source := threeChromSource(50)

	cfg := testConfig()
	cfg.NWorkers = 1
	sequential := runCaller(t, source, cfg, "seq.txt")

	cfg.NWorkers = 3
	parallel := runCaller(t, source, cfg, "par.txt")

	if !bytes.Equal(sequential, parallel) {
		t.Errorf("output differs between 1 and 3 workers:\n--- sequential\n%s--- parallel\n%s",
			sequential, parallel)
	}

	// Output follows chromosome dispatch order
	var chroms []string
	for _, row := range dataRows(sequential) {
		chroms = append(chroms, strings.Split(row, "\t")[0])
	}
	if strings.Join(chroms, ",") != "1,2,X" {
		t.Errorf("chromosome order = %v; want [1 2 X]", chroms)
	}
}

func TestCallerGzipOutput(t *testing.T) {
	// A .gz outfile must round-trip to the same bytes as the plain table,
	// which only holds when the writer is flushed and closed properly
	source := threeChromSource(50)
	cfg := testConfig()
	plain := runCaller(t, source, cfg, "peaks.txt")

	outfile := path.Join(t.TempDir(), "peaks.txt.gz")
	caller := hicpeaks.Caller{Source: source, Config: cfg, Outfile: outfile}
	if err := caller.Run(); err != nil {
		t.Fatal(err)
	}
	fh, err := xopen.Ropen(outfile)
	if err != nil {
		t.Fatal(err)
	}
	defer fh.Close()
	unzipped, err := ioutil.ReadAll(fh)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(unzipped, plain) {
		t.Errorf("gzip output differs from plain output:\n--- plain\n%s--- gzip\n%s",
			plain, unzipped)
	}
}

func TestCallerShortChromosome(t *testing.T) {
	// A 3-bin contig (chrM-sized) cannot hold a donut: it is skipped with
	// an empty table, and the other chromosomes still get called
	n := 50
	source := &hicpeaks.MemSource{
		Res:   testRes,
		Names: []string{"1", "M"},
		Mats: map[string]*mat64.Dense{
			"1": hotspotMatrix(n, 10, 500, 20, 35),
			"M": uniformDense(3, 10),
		},
		Weights: map[string][]float64{
			"1": unitWeights(n),
			"M": unitWeights(3),
		},
	}
	rows := dataRows(runCaller(t, source, testConfig(), "short.txt"))
	if len(rows) != 1 {
		t.Fatalf("got %d peaks; want the valid chromosome's single peak:\n%s",
			len(rows), strings.Join(rows, "\n"))
	}
	if chrom := strings.Split(rows[0], "\t")[0]; chrom != "1" {
		t.Errorf("peak on %q; want \"1\"", chrom)
	}
}

func TestCallerZeroCountPixels(t *testing.T) {
	// Zero-count pixels inside the band stay in the corrected population
	// (trivially p = 1) and never produce calls of their own
	n := 50
	m := hotspotMatrix(n, 10, 500, 20, 35)
	for _, cell := range [][2]int{{0, 28}, {1, 29}, {5, 33}} {
		m.Set(cell[0], cell[1], 0)
		m.Set(cell[1], cell[0], 0)
	}
	source := &hicpeaks.MemSource{
		Res:     testRes,
		Names:   []string{"1"},
		Mats:    map[string]*mat64.Dense{"1": m},
		Weights: map[string][]float64{"1": unitWeights(n)},
	}
	rows := dataRows(runCaller(t, source, testConfig(), "zeros.txt"))
	if len(rows) != 1 {
		t.Fatalf("got %d peaks; want 1:\n%s", len(rows), strings.Join(rows, "\n"))
	}
	if loc1 := strings.Split(rows[0], "\t")[1]; loc1 != "200000" {
		t.Errorf("peak loc1 = %s; want 200000", loc1)
	}
}

func TestCallerChromSelection(t *testing.T) {
	source := threeChromSource(50)
	cfg := testConfig()
	cfg.Chroms = []string{"#"}

	for _, row := range dataRows(runCaller(t, source, cfg, "numeric.txt")) {
		chrom := strings.Split(row, "\t")[0]
		if chrom != "1" && chrom != "2" {
			t.Errorf("chromosome %q called despite numeric-only selection", chrom)
		}
	}
}

func TestCallerConfigErrors(t *testing.T) {
	source := threeChromSource(50)
	outfile := path.Join(t.TempDir(), "never.txt")

	cfg := testConfig()
	cfg.Pws = []int{5}
	cfg.Wws = []int{2} // pw must be smaller than ww
	caller := hicpeaks.Caller{Source: source, Config: cfg, Outfile: outfile}
	if err := caller.Run(); err == nil {
		t.Fatal("expected a configuration error")
	}
	// Fail-fast: nothing may be written before validation passes
	if _, err := os.Stat(outfile); !os.IsNotExist(err) {
		t.Error("output file was created despite a configuration error")
	}

	caller = hicpeaks.Caller{Config: testConfig(), Outfile: outfile}
	if err := caller.Run(); err == nil {
		t.Fatal("expected an error for a missing matrix source")
	}
}

func TestCallerAllMasked(t *testing.T) {
	// Chromosomes whose weights are all invalid produce no calls and no error
	n := 50
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 0
	}
	source := &hicpeaks.MemSource{
		Res:     testRes,
		Names:   []string{"1"},
		Mats:    map[string]*mat64.Dense{"1": hotspotMatrix(n, 10, 500, 20, 35)},
		Weights: map[string][]float64{"1": weights},
	}
	if rows := dataRows(runCaller(t, source, testConfig(), "masked.txt")); len(rows) != 0 {
		t.Errorf("calls produced from fully masked chromosome: %v", rows)
	}
}
