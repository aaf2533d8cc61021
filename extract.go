/**
 * Filename: /Users/shu/code/HiCPeaks/extract.go
 * Path: /Users/shu/code/HiCPeaks
 * Created Date: Monday, March 8th 2021, 7:03:15 pm
 * Author: shu
 *
 * Copyright (c) 2021 buguashushu
 */

package hicpeaks

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"math"
	"os"
	"path"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/shenwei356/bio/seqio/fai"
)

// Extracter bins intra-chromosomal Hi-C read pairs from a BAM file into
// per-chromosome contact matrices and writes them as an npy matrix container
type Extracter struct {
	Bamfile    string
	Fastafile  string
	Resolution int
	Outdir     string
	// Output file
	OutGenomeFile string
}

// Run converts the BAM file into the matrix container
func (r *Extracter) Run() error {
	mustExist(r.Bamfile)
	mustExist(r.Fastafile)
	if r.Resolution <= 0 {
		return fmt.Errorf("resolution must be positive, got %d", r.Resolution)
	}
	if err := os.MkdirAll(r.Outdir, 0755); err != nil {
		return err
	}

	sizes := r.readFastaSizes()
	chroms, counts, err := r.extractContactPairs(sizes)
	if err != nil {
		return err
	}
	return r.writeContainer(chroms, sizes, counts)
}

// readFastaSizes loads chromosome lengths from the FASTA index
func (r *Extracter) readFastaSizes() map[string]int {
	log.Noticef("Parse FASTA file `%s`", r.Fastafile)
	sizes := make(map[string]int)
	faidx, err := fai.New(r.Fastafile)
	ErrorAbort(err)
	defer faidx.Close()

	for name, rec := range faidx.Index {
		sizes[name] = rec.Length
	}
	return sizes
}

// extractContactPairs reads the BAM file and accumulates binned
// intra-chromosomal contact counts per chromosome
func (r *Extracter) extractContactPairs(sizes map[string]int) ([]string, map[string][]float64, error) {
	fh := mustOpen(r.Bamfile)
	defer fh.Close()

	log.Noticef("Parse bamfile `%s`", r.Bamfile)
	br, err := bam.NewReader(fh, 0)
	if br == nil {
		return nil, nil, fmt.Errorf("cannot open bamfile `%s` (%v)", r.Bamfile, err)
	}
	defer br.Close()

	var chroms []string
	nbins := make(map[string]int)
	counts := make(map[string][]float64)
	for _, ref := range br.Header().Refs() {
		name := ref.Name()
		// Sanity check the FASTA and BAM header lengths
		if length, ok := sizes[name]; ok && length != ref.Len() {
			log.Errorf("Length mismatch: %s (fasta: %d bam: %d)", name, length, ref.Len())
		}
		chroms = append(chroms, name)
		sizes[name] = ref.Len()
		n := (ref.Len() + r.Resolution - 1) / r.Resolution
		nbins[name] = n
		counts[name] = make([]float64, n*n)
	}

	total := 0
	for {
		rec, err := br.Read()
		if err != nil {
			if err != io.EOF {
				return nil, nil, err
			}
			break
		}
		// Filtering: Unmapped | Secondary | QCFail | Duplicate | Supplementary
		if rec.MapQ == 0 || rec.Flags&3844 != 0 {
			continue
		}
		if rec.Ref.Name() != rec.MateRef.Name() {
			continue
		}
		apos, bpos := rec.Pos, rec.MatePos
		// Count each pair once
		if apos > bpos || (apos == bpos && rec.Flags&sam.Read1 == 0) {
			continue
		}

		chrom := rec.Ref.Name()
		n := nbins[chrom]
		bi, bj := apos/r.Resolution, bpos/r.Resolution
		if bi >= n || bj >= n {
			continue
		}
		counts[chrom][bi*n+bj]++
		if bi != bj {
			counts[chrom][bj*n+bi]++
		}
		total++
	}
	log.Noticef("Extracted %d intra-chromosomal pairs across %d chromosomes",
		total, len(chroms))
	return chroms, counts, nil
}

// balanceWeights computes square-root vanilla coverage balancing weights.
// Bins with zero coverage get NaN, marking them invalid for testing.
func balanceWeights(counts []float64, n int) []float64 {
	coverage := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			coverage[i] += counts[i*n+j]
		}
	}

	total, nonzero := 0.0, 0
	for _, c := range coverage {
		if c > 0 {
			total += c
			nonzero++
		}
	}

	weights := make([]float64, n)
	if nonzero == 0 {
		for i := range weights {
			weights[i] = math.NaN()
		}
		return weights
	}
	mean := total / float64(nonzero)
	for i, c := range coverage {
		if c > 0 {
			weights[i] = 1 / math.Sqrt(c/mean)
		} else {
			weights[i] = math.NaN()
		}
	}
	return weights
}

// writeContainer serializes the matrices, weights and metadata
func (r *Extracter) writeContainer(chroms []string, sizes map[string]int,
	counts map[string][]float64) error {
	info := GenomeInfo{Resolution: r.Resolution}
	for _, chrom := range chroms {
		data := counts[chrom]
		n := (sizes[chrom] + r.Resolution - 1) / r.Resolution
		if err := writeNpyMatrix(path.Join(r.Outdir, chrom+".npy"), n, data); err != nil {
			return err
		}
		weights := balanceWeights(data, n)
		if err := writeNpyVector(path.Join(r.Outdir, chrom+".weights.npy"), weights); err != nil {
			return err
		}
		info.Chroms = append(info.Chroms, ChromInfo{Name: chrom, Length: sizes[chrom]})
	}

	buf, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	r.OutGenomeFile = path.Join(r.Outdir, GenomeFile)
	if err := ioutil.WriteFile(r.OutGenomeFile, buf, 0644); err != nil {
		return err
	}
	log.Noticef("Matrix container written to `%s`", r.Outdir)
	return nil
}
