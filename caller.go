/**
 * Filename: /Users/shu/code/HiCPeaks/caller.go
 * Path: /Users/shu/code/HiCPeaks
 * Created Date: Sunday, March 7th 2021, 11:29:50 am
 * Author: shu
 *
 * Copyright (c) 2021 buguashushu
 */

package hicpeaks

import (
	"fmt"
	"sync"

	"github.com/shenwei356/xopen"
)

// Config collects all tunables of the peak caller. It is passed explicitly
// into the Caller; nothing reads ambient state.
type Config struct {
	// Chroms restricts which chromosomes are processed; "#" means all
	// numerically-labeled ones, empty means all
	Chroms []string
	// Pws and Wws are parallel per-tier peak-window and donut half-widths (bins)
	Pws []int
	Wws []int
	// MaxWw caps the donut half-width regardless of tier
	MaxWw int
	// SigLevel is the significance cutoff for p- and q-values
	SigLevel float64
	// SumQ is the q-value sum cutoff for isolated singleton peaks
	SumQ float64
	// MaxApart is the maximum genomic distance (bp) between tested loci
	MaxApart int
	// ClusterRadius is the adjacency radius for clustering, in bins;
	// 0 means one peak-window step (the largest configured Pw)
	ClusterRadius int
	// NWorkers is the number of chromosome workers; 1 means sequential
	NWorkers int
}

// DefaultConfig returns the recommended parameters for ~10 kb matrices
func DefaultConfig() Config {
	return Config{
		Pws:      []int{2},
		Wws:      []int{5},
		MaxWw:    DefaultMaxWw,
		SigLevel: DefaultSigLevel,
		SumQ:     DefaultSumQ,
		MaxApart: DefaultMaxApart,
		NWorkers: 1,
	}
}

// Validate fails fast on configuration errors, before any computation
func (r *Config) Validate() error {
	if len(r.Pws) == 0 || len(r.Pws) != len(r.Wws) {
		return fmt.Errorf("pw and ww must be non-empty lists of equal length, got %d and %d",
			len(r.Pws), len(r.Wws))
	}
	for t := range r.Pws {
		if r.Pws[t] < 1 || r.Wws[t] <= r.Pws[t] {
			return fmt.Errorf("tier %d: need 1 <= pw < ww, got pw=%d ww=%d",
				t, r.Pws[t], r.Wws[t])
		}
	}
	if r.MaxWw < minInts(r.Wws) {
		return fmt.Errorf("maxww %d is below the smallest donut width %d",
			r.MaxWw, minInts(r.Wws))
	}
	if r.SigLevel <= 0 || r.SigLevel > 1 {
		return fmt.Errorf("significance level must be in (0, 1], got %g", r.SigLevel)
	}
	if r.SumQ <= 0 {
		return fmt.Errorf("sumq must be positive, got %g", r.SumQ)
	}
	if r.MaxApart <= 0 {
		return fmt.Errorf("maxapart must be positive, got %d", r.MaxApart)
	}
	if r.NWorkers < 1 {
		return fmt.Errorf("nworkers must be at least 1, got %d", r.NWorkers)
	}
	return nil
}

// clusterRadius resolves the adjacency radius: one peak-window step by default
func (r *Config) clusterRadius() int {
	if r.ClusterRadius > 0 {
		return r.ClusterRadius
	}
	return max(1, maxInts(r.Pws))
}

// CallChromosome runs the whole engine for one chromosome: banding,
// distance-expected profile, background estimation, Poisson testing, FDR
// correction and clustering. The banded state is local and garbage once the
// table is returned.
func CallChromosome(cm *ChromMatrices, cfg Config) []PeakCall {
	minWw := minInts(cfg.Wws)
	maxDist := min(cfg.MaxApart/cm.BinSize, cm.Raw.MaxDiag())
	stencils := tierStencils(cfg.Pws, cfg.Wws, cfg.MaxWw)

	var tested []*CandidatePixel
	n := cm.Raw.Bins()
	for d := minWw; d <= maxDist; d++ {
		st := stencils[tierIndex(d, minWw, maxDist, len(stencils))]
		for i := 0; i+d < n; i++ {
			// Zero-count pixels stay in the corrected population (p = 1)
			if px := cm.scorePixel(i, i+d, st); px != nil {
				tested = append(tested, px)
			}
		}
	}

	correctPixels(tested)

	var passing []*CandidatePixel
	for _, px := range tested {
		if px.isSignificant(cfg.SigLevel) && px.passesFDR(cfg.SigLevel) {
			passing = append(passing, px)
		}
	}
	log.Noticef("Chromosome %s: %d pixels tested, %d significant",
		cm.Chrom, len(tested), len(passing))

	return BuildPeakTable(cm.Chrom, passing, cm.BinSize, cfg.clusterRadius(), cfg.SumQ)
}

// Caller maps the peak-calling engine over chromosomes with a bounded worker
// pool and writes the combined peak table
type Caller struct {
	Source  MatrixSource
	Config  Config
	Outfile string
}

// chromResult carries one worker's output back to the writer
type chromResult struct {
	idx   int
	peaks []PeakCall
	err   error
}

// callOne builds the banded matrices for one chromosome and runs the engine.
// Chromosomes too short to hold a donut are routine data (small contigs,
// chrM) and yield an empty table, not an error.
func (r *Caller) callOne(chrom string) ([]PeakCall, error) {
	raw, weights, err := r.Source.Matrix(chrom)
	if err != nil {
		return nil, err
	}
	minWw := minInts(r.Config.Wws)
	maxWw := min(maxInts(r.Config.Wws), r.Config.MaxWw)
	n, _ := raw.Dims()
	if !donutFits(n, r.Source.BinSize(), r.Config.MaxApart, minWw, maxWw) {
		log.Noticef("Chromosome %s: %d bins cannot hold a donut, skipped", chrom, n)
		return nil, nil
	}
	cm, err := NewChromMatrices(chrom, raw, weights, r.Source.BinSize(),
		r.Config.MaxApart, minWw, maxWw)
	if err != nil {
		return nil, err
	}
	return CallChromosome(cm, r.Config), nil
}

// Run executes the caller: validates configuration, fans chromosomes out to
// NWorkers goroutines, and writes results in dispatch order as they become
// available. Any worker failure aborts the whole run.
func (r *Caller) Run() error {
	if r.Source == nil {
		return fmt.Errorf("no matrix source configured")
	}
	if err := r.Config.Validate(); err != nil {
		return err
	}

	chroms := FilterChroms(r.Source.Chroms(), r.Config.Chroms)
	if len(chroms) == 0 {
		return fmt.Errorf("no chromosomes selected from %v", r.Source.Chroms())
	}
	log.Noticef("Calling peaks on %d chromosomes with %d workers",
		len(chroms), r.Config.NWorkers)

	out, err := xopen.Wopen(r.Outfile)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, PeakTableHeader)

	jobs := make(chan int, len(chroms))
	results := make(chan chromResult, len(chroms))
	var wg sync.WaitGroup
	for w := 0; w < r.Config.NWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				peaks, err := r.callOne(chroms[idx])
				results <- chromResult{idx: idx, peaks: peaks, err: err}
			}
		}()
	}
	for idx := range chroms {
		jobs <- idx
	}
	close(jobs)
	go func() {
		wg.Wait()
		close(results)
	}()

	// Output follows dispatch order, not completion order
	pending := make(map[int][]PeakCall)
	nPeaks, cursor := 0, 0
	for res := range results {
		if res.err != nil {
			out.Close()
			return fmt.Errorf("chromosome %s: %v", chroms[res.idx], res.err)
		}
		pending[res.idx] = res.peaks
		for {
			peaks, ok := pending[cursor]
			if !ok {
				break
			}
			delete(pending, cursor)
			for _, peak := range peaks {
				fmt.Fprintln(out, peak)
			}
			nPeaks += len(peaks)
			cursor++
		}
	}

	out.Flush()
	log.Noticef("A total of %d peaks written to `%s`", nPeaks, r.Outfile)
	return out.Close()
}
