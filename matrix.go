/**
 * Filename: /Users/shu/code/HiCPeaks/matrix.go
 * Path: /Users/shu/code/HiCPeaks
 * Created Date: Wednesday, March 3rd 2021, 10:02:54 am
 * Author: shu
 *
 * Copyright (c) 2021 buguashushu
 */

package hicpeaks

import (
	"fmt"
	"math"

	"github.com/gonum/matrix/mat64"
)

// BandedMatrix stores the diagonals minDiag..maxDiag of a symmetric square
// matrix. Storage is diagonal-major: diags[d-minDiag][i] holds the value at
// (i, i+d). Accessors mirror across the main diagonal; everything outside
// the band reads as zero.
type BandedMatrix struct {
	n       int
	minDiag int
	maxDiag int
	diags   [][]float64
}

func newBandedMatrix(n, minDiag, maxDiag int) *BandedMatrix {
	diags := make([][]float64, maxDiag-minDiag+1)
	for d := minDiag; d <= maxDiag; d++ {
		diags[d-minDiag] = make([]float64, n-d)
	}
	return &BandedMatrix{n: n, minDiag: minDiag, maxDiag: maxDiag, diags: diags}
}

// Bins returns the number of bins (rows) of the matrix
func (r *BandedMatrix) Bins() int { return r.n }

// MinDiag returns the first retained diagonal
func (r *BandedMatrix) MinDiag() int { return r.minDiag }

// MaxDiag returns the last retained diagonal
func (r *BandedMatrix) MaxDiag() int { return r.maxDiag }

// Get returns the value at (i, j), mirroring across the main diagonal
func (r *BandedMatrix) Get(i, j int) float64 {
	if i > j {
		i, j = j, i
	}
	d := j - i
	if i < 0 || j >= r.n || d < r.minDiag || d > r.maxDiag {
		return 0
	}
	return r.diags[d-r.minDiag][i]
}

func (r *BandedMatrix) set(i, j int, v float64) {
	if i > j {
		i, j = j, i
	}
	r.diags[j-i-r.minDiag][i] = v
}

// ChromMatrices bundles everything one chromosome worker needs: the raw and
// cleaned balanced bands, the per-bin bias vector and the distance-expected
// profile.
type ChromMatrices struct {
	Chrom    string
	BinSize  int
	Raw      *BandedMatrix
	Balanced *BandedMatrix
	Bias     []float64
	// Profile maps diagonal index to the mean of valid balanced values at
	// that distance; NaN where no valid entry exists or below the minimum
	// donut width
	Profile []float64
}

// NewChromMatrices builds the banded representation of one chromosome from
// its dense raw matrix and balancing weights. Diagonals 0..D are retained
// for the raw matrix, where D = maxApart/binSize + maxWw + 1; the balanced
// matrix keeps diagonals starting at minWw since shorter distances are never
// tested. NaN entries contribute to nothing and are masked to zero in the
// stored balanced band.
func NewChromMatrices(chrom string, raw *mat64.Dense, weights []float64,
	binSize, maxApart, minWw, maxWw int) (*ChromMatrices, error) {
	n, cols := raw.Dims()
	if n != cols {
		return nil, fmt.Errorf("matrix for `%s` is not square: %d x %d", chrom, n, cols)
	}
	if len(weights) != n {
		return nil, fmt.Errorf("weight vector for `%s` has %d bins, matrix has %d",
			chrom, len(weights), n)
	}

	maxDiag := min(maxApart/binSize+maxWw+1, n-1)
	if !donutFits(n, binSize, maxApart, minWw, maxWw) {
		return nil, fmt.Errorf("chromosome `%s` too short: %d bins within band, donut needs %d",
			chrom, maxDiag, minWw)
	}

	bias := make([]float64, n)
	for i, w := range weights {
		if validWeight(w) {
			bias[i] = 1 / w
		}
	}

	cm := &ChromMatrices{
		Chrom:    chrom,
		BinSize:  binSize,
		Raw:      newBandedMatrix(n, 0, maxDiag),
		Balanced: newBandedMatrix(n, minWw, maxDiag),
		Bias:     bias,
		Profile:  make([]float64, maxDiag+1),
	}

	for d := 0; d <= maxDiag; d++ {
		cm.Profile[d] = math.NaN()
		for i := 0; i+d < n; i++ {
			cm.Raw.set(i, i+d, raw.At(i, i+d))
		}
	}

	for d := minWw; d <= maxDiag; d++ {
		total, valid := 0.0, 0
		for i := 0; i+d < n; i++ {
			wi, wj := weights[i], weights[i+d]
			if !validWeight(wi) || !validWeight(wj) {
				continue
			}
			v := raw.At(i, i+d) * wi * wj
			if math.IsNaN(v) {
				continue
			}
			cm.Balanced.set(i, i+d, v)
			total += v
			valid++
		}
		if valid > 0 {
			cm.Profile[d] = total / float64(valid)
		}
	}

	return cm, nil
}

// donutFits reports whether a chromosome of n bins retains enough diagonals
// to hold the smallest donut
func donutFits(n, binSize, maxApart, minWw, maxWw int) bool {
	return minWw <= min(maxApart/binSize+maxWw+1, n-1)
}

// expectedAt returns the expected raw count at (i, j) under the
// distance-decay baseline, or NaN when the pixel is untestable
func (r *ChromMatrices) expectedAt(i, j int) float64 {
	d := abs(j - i)
	if d >= len(r.Profile) {
		return math.NaN()
	}
	b := r.Bias[i] * r.Bias[j]
	if b <= 0 {
		return math.NaN()
	}
	return r.Profile[d] * b
}
