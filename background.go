/**
 * Filename: /Users/shu/code/HiCPeaks/background.go
 * Path: /Users/shu/code/HiCPeaks
 * Created Date: Thursday, March 4th 2021, 7:55:03 pm
 * Author: shu
 *
 * Copyright (c) 2021 buguashushu
 */

package hicpeaks

import "math"

// TestResult is the outcome of one neighborhood background estimate. A void
// test (insufficient usable area, undefined baseline, non-positive expected)
// keeps Ok false so that "untestable" never masquerades as "non-significant
// with expected zero".
type TestResult struct {
	Ok       bool
	Observed float64
	Expected float64
}

// ShapeStats carries the per-shape statistics of a candidate pixel through
// testing, FDR correction and reporting
type ShapeStats struct {
	Ok         bool
	Expected   float64
	Enrichment float64
	P          float64
	Q          float64
}

// CandidatePixel is one tested bin pair within the distance band
type CandidatePixel struct {
	Row, Col int
	Observed float64
	D        ShapeStats // donut
	LL       ShapeStats // lower-left
	H        ShapeStats // horizontal, filter only
	V        ShapeStats // vertical, filter only
}

// offset is a (di, dj) stencil cell relative to the candidate pixel
type offset struct {
	di, dj int
}

// donutCells enumerates the ring: the (2ww+1)^2 square minus the peak
// window of half-width pw and minus the center row/column
func donutCells(pw, ww int) []offset {
	var cells []offset
	for di := -ww; di <= ww; di++ {
		for dj := -ww; dj <= ww; dj++ {
			if di == 0 || dj == 0 {
				continue
			}
			if abs(di) <= pw && abs(dj) <= pw {
				continue
			}
			cells = append(cells, offset{di, dj})
		}
	}
	return cells
}

// lowerLeftCells enumerates the quadrant below-left of the pixel, minus the
// corner shared with the peak window
func lowerLeftCells(pw, ww int) []offset {
	var cells []offset
	for di := 1; di <= ww; di++ {
		for dj := -ww; dj <= -1; dj++ {
			if di <= pw && dj >= -pw {
				continue
			}
			cells = append(cells, offset{di, dj})
		}
	}
	return cells
}

// horizontalCells enumerates a 3-wide strip along the row, minus the peak window
func horizontalCells(pw, ww int) []offset {
	var cells []offset
	for di := -1; di <= 1; di++ {
		for dj := -ww; dj <= ww; dj++ {
			if abs(dj) <= pw {
				continue
			}
			cells = append(cells, offset{di, dj})
		}
	}
	return cells
}

// verticalCells enumerates a 3-wide strip along the column, minus the peak window
func verticalCells(pw, ww int) []offset {
	var cells []offset
	for di := -ww; di <= ww; di++ {
		for dj := -1; dj <= 1; dj++ {
			if abs(di) <= pw {
				continue
			}
			cells = append(cells, offset{di, dj})
		}
	}
	return cells
}

// stencilSet precomputes the four neighborhood stencils for one (pw, ww) tier
type stencilSet struct {
	pw, ww int
	donut  []offset
	lower  []offset
	horiz  []offset
	vert   []offset
}

func newStencilSet(pw, ww int) stencilSet {
	return stencilSet{
		pw:    pw,
		ww:    ww,
		donut: donutCells(pw, ww),
		lower: lowerLeftCells(pw, ww),
		horiz: horizontalCells(pw, ww),
		vert:  verticalCells(pw, ww),
	}
}

// tierStencils builds one stencil set per configured (pw, ww) tier, with ww
// capped at maxWw
func tierStencils(pws, wws []int, maxWw int) []stencilSet {
	sets := make([]stencilSet, len(pws))
	for t := range pws {
		sets[t] = newStencilSet(pws[t], min(wws[t], maxWw))
	}
	return sets
}

// tierIndex maps a genomic distance (in bins) to its tier. The tested band
// [minDist, maxDist] is split into len-equal slices, one per tier.
func tierIndex(d, minDist, maxDist, ntiers int) int {
	if ntiers == 1 || maxDist <= minDist {
		return 0
	}
	t := (d - minDist) * ntiers / (maxDist - minDist + 1)
	if t < 0 {
		t = 0
	}
	if t >= ntiers {
		t = ntiers - 1
	}
	return t
}

// shapeExpected computes the expected raw count at (x, y) under one
// neighborhood shape. The local raw-over-baseline ratio within the shape is
// rescaled to the candidate pixel's own baseline, so the neighborhood area
// cancels. Cells with zero bias, undefined baseline or outside the matrix do
// not count as usable area.
func (r *ChromMatrices) shapeExpected(x, y int, cells []offset) TestResult {
	pixelExp := r.expectedAt(x, y)
	if math.IsNaN(pixelExp) {
		return TestResult{}
	}

	n := r.Raw.Bins()
	sumRaw, sumExp := 0.0, 0.0
	usable := 0
	for _, c := range cells {
		i, j := x+c.di, y+c.dj
		if i < 0 || j < 0 || i >= n || j >= n {
			continue
		}
		e := r.expectedAt(i, j)
		if math.IsNaN(e) || e <= 0 {
			continue
		}
		sumRaw += r.Raw.Get(i, j)
		sumExp += e
		usable++
	}

	if float64(usable) < MinUsableFraction*float64(len(cells)) || sumExp <= 0 {
		return TestResult{}
	}
	return TestResult{
		Ok:       true,
		Observed: r.Raw.Get(x, y),
		Expected: sumRaw / sumExp * pixelExp,
	}
}
