/**
 * Filename: /Users/shu/code/HiCPeaks/significance.go
 * Path: /Users/shu/code/HiCPeaks
 * Created Date: Thursday, March 4th 2021, 9:17:36 pm
 * Author: shu
 *
 * Copyright (c) 2021 buguashushu
 */

package hicpeaks

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// PoissonUpperTail returns P(X >= observed) for X ~ Poisson(mean). An
// observed count of zero (or less) is trivially satisfied, so p = 1.
func PoissonUpperTail(observed, mean float64) float64 {
	o := math.Ceil(observed)
	if o <= 0 {
		return 1
	}
	dist := distuv.Poisson{Lambda: mean}
	// Survival(o-1) = P(X > o-1) = P(X >= o) on integer support
	return dist.Survival(o - 1)
}

// ScoreShape turns a background estimate into enrichment and p-value. A void
// estimate, or one with non-positive expected count, stays void.
func ScoreShape(t TestResult) ShapeStats {
	if !t.Ok || t.Expected <= 0 {
		return ShapeStats{}
	}
	return ShapeStats{
		Ok:         true,
		Expected:   t.Expected,
		Enrichment: t.Observed / t.Expected,
		P:          PoissonUpperTail(t.Observed, t.Expected),
	}
}

// scorePixel runs all four neighborhood tests for the pixel at (x, y) using
// the stencils of its distance tier. Returns nil when the donut or
// lower-left test is void: such pixels are untestable, not non-significant,
// and never enter the FDR population.
func (r *ChromMatrices) scorePixel(x, y int, st stencilSet) *CandidatePixel {
	d := ScoreShape(r.shapeExpected(x, y, st.donut))
	if !d.Ok {
		return nil
	}
	ll := ScoreShape(r.shapeExpected(x, y, st.lower))
	if !ll.Ok {
		return nil
	}
	return &CandidatePixel{
		Row:      x,
		Col:      y,
		Observed: r.Raw.Get(x, y),
		D:        d,
		LL:       ll,
		H:        ScoreShape(r.shapeExpected(x, y, st.horiz)),
		V:        ScoreShape(r.shapeExpected(x, y, st.vert)),
	}
}

// isSignificant applies the p-value gate: donut and lower-left must both
// pass, and the horizontal/vertical auxiliary tests, when computable, must
// not veto
func (r *CandidatePixel) isSignificant(sigLevel float64) bool {
	if r.D.P > sigLevel || r.LL.P > sigLevel {
		return false
	}
	if r.H.Ok && r.H.P > sigLevel {
		return false
	}
	if r.V.Ok && r.V.P > sigLevel {
		return false
	}
	return true
}

// passesFDR applies the final q-value gate on both reported shapes
func (r *CandidatePixel) passesFDR(sigLevel float64) bool {
	return r.D.Q <= sigLevel && r.LL.Q <= sigLevel
}
