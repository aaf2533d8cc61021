/**
 * Filename: /Users/shu/code/HiCPeaks/fdr.go
 * Path: /Users/shu/code/HiCPeaks
 * Created Date: Friday, March 5th 2021, 8:30:19 am
 * Author: shu
 *
 * Copyright (c) 2021 buguashushu
 */

package hicpeaks

import "sort"

// BHAdjust converts p-values to Benjamini-Hochberg q-values. The step-up
// pass makes q-values monotone non-decreasing in sorted p-value order;
// results are returned in the input order, capped at 1.
func BHAdjust(pvals []float64) []float64 {
	n := len(pvals)
	qvals := make([]float64, n)
	if n == 0 {
		return qvals
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return pvals[order[i]] < pvals[order[j]]
	})

	running := 1.0
	for rank := n - 1; rank >= 0; rank-- {
		idx := order[rank]
		q := pvals[idx] * float64(n) / float64(rank+1)
		if q < running {
			running = q
		}
		qvals[idx] = running
	}
	return qvals
}

// correctPixels fills in the q-values of the candidate population. Donut and
// lower-left p-values are corrected independently, each across all tested
// pixels of the chromosome.
func correctPixels(pixels []*CandidatePixel) {
	if len(pixels) == 0 {
		return
	}
	dp := make([]float64, len(pixels))
	llp := make([]float64, len(pixels))
	for i, px := range pixels {
		dp[i] = px.D.P
		llp[i] = px.LL.P
	}
	dq := BHAdjust(dp)
	llq := BHAdjust(llp)
	for i, px := range pixels {
		px.D.Q = dq[i]
		px.LL.Q = llq[i]
	}
}
