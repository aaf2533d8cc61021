/*
 *  fdr_test.go
 *  hicpeaks
 *
 *  Created by shu on 03/12/21
 *  Copyright © 2021 buguashushu. All rights reserved.
 */

package hicpeaks_test

import (
	"math"
	"sort"
	"testing"

	hicpeaks "github.com/buguashushu/HiCPeaks"
)

func TestBHAdjustKnownValues(t *testing.T) {
	pvals := []float64{0.005, 0.04, 0.04, 0.05}
	expected := []float64{0.02, 0.05, 0.05, 0.05}
	got := hicpeaks.BHAdjust(pvals)
	for i := range expected {
		if math.Abs(got[i]-expected[i]) > 1e-12 {
			t.Errorf("BHAdjust(%v)[%d] = %v; want %v", pvals, i, got[i], expected[i])
		}
	}
}

func TestBHAdjustMonotone(t *testing.T) {
	pvals := []float64{0.3, 0.001, 0.2, 0.04, 0.9, 0.04, 0.0005, 0.77, 0.1, 0.5}
	qvals := hicpeaks.BHAdjust(pvals)

	// Sort both by p-value: q-values must be non-decreasing in that order
	order := make([]int, len(pvals))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return pvals[order[i]] < pvals[order[j]] })
	for k := 1; k < len(order); k++ {
		prev, cur := qvals[order[k-1]], qvals[order[k]]
		if cur < prev {
			t.Fatalf("q-values not monotone: q=%v after q=%v in sorted p order", cur, prev)
		}
	}

	for i, q := range qvals {
		if q < pvals[i] {
			t.Errorf("q-value %v below its p-value %v", q, pvals[i])
		}
		if q > 1 {
			t.Errorf("q-value %v above 1", q)
		}
	}
}

func TestBHAdjustEmpty(t *testing.T) {
	if got := hicpeaks.BHAdjust(nil); len(got) != 0 {
		t.Errorf("BHAdjust(nil) = %v; want empty", got)
	}
}
