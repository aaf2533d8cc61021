/*
 *  significance_test.go
 *  hicpeaks
 *
 *  Created by shu on 03/12/21
 *  Copyright © 2021 buguashushu. All rights reserved.
 */

package hicpeaks_test

import (
	"math"
	"testing"

	hicpeaks "github.com/buguashushu/HiCPeaks"
)

func TestPoissonUpperTail(t *testing.T) {
	// Observed zero is trivially satisfied
	if got := hicpeaks.PoissonUpperTail(0, 5); got != 1 {
		t.Errorf("PoissonUpperTail(0, 5) = %v; want 1", got)
	}

	// P(X >= 1 | mean) = 1 - e^-mean
	got := hicpeaks.PoissonUpperTail(1, 2)
	expected := 1 - math.Exp(-2)
	if math.Abs(got-expected) > 1e-9 {
		t.Errorf("PoissonUpperTail(1, 2) = %v; want %v", got, expected)
	}

	// Strictly decreasing in the observed count
	prev := 1.1
	for o := 1.0; o <= 30; o++ {
		p := hicpeaks.PoissonUpperTail(o, 10)
		if p >= prev {
			t.Fatalf("upper tail not decreasing: P(X>=%v)=%v, previous %v", o, p, prev)
		}
		prev = p
	}
}

func TestScoreShapeObservedEqualsExpected(t *testing.T) {
	// O == E must give enrichment exactly 1 and p = P(X >= E | mean=E),
	// which for Poisson sits above 0.5 but is never trivially significant
	res := hicpeaks.TestResult{Ok: true, Observed: 10, Expected: 10}
	stats := hicpeaks.ScoreShape(res)
	if !stats.Ok {
		t.Fatal("expected a valid test")
	}
	if stats.Enrichment != 1.0 {
		t.Errorf("enrichment = %v; want 1.0", stats.Enrichment)
	}
	if stats.P <= 0.5 || stats.P >= 0.7 {
		t.Errorf("P(X>=10 | mean=10) = %v; want in (0.5, 0.7)", stats.P)
	}
}

func TestScoreShapeVoid(t *testing.T) {
	// A void estimate or non-positive expected count stays void
	for _, res := range []hicpeaks.TestResult{
		{},
		{Ok: true, Observed: 5, Expected: 0},
		{Ok: true, Observed: 5, Expected: -1},
	} {
		if stats := hicpeaks.ScoreShape(res); stats.Ok {
			t.Errorf("ScoreShape(%+v) should be void", res)
		}
	}
}
