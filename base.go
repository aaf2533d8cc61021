/**
 * Filename: /Users/shu/code/HiCPeaks/base.go
 * Path: /Users/shu/code/HiCPeaks
 * Created Date: Tuesday, March 2nd 2021, 8:12:40 pm
 * Author: shu
 *
 * Copyright (c) 2021 buguashushu
 */

package hicpeaks

import (
	"math"
	"os"
	"path"
	"strconv"
	"strings"

	logging "github.com/op/go-logging"
)

const (
	// Version is the current version of HiCPeaks
	Version = "0.1.0"
	// DefaultSigLevel is the significance cutoff applied to p- and q-values
	DefaultSigLevel = 0.1
	// DefaultSumQ is the q-value sum cutoff for isolated singleton peaks
	DefaultSumQ = 0.02
	// DefaultMaxApart is the maximum genomic distance (bp) between the two loci of a peak
	DefaultMaxApart = 2000000
	// DefaultMaxWw is the upper cap on the donut half-width, in bins
	DefaultMaxWw = 7
	// MinUsableFraction is the fraction of a neighborhood that must remain
	// usable after masking; below this the test is void
	MinUsableFraction = 0.5
)

var log = logging.MustGetLogger("hicpeaks")
var format = logging.MustStringFormatter(
	`%{color}%{time:15:04:05} %{shortfunc} | %{level:.6s} %{color:reset} %{message}`,
)

// Backend is the default stderr output
var Backend = logging.NewLogBackend(os.Stderr, "", 0)

// BackendFormatter contains the fancy debug formatter
var BackendFormatter = logging.NewBackendFormatter(Backend, format)

// RemoveExt returns the substring minus the extension
func RemoveExt(filename string) string {
	return strings.TrimSuffix(filename, path.Ext(filename))
}

// ErrorAbort logs the error and exits when err is non-nil
func ErrorAbort(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

// mustExist aborts when a file is missing
func mustExist(filename string) {
	if _, err := os.Stat(filename); err != nil {
		ErrorAbort(err)
	}
}

// mustOpen opens a file or aborts
func mustOpen(filename string) *os.File {
	fh, err := os.Open(filename)
	ErrorAbort(err)
	return fh
}

// abs gets the absolute value of an int
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// min gets the minimum for two ints
func min(x, y int) int {
	if x < y {
		return x
	}
	return y
}

// max gets the maximum for two ints
func max(x, y int) int {
	if x > y {
		return x
	}
	return y
}

// minInts gets the smallest element of an int slice
func minInts(a []int) int {
	ans := a[0]
	for _, x := range a {
		if x < ans {
			ans = x
		}
	}
	return ans
}

// maxInts gets the largest element of an int slice
func maxInts(a []int) int {
	ans := a[0]
	for _, x := range a {
		if x > ans {
			ans = x
		}
	}
	return ans
}

// sigFormat prints a float with 3 significant digits, used in the peak table
func sigFormat(v float64) string {
	return strconv.FormatFloat(v, 'g', 3, 64)
}

// plainFormat prints a float without rounding in plain decimal notation,
// used for loci-like columns that must never render as an exponent
func plainFormat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// validWeight tells whether a balancing weight can be inverted into a bias
func validWeight(w float64) bool {
	return !math.IsNaN(w) && !math.IsInf(w, 0) && w > 0
}
