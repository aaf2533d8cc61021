/**
 * Filename: /Users/shu/code/HiCPeaks/chroms.go
 * Path: /Users/shu/code/HiCPeaks
 * Created Date: Wednesday, March 3rd 2021, 9:40:11 am
 * Author: shu
 *
 * Copyright (c) 2021 buguashushu
 */

package hicpeaks

import "strings"

// NumericSentinel selects all numerically-labeled chromosomes
const NumericSentinel = "#"

// isNumericLabel reports whether a chromosome label (minus any "chr" prefix)
// is purely numeric, e.g. "1", "22", "chr10"
func isNumericLabel(label string) bool {
	s := strings.TrimPrefix(label, "chr")
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// FilterChroms selects which chromosomes to process. The requested list may
// contain plain labels and the "#" sentinel, which stands for all
// numerically-labeled chromosomes. An empty request means all chromosomes.
// Order of the returned slice follows the order of available.
func FilterChroms(available, requested []string) []string {
	if len(requested) == 0 {
		selected := make([]string, len(available))
		copy(selected, available)
		return selected
	}

	wantNumeric := false
	wanted := make(map[string]bool)
	for _, label := range requested {
		if label == NumericSentinel {
			wantNumeric = true
			continue
		}
		wanted[label] = true
	}

	var selected []string
	for _, label := range available {
		if wanted[label] || (wantNumeric && isNumericLabel(label)) {
			selected = append(selected, label)
		}
	}
	return selected
}
