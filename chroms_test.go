/*
 *  chroms_test.go
 *  hicpeaks
 *
 *  Created by shu on 03/12/21
 *  Copyright © 2021 buguashushu. All rights reserved.
 */

package hicpeaks_test

import (
	"reflect"
	"testing"

	hicpeaks "github.com/buguashushu/HiCPeaks"
)

func TestFilterChroms(t *testing.T) {
	available := []string{"1", "2", "X", "Y"}
	cases := []struct {
		requested []string
		expected  []string
	}{
		{[]string{"#", "X"}, []string{"1", "2", "X"}},
		{[]string{}, []string{"1", "2", "X", "Y"}},
		{nil, []string{"1", "2", "X", "Y"}},
		{[]string{"X"}, []string{"X"}},
		{[]string{"#"}, []string{"1", "2"}},
		{[]string{"Y", "1"}, []string{"1", "Y"}},
	}
	for _, c := range cases {
		got := hicpeaks.FilterChroms(available, c.requested)
		if !reflect.DeepEqual(got, c.expected) {
			t.Errorf("FilterChroms(%v, %v) = %v; want %v",
				available, c.requested, got, c.expected)
		}
	}
}

func TestFilterChromsPrefixed(t *testing.T) {
	available := []string{"chr1", "chr2", "chrX"}
	got := hicpeaks.FilterChroms(available, []string{"#"})
	expected := []string{"chr1", "chr2"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("FilterChroms with chr prefix = %v; want %v", got, expected)
	}
}
