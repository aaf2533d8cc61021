/**
 * Filename: /Users/shu/code/HiCPeaks/cluster.go
 * Path: /Users/shu/code/HiCPeaks
 * Created Date: Friday, March 5th 2021, 9:48:02 pm
 * Author: shu
 *
 * Copyright (c) 2021 buguashushu
 */

package hicpeaks

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// PeakTableHeader is the fixed 13-column header of the output table
const PeakTableHeader = "chrom\tloc1\tloc2\tcentroid_x\tcentroid_y\tradius\tIF\t" +
	"D-enrichment\tD-pvalue\tD-qvalue\tLL-enrichment\tLL-pvalue\tLL-qvalue"

// PeakCall is one reported peak: a cluster of significant pixels collapsed
// to its representative statistics and geometry
type PeakCall struct {
	Chrom        string
	Loc1         int
	Loc2         int
	CentroidX    float64
	CentroidY    float64
	Radius       float64
	IF           float64
	DEnrichment  float64
	DPvalue      float64
	DQvalue      float64
	LLEnrichment float64
	LLPvalue     float64
	LLQvalue     float64
}

// String renders one tab-separated table row. Enrichment/p/q columns carry 3
// significant digits; loci, centroid, radius and intensity are unformatted.
func (r PeakCall) String() string {
	fields := []string{
		r.Chrom,
		fmt.Sprintf("%d", r.Loc1),
		fmt.Sprintf("%d", r.Loc2),
		plainFormat(r.CentroidX),
		plainFormat(r.CentroidY),
		plainFormat(r.Radius),
		plainFormat(r.IF),
		sigFormat(r.DEnrichment),
		sigFormat(r.DPvalue),
		sigFormat(r.DQvalue),
		sigFormat(r.LLEnrichment),
		sigFormat(r.LLPvalue),
		sigFormat(r.LLQvalue),
	}
	return strings.Join(fields, "\t")
}

// ClusterPixels groups pixels into connected components. Two pixels are
// neighbors when their Chebyshev distance in (row, col) space is at most
// radius; radius 1 is plain 8-connectivity.
func ClusterPixels(pixels []*CandidatePixel, radius int) [][]*CandidatePixel {
	if radius < 1 {
		radius = 1
	}
	index := make(map[[2]int]int, len(pixels))
	for i, px := range pixels {
		index[[2]int{px.Row, px.Col}] = i
	}

	assigned := make([]bool, len(pixels))
	var clusters [][]*CandidatePixel
	for i := range pixels {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		queue := []int{i}
		var members []*CandidatePixel
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			px := pixels[cur]
			members = append(members, px)
			for di := -radius; di <= radius; di++ {
				for dj := -radius; dj <= radius; dj++ {
					if di == 0 && dj == 0 {
						continue
					}
					if k, ok := index[[2]int{px.Row + di, px.Col + dj}]; ok && !assigned[k] {
						assigned[k] = true
						queue = append(queue, k)
					}
				}
			}
		}
		clusters = append(clusters, members)
	}
	return clusters
}

// collapseCluster reduces one cluster to a PeakCall. The centroid is the
// raw-intensity weighted mean coordinate; the radius is the largest
// centroid-to-member distance in bp (half a bin for singletons); the
// reported statistics come from the maximum donut-enrichment member.
func collapseCluster(chrom string, members []*CandidatePixel, binSize int) PeakCall {
	rep := members[0]
	sumW, sumX, sumY := 0.0, 0.0, 0.0
	for _, px := range members {
		w := px.Observed
		if w <= 0 {
			w = 1
		}
		sumW += w
		sumX += w * float64(px.Row)
		sumY += w * float64(px.Col)
		if px.D.Enrichment > rep.D.Enrichment {
			rep = px
		}
	}
	cx, cy := sumX/sumW, sumY/sumW

	radius := float64(binSize) / 2
	if len(members) > 1 {
		maxDist := 0.0
		for _, px := range members {
			dist := math.Hypot(float64(px.Row)-cx, float64(px.Col)-cy)
			if dist > maxDist {
				maxDist = dist
			}
		}
		radius = maxDist * float64(binSize)
	}

	return PeakCall{
		Chrom:        chrom,
		Loc1:         rep.Row * binSize,
		Loc2:         rep.Col * binSize,
		CentroidX:    cx * float64(binSize),
		CentroidY:    cy * float64(binSize),
		Radius:       radius,
		IF:           rep.Observed,
		DEnrichment:  rep.D.Enrichment,
		DPvalue:      rep.D.P,
		DQvalue:      rep.D.Q,
		LLEnrichment: rep.LL.Enrichment,
		LLPvalue:     rep.LL.P,
		LLQvalue:     rep.LL.Q,
	}
}

// hasNeighbor reports whether any other significant pixel lies within the
// Chebyshev radius of px
func hasNeighbor(px *CandidatePixel, pixels []*CandidatePixel, radius int) bool {
	for _, other := range pixels {
		if other == px {
			continue
		}
		if abs(other.Row-px.Row) <= radius && abs(other.Col-px.Col) <= radius {
			return true
		}
	}
	return false
}

// BuildPeakTable clusters the FDR-passing pixels of one chromosome and
// collapses each cluster into a PeakCall. Isolated singletons whose two
// q-values sum above sumQ are discarded; a singleton reinforced by a
// significant pixel within twice the adjacency radius survives even though
// that pixel was too far away to merge into its cluster. The table is sorted
// by loci for deterministic output.
func BuildPeakTable(chrom string, pixels []*CandidatePixel, binSize, radius int, sumQ float64) []PeakCall {
	var peaks []PeakCall
	for _, members := range ClusterPixels(pixels, radius) {
		if len(members) == 1 {
			px := members[0]
			if px.D.Q+px.LL.Q > sumQ && !hasNeighbor(px, pixels, 2*radius) {
				continue
			}
		}
		peaks = append(peaks, collapseCluster(chrom, members, binSize))
	}
	sort.Slice(peaks, func(i, j int) bool {
		if peaks[i].Loc1 != peaks[j].Loc1 {
			return peaks[i].Loc1 < peaks[j].Loc1
		}
		return peaks[i].Loc2 < peaks[j].Loc2
	})
	return peaks
}
