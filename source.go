/**
 * Filename: /Users/shu/code/HiCPeaks/source.go
 * Path: /Users/shu/code/HiCPeaks
 * Created Date: Saturday, March 6th 2021, 2:11:27 pm
 * Author: shu
 *
 * Copyright (c) 2021 buguashushu
 */

package hicpeaks

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"path"

	"github.com/gonum/matrix/mat64"
	"github.com/kshedden/gonpy"
)

// MatrixSource exposes per-chromosome contact data: raw counts plus the
// balancing weight vector. Implementations must be safe for concurrent
// Matrix calls from the chromosome workers.
type MatrixSource interface {
	// Chroms lists chromosome labels in genome order
	Chroms() []string
	// BinSize returns the genomic resolution in bp
	BinSize() int
	// Matrix returns the dense symmetric raw count matrix and the per-bin
	// balancing weights of one chromosome
	Matrix(chrom string) (*mat64.Dense, []float64, error)
}

// GenomeInfo is the metadata record of an npy matrix container
type GenomeInfo struct {
	Resolution int         `json:"resolution"`
	Chroms     []ChromInfo `json:"chroms"`
}

// ChromInfo describes one chromosome of the container
type ChromInfo struct {
	Name   string `json:"name"`
	Length int    `json:"length"`
}

// GenomeFile is the metadata filename inside a matrix container directory
const GenomeFile = "genome.json"

// NpySource reads the npy matrix container written by the Extracter: a
// directory holding genome.json plus <chrom>.npy / <chrom>.weights.npy pairs
type NpySource struct {
	Dir    string
	info   GenomeInfo
	chroms []string
}

// LoadNpySource opens a matrix container directory
func LoadNpySource(dir string) (*NpySource, error) {
	buf, err := ioutil.ReadFile(path.Join(dir, GenomeFile))
	if err != nil {
		return nil, fmt.Errorf("cannot open matrix container `%s`: %v", dir, err)
	}
	var info GenomeInfo
	if err := json.Unmarshal(buf, &info); err != nil {
		return nil, fmt.Errorf("malformed %s in `%s`: %v", GenomeFile, dir, err)
	}
	if info.Resolution <= 0 {
		return nil, fmt.Errorf("container `%s` has invalid resolution %d", dir, info.Resolution)
	}
	s := &NpySource{Dir: dir, info: info}
	for _, c := range info.Chroms {
		s.chroms = append(s.chroms, c.Name)
	}
	log.Noticef("Matrix container `%s`: %d chromosomes at %d bp resolution",
		dir, len(s.chroms), info.Resolution)
	return s, nil
}

// Chroms lists chromosome labels in genome order
func (r *NpySource) Chroms() []string { return r.chroms }

// BinSize returns the genomic resolution in bp
func (r *NpySource) BinSize() int { return r.info.Resolution }

// Matrix reads one chromosome's raw matrix and weight vector from disk
func (r *NpySource) Matrix(chrom string) (*mat64.Dense, []float64, error) {
	rdr, err := gonpy.NewFileReader(path.Join(r.Dir, chrom+".npy"))
	if err != nil {
		return nil, nil, err
	}
	data, err := rdr.GetFloat64()
	if err != nil {
		return nil, nil, err
	}
	if len(rdr.Shape) != 2 || rdr.Shape[0] != rdr.Shape[1] {
		return nil, nil, fmt.Errorf("matrix for `%s` is not square: %v", chrom, rdr.Shape)
	}
	n := rdr.Shape[0]

	wrdr, err := gonpy.NewFileReader(path.Join(r.Dir, chrom+".weights.npy"))
	if err != nil {
		return nil, nil, err
	}
	weights, err := wrdr.GetFloat64()
	if err != nil {
		return nil, nil, err
	}
	if len(weights) != n {
		return nil, nil, fmt.Errorf("weights for `%s` have %d bins, matrix has %d",
			chrom, len(weights), n)
	}
	return mat64.NewDense(n, n, data), weights, nil
}

// MemSource serves matrices held in memory, mainly for tests and synthetic
// benchmarks
type MemSource struct {
	Res     int
	Names   []string
	Mats    map[string]*mat64.Dense
	Weights map[string][]float64
}

// Chroms lists chromosome labels
func (r *MemSource) Chroms() []string { return r.Names }

// BinSize returns the genomic resolution in bp
func (r *MemSource) BinSize() int { return r.Res }

// Matrix returns one chromosome's matrix and weights
func (r *MemSource) Matrix(chrom string) (*mat64.Dense, []float64, error) {
	m, ok := r.Mats[chrom]
	if !ok {
		return nil, nil, fmt.Errorf("chromosome `%s` not in source", chrom)
	}
	return m, r.Weights[chrom], nil
}

// writeNpyMatrix writes a dense n x n matrix to an npy file
func writeNpyMatrix(filename string, n int, data []float64) error {
	w, err := gonpy.NewFileWriter(filename)
	if err != nil {
		return err
	}
	w.Shape = []int{n, n}
	return w.WriteFloat64(data)
}

// writeNpyVector writes a float vector to an npy file
func writeNpyVector(filename string, data []float64) error {
	w, err := gonpy.NewFileWriter(filename)
	if err != nil {
		return err
	}
	w.Shape = []int{len(data)}
	return w.WriteFloat64(data)
}
