/**
 * Filename: /Users/shu/code/HiCPeaks/plot.go
 * Path: /Users/shu/code/HiCPeaks
 * Created Date: Tuesday, March 9th 2021, 1:21:48 pm
 * Author: shu
 *
 * Copyright (c) 2021 buguashushu
 */

package hicpeaks

import (
	"bufio"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gobuffalo/packr"
)

// Plotter renders one chromosome's balanced contact band together with its
// peak calls as a browsable heatmap
type Plotter struct {
	Dir      string // matrix container directory
	Peakfile string // peak table from the caller
	Chrom    string
	Config   Config
}

// plotPeak is the subset of a PeakCall the viewer needs
type plotPeak struct {
	Loc1   int     `json:"loc1"`
	Loc2   int     `json:"loc2"`
	Radius float64 `json:"radius"`
	IF     float64 `json:"if"`
}

// Run serializes the matrix and peaks to disk, then hosts the viewer
func (r *Plotter) Run() error {
	source, err := LoadNpySource(r.Dir)
	if err != nil {
		return err
	}
	raw, weights, err := source.Matrix(r.Chrom)
	if err != nil {
		return err
	}
	cfg := r.Config
	cm, err := NewChromMatrices(r.Chrom, raw, weights, source.BinSize(),
		cfg.MaxApart, minInts(cfg.Wws), min(maxInts(cfg.Wws), cfg.MaxWw))
	if err != nil {
		return err
	}

	if err := r.serialize(cm); err != nil {
		return err
	}
	r.host()
	log.Notice("Success")
	return nil
}

// serialize writes data.npy (dense balanced matrix rebuilt from the band)
// and peaks.json for the viewer
func (r *Plotter) serialize(cm *ChromMatrices) error {
	n := cm.Balanced.Bins()
	dense := make([]float64, n*n)
	for d := cm.Balanced.MinDiag(); d <= cm.Balanced.MaxDiag(); d++ {
		for i := 0; i+d < n; i++ {
			v := cm.Balanced.Get(i, i+d)
			dense[i*n+i+d] = v
			dense[(i+d)*n+i] = v
		}
	}
	if err := writeNpyMatrix("data.npy", n, dense); err != nil {
		return err
	}

	peaks, err := r.readPeaks(cm.BinSize)
	if err != nil {
		return err
	}
	buf, err := json.Marshal(peaks)
	if err != nil {
		return err
	}
	if err := ioutil.WriteFile("peaks.json", buf, 0644); err != nil {
		return err
	}
	log.Noticef("Serialized %d peaks on %s for plotting", len(peaks), r.Chrom)
	return nil
}

// readPeaks loads this chromosome's rows back from the peak table
func (r *Plotter) readPeaks(binSize int) ([]plotPeak, error) {
	fh, err := os.Open(r.Peakfile)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	peaks := []plotPeak{}
	scanner := bufio.NewScanner(fh)
	for scanner.Scan() {
		words := strings.Split(scanner.Text(), "\t")
		if len(words) != 13 || words[0] != r.Chrom {
			continue
		}
		loc1, err1 := strconv.Atoi(words[1])
		loc2, err2 := strconv.Atoi(words[2])
		if err1 != nil || err2 != nil { // header line
			continue
		}
		radius, _ := strconv.ParseFloat(words[5], 64)
		intensity, _ := strconv.ParseFloat(words[6], 64)
		peaks = append(peaks, plotPeak{
			Loc1: loc1, Loc2: loc2, Radius: radius, IF: intensity,
		})
	}
	return peaks, scanner.Err()
}

// host serves the viewer page, walking ports upward on bind failure
func (r *Plotter) host() {
	box := packr.NewBox("./templates")
	port := 3000
	f, _ := os.Create("index.html")
	s, _ := box.FindString("index.html")
	_, _ = f.WriteString(s)
	_ = f.Sync()

	http.Handle("/", http.FileServer(http.Dir(".")))

	for {
		log.Noticef("Serving on localhost:%d ...", port)
		if err := http.ListenAndServe(":"+strconv.Itoa(port), nil); err != nil {
			log.Debug(err)
			port++
		} else {
			break
		}
	}
	_ = f.Close()
}
