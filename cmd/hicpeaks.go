/**
 * Filename: /Users/shu/code/HiCPeaks/cmd/hicpeaks.go
 * Path: /Users/shu/code/HiCPeaks/cmd
 * Created Date: Wednesday, March 10th 2021, 8:44:31 pm
 * Author: shu
 *
 * Copyright (c) 2021 buguashushu
 */

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	hicpeaks "github.com/buguashushu/HiCPeaks"
	logging "github.com/op/go-logging"
	"github.com/urfave/cli"
)

var log = logging.MustGetLogger("main")

// init customizes how cli lays out the command interface
// Logo banner (Varsity style):
// http://patorjk.com/software/taag/#p=testall&f=3D-ASCII&t=HICPEAKS
func init() {
	cli.AppHelpTemplate = `
 ___  ___  ___  ______    ______  _______       _       ___  ____   ______
|   ||   ||   ||      |  |      ||   ____|     / \     |   ||    | /  ___/
|   |_|   ||   ||   ---|  |   _ ||   |__      / _ \    |   |/    / |  \___
|    _    ||   ||   |     |  |_||||   __|    / ___ \   |       |   \___  \
|   | |   ||   ||   |___  |   |   |   |____ / /   \ \  |   |\   \  ___|  |
|___| |___||___||_______| |___|   |________|_/    \__\ |___| \___\|_____/

` + cli.AppHelpTemplate
}

// banner prints the separate steps
func banner(message string) {
	message = "* " + message + " *"
	log.Noticef(strings.Repeat("*", len(message)))
	log.Noticef(message)
	log.Noticef(strings.Repeat("*", len(message)))
}

// parseIntList splits a comma-separated flag value into ints
func parseIntList(s string) ([]int, error) {
	var values []int
	for _, word := range strings.Split(s, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(word))
		if err != nil {
			return nil, fmt.Errorf("invalid integer list `%s`", s)
		}
		values = append(values, v)
	}
	return values, nil
}

// parseChromList splits the chromosome selection flag; empty means all
func parseChromList(s string) []string {
	if s == "" {
		return nil
	}
	var labels []string
	for _, word := range strings.Split(s, ",") {
		labels = append(labels, strings.TrimSpace(word))
	}
	return labels
}

// makeConfig assembles the caller configuration from command-line flags
func makeConfig(c *cli.Context) (hicpeaks.Config, error) {
	cfg := hicpeaks.DefaultConfig()
	pws, err := parseIntList(c.String("pw"))
	if err != nil {
		return cfg, err
	}
	wws, err := parseIntList(c.String("ww"))
	if err != nil {
		return cfg, err
	}
	cfg.Chroms = parseChromList(c.String("chroms"))
	cfg.Pws = pws
	cfg.Wws = wws
	cfg.MaxWw = c.Int("maxww")
	cfg.SigLevel = c.Float64("siglevel")
	cfg.SumQ = c.Float64("sumq")
	cfg.MaxApart = c.Int("maxapart")
	cfg.ClusterRadius = c.Int("radius")
	cfg.NWorkers = c.Int("nproc")
	return cfg, cfg.Validate()
}

// main is the entrypoint for the entire program, routes to commands
func main() {
	logging.SetBackend(hicpeaks.BackendFormatter)

	app := cli.NewApp()
	app.Compiled = time.Now()
	app.Name = "HiCPeaks"
	app.Usage = "Chromatin loop detection from Hi-C contact matrices"
	app.Version = hicpeaks.Version

	extractFlags := []cli.Flag{
		cli.IntFlag{
			Name:  "res",
			Usage: "Matrix resolution (bin size) in bp",
			Value: 10000,
		},
		cli.StringFlag{
			Name:  "outdir",
			Usage: "Output directory for the matrix container",
			Value: "matrices",
		},
	}

	callFlags := []cli.Flag{
		cli.StringFlag{
			Name:  "chroms",
			Usage: "Comma-separated chromosome labels; '#' selects all numeric labels, empty selects all",
		},
		cli.StringFlag{
			Name:  "pw",
			Usage: "Comma-separated peak-window half-widths in bins, one per distance tier",
			Value: "2",
		},
		cli.StringFlag{
			Name:  "ww",
			Usage: "Comma-separated donut half-widths in bins, one per distance tier",
			Value: "5",
		},
		cli.IntFlag{
			Name:  "maxww",
			Usage: "Cap on the donut half-width regardless of tier",
			Value: hicpeaks.DefaultMaxWw,
		},
		cli.Float64Flag{
			Name:  "siglevel",
			Usage: "Significance cutoff for p- and q-values",
			Value: hicpeaks.DefaultSigLevel,
		},
		cli.Float64Flag{
			Name:  "sumq",
			Usage: "q-value sum cutoff for isolated singleton peaks",
			Value: hicpeaks.DefaultSumQ,
		},
		cli.IntFlag{
			Name:  "maxapart",
			Usage: "Maximum genomic distance (bp) between the two loci of a peak",
			Value: hicpeaks.DefaultMaxApart,
		},
		cli.IntFlag{
			Name:  "radius",
			Usage: "Cluster adjacency radius in bins (0 = one peak-window step)",
		},
		cli.IntFlag{
			Name:  "nproc",
			Usage: "Number of chromosome workers",
			Value: 1,
		},
		cli.StringFlag{
			Name:  "output",
			Usage: "Output peak table (.gz supported, '-' for stdout)",
			Value: "peaks.txt",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:  "extract",
			Usage: "Bin Hi-C read pairs into per-chromosome contact matrices",
			UsageText: `
	hicpeaks extract bamfile fastafile [options]

Extract function:
Given a coordinate-sorted BAM file, bin the intra-chromosomal read pairs
into a square contact matrix per chromosome at the requested resolution,
derive balancing weights, and write the npy matrix container used by the
"call" command.
`,
			Flags: extractFlags,
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowSubcommandHelp(c)
					return cli.NewExitError("Must specify bamfile and fastafile", 1)
				}

				p := hicpeaks.Extracter{
					Bamfile:    c.Args().Get(0),
					Fastafile:  c.Args().Get(1),
					Resolution: c.Int("res"),
					Outdir:     c.String("outdir"),
				}
				return p.Run()
			},
		},
		{
			Name:  "call",
			Usage: "Call significant chromatin loops from a matrix container",
			UsageText: `
	hicpeaks call matrixdir [options]

Call function:
Run the donut-filter peak caller on every selected chromosome: local
background estimation under four neighborhood shapes, Poisson testing,
Benjamini-Hochberg correction and clustering of significant pixels into
peak calls. One chromosome is one unit of parallel work.
`,
			Flags: callFlags,
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowSubcommandHelp(c)
					return cli.NewExitError("Must specify the matrix container directory", 1)
				}

				cfg, err := makeConfig(c)
				if err != nil {
					return cli.NewExitError(err.Error(), 1)
				}
				source, err := hicpeaks.LoadNpySource(c.Args().Get(0))
				if err != nil {
					return cli.NewExitError(err.Error(), 1)
				}
				p := hicpeaks.Caller{
					Source:  source,
					Config:  cfg,
					Outfile: c.String("output"),
				}
				return p.Run()
			},
		},
		{
			Name:  "plot",
			Usage: "Serve a heatmap of one chromosome with its peak calls",
			UsageText: `
	hicpeaks plot matrixdir peakfile chrom [options]

Plot function:
Serialize one chromosome's balanced contact band plus its peak calls and
host a small heatmap viewer.
`,
			Flags: callFlags,
			Action: func(c *cli.Context) error {
				if c.NArg() < 3 {
					cli.ShowSubcommandHelp(c)
					return cli.NewExitError("Must specify matrixdir, peakfile and chrom", 1)
				}

				cfg, err := makeConfig(c)
				if err != nil {
					return cli.NewExitError(err.Error(), 1)
				}
				p := hicpeaks.Plotter{
					Dir:      c.Args().Get(0),
					Peakfile: c.Args().Get(1),
					Chrom:    c.Args().Get(2),
					Config:   cfg,
				}
				return p.Run()
			},
		},
		{
			Name:  "pipeline",
			Usage: "Run extract-call steps sequentially",
			UsageText: `
	hicpeaks pipeline bamfile fastafile [options]

Pipeline:
A convenience driver function. Chain the following steps sequentially.

- extract
- call
`,
			Flags: append(extractFlags, callFlags...),
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowSubcommandHelp(c)
					return cli.NewExitError("Must specify bamfile and fastafile", 1)
				}

				cfg, err := makeConfig(c)
				if err != nil {
					return cli.NewExitError(err.Error(), 1)
				}

				banner(fmt.Sprintf("Extractor started (res = %d)", c.Int("res")))
				extracter := hicpeaks.Extracter{
					Bamfile:    c.Args().Get(0),
					Fastafile:  c.Args().Get(1),
					Resolution: c.Int("res"),
					Outdir:     c.String("outdir"),
				}
				if err := extracter.Run(); err != nil {
					return cli.NewExitError(err.Error(), 1)
				}

				banner("Caller started")
				source, err := hicpeaks.LoadNpySource(c.String("outdir"))
				if err != nil {
					return cli.NewExitError(err.Error(), 1)
				}
				caller := hicpeaks.Caller{
					Source:  source,
					Config:  cfg,
					Outfile: c.String("output"),
				}
				return caller.Run()
			},
		},
	}

	_ = app.Run(os.Args)
}
