// Command rficlean runs an RFI cleaning pipeline over .npy arrays.
//
// Usage:
//
//	rficlean [flags] -intensity i.npy [-weights w.npy]
//
// The pipeline comes from a JSON description (-config) or, without one,
// is a single std_dev_clipper configured by flags. Cleaned arrays are
// written as .npy; images, a mask-fraction chart and a SQLite database
// of mask counts are optional.
//
// Examples:
//
//	rficlean -intensity i.npy -out-weights w_clean.npy
//	rficlean -intensity i.npy -weights w.npy -config chain.json -png plots
//	rficlean -intensity i.npy -threshold 2.5 -axis freq -chart masks.html -db masks.db
//	rficlean -intensity i.npy -estimate-profile var.npy -nvs 64
//	rficlean -list
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cwbudde/algo-rfi/internal/logging"
)

func main() {
	var o options
	flag.StringVar(&o.intensity, "intensity", "", "input intensity .npy (nfreq × nt)")
	flag.StringVar(&o.weights, "weights", "", "input weights .npy; all ones if empty")
	flag.StringVar(&o.config, "config", "", "pipeline description .json")
	flag.Float64Var(&o.threshold, "threshold", 3, "clipping threshold without -config")
	flag.StringVar(&o.axis, "axis", "time", "clipping axis without -config: time or freq")
	flag.IntVar(&o.ntChunk, "nt-chunk", 1024, "chunk length without -config")
	flag.IntVar(&o.blockNt, "block-nt", 512, "samples read per block")
	flag.StringVar(&o.outIntensity, "out-intensity", "", "write cleaned intensity .npy")
	flag.StringVar(&o.outWeights, "out-weights", "", "write cleaned weights .npy")
	flag.StringVar(&o.pngDir, "png", "", "enable rendering and write images into this directory")
	flag.StringVar(&o.chart, "chart", "", "write a mask-fraction HTML chart")
	flag.StringVar(&o.db, "db", "", "record mask counts in this SQLite database")
	flag.StringVar(&o.profileOut, "estimate-profile", "", "estimate a variance profile .npy instead of cleaning")
	flag.IntVar(&o.nvs, "nvs", 64, "samples per variance bucket with -estimate-profile")
	flag.StringVar(&o.logLevel, "log-level", "info", "debug, info, warn or error")
	list := flag.Bool("list", false, "list transform types")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: rficlean [flags] -intensity i.npy [-weights w.npy]\n\n")
		fmt.Fprintf(os.Stderr, "Runs an RFI cleaning pipeline over .npy arrays.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *list {
		printTypes(os.Stdout)
		return
	}
	if o.intensity == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger, err := logging.New(o.logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, o, logger); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warnw("interrupted")
			os.Exit(130)
		}
		logger.Errorw("rficlean failed", "error", err)
		os.Exit(1)
	}
}
