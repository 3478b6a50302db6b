// Command recurse computes recursions for a CSV trajectory and prints the
// result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"

	"github.com/golang/geo/r2"

	"github.com/jengzang/recursions-backend-go/internal/recurse"
	"github.com/jengzang/recursions-backend-go/internal/service"
)

func main() {
	var (
		trajFile  = flag.String("i", "", "Trajectory CSV (x,y,t[,track]); - for stdin")
		locFile   = flag.String("locations", "", "Locations CSV (x,y); default: every trajectory point")
		radius    = flag.Float64("radius", 0, "Radius around each location, in trajectory units")
		threshold = flag.Float64("threshold", 0, "Shortest excursion that starts a new visit, in -units")
		units     = flag.String("units", "secs", "Time unit of results and threshold: secs, mins, hours, days")
		verbose   = flag.Bool("verbose", false, "Include the per-visit event log")
		workers   = flag.Int("workers", runtime.NumCPU(), "Locations scanned in parallel")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "recurse - revisit analysis for trajectories\n\n")
		fmt.Fprintf(os.Stderr, "usage: recurse -i track.csv -radius 50 [-threshold 1 -units hours]\n\n")
		fmt.Fprintf(os.Stderr, "options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *trajFile == "" || *radius <= 0 {
		flag.Usage()
		os.Exit(2)
	}

	samples, err := loadTrajectory(*trajFile)
	if err != nil {
		log.Fatalf("read trajectory: %v", err)
	}

	locs := recurse.AtTrajectory(samples)
	if *locFile != "" {
		if locs, err = loadLocations(*locFile); err != nil {
			log.Fatalf("read locations: %v", err)
		}
	}

	unit := recurse.ParseTimeUnit(*units)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := recurse.Compute(ctx, samples, locs, recurse.Options{
		Radius:    *radius,
		Threshold: *threshold * unit.Seconds(),
		Unit:      unit,
		Verbose:   *verbose,
		Workers:   *workers,
	})
	if err != nil {
		log.Fatalf("compute: %v", err)
	}
	if res.CrossingFallbacks > 0 {
		log.Printf("warning: %d boundary crossings fell back to segment endpoints", res.CrossingFallbacks)
	}

	if err := writeOutput(os.Stdout, res, locs, unit); err != nil {
		log.Fatalf("write output: %v", err)
	}
}

func loadTrajectory(path string) ([]recurse.Sample, error) {
	if path == "-" {
		return readTrajectory(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readTrajectory(f)
}

func loadLocations(path string) ([]r2.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLocations(f)
}

func writeOutput(w io.Writer, res *recurse.Result, locs []r2.Point, unit recurse.TimeUnit) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(service.BuildResponse(res, locs, unit))
}
