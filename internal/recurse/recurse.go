// Package recurse computes recursions: how often and for how long a
// trajectory returns to the neighbourhood of each of a set of locations.
package recurse

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/golang/geo/r2"
	"golang.org/x/sync/errgroup"
)

var (
	ErrEmptyTrajectory  = errors.New("trajectory has no samples")
	ErrInvalidRadius    = errors.New("radius must be positive")
	ErrInvalidThreshold = errors.New("threshold must not be negative")
)

// Options configures Compute.
type Options struct {
	Radius float64
	// Threshold is the shortest excursion outside the radius, in seconds,
	// that starts a new visit. Shorter excursions are merged into the
	// ongoing visit.
	Threshold float64
	Unit      TimeUnit
	Verbose   bool
	// Workers > 1 scans locations in parallel.
	Workers int
	// OnLocation is called after each location has been scanned. It may be
	// called from several goroutines when Workers > 1.
	OnLocation func(done, total int)
}

// Validate checks the preconditions of Compute.
func Validate(samples []Sample, opts Options) error {
	if len(samples) == 0 {
		return ErrEmptyTrajectory
	}
	if !(opts.Radius > 0) || math.IsInf(opts.Radius, 1) {
		return fmt.Errorf("%w: %v", ErrInvalidRadius, opts.Radius)
	}
	if !(opts.Threshold >= 0) {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, opts.Threshold)
	}
	return nil
}

// AtTrajectory uses every sample's position as a query location.
func AtTrajectory(samples []Sample) []r2.Point {
	locs := make([]r2.Point, len(samples))
	for i, s := range samples {
		locs[i] = s.Pos
	}
	return locs
}

// Compute scans the trajectory once per location. Samples are used in the
// order given; a change of Track between consecutive samples starts a new
// track, and no interpolation or merging happens across it.
func Compute(ctx context.Context, samples []Sample, locations []r2.Point, opts Options) (*Result, error) {
	if err := Validate(samples, opts); err != nil {
		return nil, err
	}

	starts := TrackStarts(trackLabels(samples))
	total := len(locations)

	results := make([]LocationResult, total)
	fallbacks := make([]int, total)
	var logs []*eventLog
	if opts.Verbose {
		logs = make([]*eventLog, total)
	}

	var done atomic.Int64
	scan := func(i int) {
		s := newScanner(i, locations[i], opts.Radius, opts.Threshold, opts.Verbose)
		s.run(samples, starts)

		results[i] = s.result
		fallbacks[i] = s.fallbacks
		if logs != nil {
			logs[i] = s.log
		}
		if opts.OnLocation != nil {
			opts.OnLocation(int(done.Add(1)), total)
		}
	}

	workers := opts.Workers
	if workers > total {
		workers = total
	}

	if workers <= 1 {
		for i := range locations {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			scan(i)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i := range locations {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				scan(i)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	res := &Result{
		Locations: results,
		Radius:    opts.Radius,
	}
	for _, n := range fallbacks {
		res.CrossingFallbacks += n
	}

	factor := opts.Unit.Seconds()
	for i := range res.Locations {
		res.Locations[i].ResidenceTime /= factor
	}

	if opts.Verbose {
		size := 0
		for _, l := range logs {
			size += l.len()
		}
		res.Events = make([]Record, 0, size)
		for _, l := range logs {
			if l == nil {
				continue
			}
			res.Events = append(res.Events, l.records...)
		}
		for i := range res.Events {
			ev := &res.Events[i]
			ev.TimeInside /= factor
			if ev.TimeSinceLastVisit != nil {
				*ev.TimeSinceLastVisit /= factor
			}
		}
	}

	return res, nil
}
