package recurse

import "github.com/golang/geo/r2"

// scanner walks the trajectory once for a single location. Its working state
// is reset at every track boundary so nothing leaks between tracks.
type scanner struct {
	center    r2.Point
	radius    float64
	threshold float64 // seconds
	index     int

	inside   bool
	entrance float64

	hasExit  bool
	lastExit float64

	// merging is set on entrance when the excursion that just ended was
	// shorter than threshold; the next exit then extends the open record.
	merging      bool
	hasSinceLast bool
	sinceLast    float64

	result    LocationResult
	log       *eventLog // nil unless verbose
	open      int       // index of the last record in log, -1 if none
	fallbacks int
}

func newScanner(index int, center r2.Point, radius, threshold float64, verbose bool) *scanner {
	s := &scanner{
		center:    center,
		radius:    radius,
		threshold: threshold,
		index:     index,
		open:      -1,
	}
	if verbose {
		s.log = newEventLog()
	}
	return s
}

func (s *scanner) contains(p r2.Point) bool {
	return p.Sub(s.center).Norm() <= s.radius
}

func (s *scanner) run(samples []Sample, starts []bool) {
	for j, cur := range samples {
		if starts[j] {
			if j > 0 {
				s.finish(samples[j-1])
			}
			s.reset(cur)
			continue
		}

		prev := samples[j-1]
		now := s.contains(cur.Pos)

		switch {
		case s.inside && !now:
			s.exit(prev, cur)
		case !s.inside && now:
			s.enter(prev, cur)
		}
	}

	s.finish(samples[len(samples)-1])
}

// reset starts a new track at first. No interpolation is possible here.
func (s *scanner) reset(first Sample) {
	s.inside = s.contains(first.Pos)
	s.entrance = first.Time
	s.hasExit = false
	s.merging = false
	s.hasSinceLast = false
}

// finish closes a visit that is still open at the last sample of a track.
func (s *scanner) finish(last Sample) {
	if !s.inside {
		return
	}
	s.inside = false
	s.close(last.Time, last.Track)
}

func (s *scanner) enter(prev, cur Sample) {
	p, ok := CrossingFraction(s.center, s.radius, cur.Pos, prev.Pos)
	if !ok {
		s.fallbacks++
	}

	s.inside = true
	s.entrance = cur.Time - p*(cur.Time-prev.Time)

	if !s.hasExit {
		s.merging = false
		s.hasSinceLast = false
		return
	}

	gap := s.entrance - s.lastExit
	s.sinceLast = gap
	s.hasSinceLast = true
	s.merging = gap < s.threshold

	if s.merging {
		// The excursion counts as time spent at the location.
		s.result.ResidenceTime += gap
		if s.open >= 0 {
			s.log.at(s.open).TimeInside += gap
		}
	}
}

func (s *scanner) exit(prev, cur Sample) {
	p, ok := CrossingFraction(s.center, s.radius, prev.Pos, cur.Pos)
	if !ok {
		s.fallbacks++
	}

	s.inside = false
	s.close(prev.Time+p*(cur.Time-prev.Time), cur.Track)
}

func (s *scanner) close(exit float64, track string) {
	timeInside := exit - s.entrance
	s.result.ResidenceTime += timeInside
	s.hasExit = true
	s.lastExit = exit

	if s.merging {
		if s.open >= 0 {
			r := s.log.at(s.open)
			r.TimeInside += timeInside
			r.Exit = exit
		}
		return
	}

	s.result.Visits++
	if s.log == nil {
		return
	}

	rec := Record{
		LocationIndex: s.index,
		VisitIndex:    s.result.Visits,
		Track:         track,
		Pos:           s.center,
		Visit:         Visit{Entrance: s.entrance, Exit: exit},
		TimeInside:    timeInside,
	}
	if s.hasSinceLast {
		since := s.sinceLast
		rec.TimeSinceLastVisit = &since
	}
	s.open = s.log.add(rec)
}
