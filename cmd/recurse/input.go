package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"

	"github.com/jengzang/recursions-backend-go/internal/recurse"
)

// columns maps field names to column positions; -1 means absent
type columns struct {
	x, y, t, track int
}

// readHeader detects an optional header row. Without one, columns are
// x,y[,t[,track]] in that order.
func readHeader(first []string) (columns, bool) {
	if _, err := strconv.ParseFloat(strings.TrimSpace(first[0]), 64); err == nil {
		cols := columns{x: 0, y: 1, t: -1, track: -1}
		if len(first) > 2 {
			cols.t = 2
		}
		if len(first) > 3 {
			cols.track = 3
		}
		return cols, false
	}

	cols := columns{x: -1, y: -1, t: -1, track: -1}
	for i, name := range first {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "x", "lon", "longitude":
			cols.x = i
		case "y", "lat", "latitude":
			cols.y = i
		case "t", "time", "timestamp":
			cols.t = i
		case "id", "track":
			cols.track = i
		}
	}
	return cols, true
}

func readRows(r io.Reader) ([][]string, columns, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, columns{}, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, columns{}, errors.New("csv is empty")
	}

	cols, header := readHeader(rows[0])
	if header {
		rows = rows[1:]
	}
	if cols.x < 0 || cols.y < 0 {
		return nil, columns{}, errors.New("csv needs x and y columns")
	}
	return rows, cols, nil
}

func field(row []string, col, line int) (float64, error) {
	if col >= len(row) {
		return 0, fmt.Errorf("line %d: missing column %d", line, col+1)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: %w", line, err)
	}
	return v, nil
}

// readTrajectory parses x,y,t[,track] rows in file order
func readTrajectory(r io.Reader) ([]recurse.Sample, error) {
	rows, cols, err := readRows(r)
	if err != nil {
		return nil, err
	}
	if cols.t < 0 {
		return nil, errors.New("trajectory csv needs a t column")
	}

	samples := make([]recurse.Sample, 0, len(rows))
	for i, row := range rows {
		var s recurse.Sample
		if s.Pos.X, err = field(row, cols.x, i+1); err != nil {
			return nil, err
		}
		if s.Pos.Y, err = field(row, cols.y, i+1); err != nil {
			return nil, err
		}
		if s.Time, err = field(row, cols.t, i+1); err != nil {
			return nil, err
		}
		if cols.track >= 0 && cols.track < len(row) {
			s.Track = strings.TrimSpace(row[cols.track])
		}
		samples = append(samples, s)
	}
	return samples, nil
}

// readLocations parses x,y rows
func readLocations(r io.Reader) ([]r2.Point, error) {
	rows, cols, err := readRows(r)
	if err != nil {
		return nil, err
	}

	locs := make([]r2.Point, 0, len(rows))
	for i, row := range rows {
		var p r2.Point
		if p.X, err = field(row, cols.x, i+1); err != nil {
			return nil, err
		}
		if p.Y, err = field(row, cols.y, i+1); err != nil {
			return nil, err
		}
		locs = append(locs, p)
	}
	return locs, nil
}
