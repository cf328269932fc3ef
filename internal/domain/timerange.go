package domain

import (
	"errors"
	"fmt"
)

// BoundType says how one edge of a TimeRange is expressed.
type BoundType string

const (
	BoundNone  BoundType = ""      // Open edge
	BoundDate  BoundType = "date"  // Unix seconds
	BoundLine  BoundType = "line"  // Row count, stop side only
	BoundIndex BoundType = "index" // Verbatim slice offset
)

func (b BoundType) String() string {
	if b == BoundNone {
		return "none"
	}
	return string(b)
}

// ErrUnsupportedBound is returned when a range uses a line-typed start edge,
// which has no defined trimming behavior.
var ErrUnsupportedBound = errors.New("line start boundary is not supported")

// TimeRange bounds a candle series. Date edges hold Unix seconds and are
// compared against candle timestamps at millisecond precision; line and index
// edges hold row counts and offsets.
type TimeRange struct {
	StartType BoundType
	StopType  BoundType
	StartTS   int64
	StopTS    int64
}

// NewTimeRange builds a range from explicit edge types and values.
func NewTimeRange(startType, stopType BoundType, startTS, stopTS int64) TimeRange {
	return TimeRange{StartType: startType, StopType: stopType, StartTS: startTS, StopTS: stopTS}
}

// DateRange bounds both edges with Unix-second timestamps.
func DateRange(fromSec, toSec int64) TimeRange {
	return TimeRange{StartType: BoundDate, StopType: BoundDate, StartTS: fromSec, StopTS: toSec}
}

// SinceDate bounds only the start edge with a Unix-second timestamp.
func SinceDate(fromSec int64) TimeRange {
	return TimeRange{StartType: BoundDate, StartTS: fromSec}
}

// HasDateStart reports whether the start edge is date-typed.
func (tr TimeRange) HasDateStart() bool {
	return tr.StartType == BoundDate
}

// HasDateStop reports whether the stop edge is date-typed.
func (tr TimeRange) HasDateStop() bool {
	return tr.StopType == BoundDate
}

// HasLineStop reports whether the stop edge is line-typed.
func (tr TimeRange) HasLineStop() bool {
	return tr.StopType == BoundLine
}

// StartMs returns the start edge as Unix milliseconds. Only meaningful for a
// date-typed start.
func (tr TimeRange) StartMs() int64 {
	return tr.StartTS * 1000
}

// StopMs returns the stop edge as Unix milliseconds. Only meaningful for a
// date-typed stop.
func (tr TimeRange) StopMs() int64 {
	return tr.StopTS * 1000
}

// RangeError reports a range whose resolved start lies past its resolved stop
// for the series it was applied to. It carries both requested edges so the
// caller can log the offending request.
type RangeError struct {
	Range      TimeRange
	StartIndex int
	StopIndex  int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("time range start resolves past stop: index %d > %d (start %s %d, stop %s %d)",
		e.StartIndex, e.StopIndex, e.Range.StartType, e.Range.StartTS, e.Range.StopType, e.Range.StopTS)
}

// Resolve maps the range onto s as half-open slice offsets [start, stop).
// Date edges scan deterministically: the start is the index of the first
// candle at or after the boundary, the stop is one past the last candle at or
// before it. Index edges are used verbatim and a line stop keeps the first
// StopTS rows. A resolved start past the resolved stop is a *RangeError and is
// never silently clamped; past the ordering check both offsets are clamped to
// [0, len(s)] so a range lying beyond the data yields an empty window.
func (tr TimeRange) Resolve(s Series) (int, int, error) {
	start := 0
	stop := len(s)

	switch tr.StartType {
	case BoundNone:
	case BoundDate:
		startMs := tr.StartMs()
		for start < len(s) && s[start].Timestamp < startMs {
			start++
		}
	case BoundIndex:
		start = int(tr.StartTS)
	case BoundLine:
		return 0, 0, ErrUnsupportedBound
	default:
		return 0, 0, fmt.Errorf("unknown start bound type %q", string(tr.StartType))
	}

	switch tr.StopType {
	case BoundNone:
	case BoundDate:
		stopMs := tr.StopMs()
		for stop > 0 && s[stop-1].Timestamp > stopMs {
			stop--
		}
	case BoundLine, BoundIndex:
		stop = int(tr.StopTS)
	default:
		return 0, 0, fmt.Errorf("unknown stop bound type %q", string(tr.StopType))
	}

	if start > stop {
		return 0, 0, &RangeError{Range: tr, StartIndex: start, StopIndex: stop}
	}
	return clampIndex(start, len(s)), clampIndex(stop, len(s)), nil
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
