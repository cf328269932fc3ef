package domain

import "time"

// Series is an ordered run of candles, ascending and unique by Timestamp.
// Operations return new views; a series is never mutated in place.
type Series []Candle

// FirstTimestamp returns the open time of the earliest candle.
func (s Series) FirstTimestamp() (int64, bool) {
	if len(s) == 0 {
		return 0, false
	}
	return s[0].Timestamp, true
}

// LastTimestamp returns the open time of the latest candle.
func (s Series) LastTimestamp() (int64, bool) {
	if len(s) == 0 {
		return 0, false
	}
	return s[len(s)-1].Timestamp, true
}

// DropLast returns the series without its final candle. The last candle of a
// cached series may still be forming and is treated as untrusted.
func (s Series) DropLast() Series {
	if len(s) == 0 {
		return s
	}
	return s[:len(s)-1]
}

// Extend appends candles in order, discarding any candle whose timestamp does
// not advance past the last kept one. It returns the merged series and the
// number of discarded candles.
func (s Series) Extend(candles []Candle) (Series, int) {
	merged := make(Series, len(s), len(s)+len(candles))
	copy(merged, s)
	dropped := 0
	for _, c := range candles {
		if last, ok := merged.LastTimestamp(); ok && c.Timestamp <= last {
			dropped++
			continue
		}
		merged = append(merged, c)
	}
	return merged, dropped
}

// Trim returns the sub-series selected by tr. An empty series trims to an
// empty series for any range, before the bounds are interpreted.
func (s Series) Trim(tr TimeRange) (Series, error) {
	if len(s) == 0 {
		return s, nil
	}
	start, stop, err := tr.Resolve(s)
	if err != nil {
		return nil, err
	}
	return s[start:stop], nil
}

// Frame is the column-oriented view of a series handed to consumers.
type Frame struct {
	Time   []time.Time
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

// Len returns the number of rows in the frame.
func (f Frame) Len() int {
	return len(f.Time)
}

// Frame converts the series into its tabular form.
func (s Series) Frame() Frame {
	f := Frame{
		Time:   make([]time.Time, len(s)),
		Open:   make([]float64, len(s)),
		High:   make([]float64, len(s)),
		Low:    make([]float64, len(s)),
		Close:  make([]float64, len(s)),
		Volume: make([]float64, len(s)),
	}
	for i, c := range s {
		f.Time[i] = c.Time()
		f.Open[i] = c.Open
		f.High[i] = c.High
		f.Low[i] = c.Low
		f.Close[i] = c.Close
		f.Volume[i] = c.Volume
	}
	return f
}
