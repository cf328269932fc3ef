package domain

import (
	"fmt"
	"time"
)

// intervalMinutes maps the supported interval notation to its length.
var intervalMinutes = map[string]int64{
	"1m":  1,
	"3m":  3,
	"5m":  5,
	"15m": 15,
	"30m": 30,
	"1h":  60,
	"2h":  120,
	"4h":  240,
	"6h":  360,
	"8h":  480,
	"12h": 720,
	"1d":  1440,
	"3d":  4320,
	"1w":  10080,
}

// IntervalMinutes returns the length of the interval in minutes.
func IntervalMinutes(interval string) (int64, error) {
	m, ok := intervalMinutes[interval]
	if !ok {
		return 0, fmt.Errorf("unknown interval %q", interval)
	}
	return m, nil
}

// IntervalDuration returns the length of the interval as a time.Duration.
func IntervalDuration(interval string) (time.Duration, error) {
	m, err := IntervalMinutes(interval)
	if err != nil {
		return 0, err
	}
	return time.Duration(m) * time.Minute, nil
}
