package domain

import (
	"encoding/json"
	"testing"
)

func TestSeries_DropLast(t *testing.T) {
	if got := (Series{}).DropLast(); len(got) != 0 {
		t.Errorf("Expected empty series, got %d candles", len(got))
	}

	series := secondsSeries(10, 20, 30)
	trusted := series.DropLast()
	if len(trusted) != 2 {
		t.Fatalf("Expected 2 candles, got %d", len(trusted))
	}
	if last, _ := trusted.LastTimestamp(); last != 20000 {
		t.Errorf("Expected last timestamp 20000, got %d", last)
	}
}

func TestSeries_Extend(t *testing.T) {
	tests := []struct {
		name            string
		series          Series
		candles         []Candle
		expectedLen     int
		expectedDropped int
		expectedLast    int64
	}{
		{
			name:            "append to empty",
			series:          Series{},
			candles:         secondsSeries(10, 20),
			expectedLen:     2,
			expectedDropped: 0,
			expectedLast:    20000,
		},
		{
			name:            "append newer candles",
			series:          secondsSeries(10, 20),
			candles:         secondsSeries(30, 40),
			expectedLen:     4,
			expectedDropped: 0,
			expectedLast:    40000,
		},
		{
			name:            "overlapping candles are discarded",
			series:          secondsSeries(10, 20, 30),
			candles:         secondsSeries(20, 30, 40),
			expectedLen:     4,
			expectedDropped: 2,
			expectedLast:    40000,
		},
		{
			name:            "nothing to append",
			series:          secondsSeries(10, 20),
			candles:         nil,
			expectedLen:     2,
			expectedDropped: 0,
			expectedLast:    20000,
		},
		{
			name:            "stale candles only",
			series:          secondsSeries(10, 20),
			candles:         secondsSeries(5, 10),
			expectedLen:     2,
			expectedDropped: 2,
			expectedLast:    20000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged, dropped := tt.series.Extend(tt.candles)

			if len(merged) != tt.expectedLen {
				t.Errorf("Expected %d candles, got %d", tt.expectedLen, len(merged))
			}
			if dropped != tt.expectedDropped {
				t.Errorf("Expected %d dropped, got %d", tt.expectedDropped, dropped)
			}
			if last, ok := merged.LastTimestamp(); ok && last != tt.expectedLast {
				t.Errorf("Expected last timestamp %d, got %d", tt.expectedLast, last)
			}
			for i := 1; i < len(merged); i++ {
				if merged[i].Timestamp <= merged[i-1].Timestamp {
					t.Fatalf("Timestamps not strictly increasing at %d: %d <= %d",
						i, merged[i].Timestamp, merged[i-1].Timestamp)
				}
			}
		})
	}
}

func TestSeries_Extend_DoesNotMutateReceiver(t *testing.T) {
	series := secondsSeries(10, 20)
	merged, _ := series.Extend(secondsSeries(30))

	if len(series) != 2 {
		t.Errorf("Receiver length changed to %d", len(series))
	}
	if len(merged) != 3 {
		t.Errorf("Expected 3 candles in merged series, got %d", len(merged))
	}
}

func TestSeries_Frame(t *testing.T) {
	series := secondsSeries(10, 20, 30)
	frame := series.Frame()

	if frame.Len() != 3 {
		t.Fatalf("Expected 3 rows, got %d", frame.Len())
	}
	if frame.Time[1].UnixMilli() != 20000 {
		t.Errorf("Expected row 1 at 20000ms, got %d", frame.Time[1].UnixMilli())
	}
	if frame.Close[2] != series[2].Close || frame.Volume[0] != series[0].Volume {
		t.Error("Frame columns do not match source candles")
	}
}

func TestCandle_JSONRow(t *testing.T) {
	c := Candle{Timestamp: 1500000000000, Open: 0.1, High: 0.2, Low: 0.05, Close: 0.15, Volume: 12.5}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expected := "[1500000000000,0.1,0.2,0.05,0.15,12.5]"
	if string(data) != expected {
		t.Errorf("Expected %s, got %s", expected, data)
	}

	var decoded Candle
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if decoded != c {
		t.Errorf("Round trip changed the candle: %+v != %+v", decoded, c)
	}

	if err := json.Unmarshal([]byte("[1,2,3]"), &decoded); err == nil {
		t.Error("Expected error for a short row")
	}
	if err := json.Unmarshal([]byte(`{"open":1}`), &decoded); err == nil {
		t.Error("Expected error for a non-array row")
	}
}

func TestCacheKey(t *testing.T) {
	key := CacheKey{Pair: "BTC/USDT", Interval: "5m"}

	if key.SafePair() != "BTC_USDT" {
		t.Errorf("Expected BTC_USDT, got %s", key.SafePair())
	}
	if key.String() != "BTC_USDT-5m" {
		t.Errorf("Expected BTC_USDT-5m, got %s", key.String())
	}
}
