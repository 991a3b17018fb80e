package history

import (
	"context"
	"fmt"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Stats summarizes the latency of successful requests. Failed requests are
// counted but carry no latency.
type Stats struct {
	Count  int
	Errors int
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	P50    time.Duration
	P90    time.Duration
	P99    time.Duration
}

// Stats computes latency percentiles for requestPath, or for every entry
// when requestPath is empty.
func (s *Store) Stats(ctx context.Context, requestPath string) (Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	query := `SELECT duration_us, error FROM history`
	var args []any
	if requestPath != "" {
		query += ` WHERE request_path = ?`
		args = append(args, requestPath)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Stats{}, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	// Microsecond resolution up to one minute, three significant digits.
	histogram := hdrhistogram.New(1, 60_000_000, 3)
	var stats Stats
	for rows.Next() {
		var (
			durationUs int64
			errMsg     string
		)
		if err := rows.Scan(&durationUs, &errMsg); err != nil {
			return Stats{}, fmt.Errorf("failed to scan row: %w", err)
		}
		stats.Count++
		if errMsg != "" {
			stats.Errors++
			continue
		}
		durationUs = min(max(durationUs, 1), histogram.HighestTrackableValue())
		_ = histogram.RecordValue(durationUs)
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("row iteration error: %w", err)
	}

	if histogram.TotalCount() == 0 {
		return stats, nil
	}

	stats.Min = time.Duration(histogram.Min()) * time.Microsecond
	stats.Max = time.Duration(histogram.Max()) * time.Microsecond
	stats.Mean = time.Duration(histogram.Mean()) * time.Microsecond
	stats.P50 = time.Duration(histogram.ValueAtQuantile(50)) * time.Microsecond
	stats.P90 = time.Duration(histogram.ValueAtQuantile(90)) * time.Microsecond
	stats.P99 = time.Duration(histogram.ValueAtQuantile(99)) * time.Microsecond
	return stats, nil
}
