package predictor

import (
	"sort"
	"time"

	"crowdflow/models"
)

const DefaultBaselineClients = 8

// FeatureRow is one resampled bucket. ClientCount is the regression target
// for training rows and unset for future rows.
type FeatureRow struct {
	Timestamp   time.Time
	ClientCount float64
	DayOfWeek   int
	HourOfDay   int
	IsWeekend   int
}

func (r FeatureRow) features() []float64 {
	return []float64{float64(r.DayOfWeek), float64(r.HourOfDay), float64(r.IsWeekend)}
}

type FeatureOptions struct {
	// BaselineClients is subtracted from every reading before aggregation.
	BaselineClients int
	Resample        time.Duration
	Encoding        Encoding
}

func DefaultFeatureOptions() FeatureOptions {
	return FeatureOptions{
		BaselineClients: DefaultBaselineClients,
		Resample:        time.Hour,
	}
}

type bucket struct {
	sum   float64
	count int
}

// BuildTrainingTable turns raw samples into one row per non-empty resample
// bucket, ordered by time. Readings below the baseline count as zero.
func BuildTrainingTable(samples []models.ClientSample, opts FeatureOptions) []FeatureRow {
	if len(samples) == 0 {
		return []FeatureRow{}
	}
	unit := opts.Resample
	if unit <= 0 {
		unit = time.Hour
	}

	buckets := make(map[time.Time]*bucket)
	for _, s := range samples {
		ts := s.TS.UTC().Truncate(time.Minute).Truncate(unit)

		count := s.NoOfClients - opts.BaselineClients
		if count < 0 {
			count = 0
		}

		b, ok := buckets[ts]
		if !ok {
			b = &bucket{}
			buckets[ts] = b
		}
		b.sum += float64(count)
		b.count++
	}

	rows := make([]FeatureRow, 0, len(buckets))
	for ts, b := range buckets {
		rows = append(rows, opts.Encoding.Row(ts, b.sum/float64(b.count)))
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Timestamp.Before(rows[j].Timestamp)
	})
	return rows
}
