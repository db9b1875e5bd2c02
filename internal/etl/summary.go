package etl

import (
	"sort"
	"time"

	"github.com/montanaflynn/stats"
)

// DailyStats describes the day-over-day increases of a cumulative count.
type DailyStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
	Last   int64   `json:"last"`
}

// Summary is a read-side digest of the stored records.
type Summary struct {
	Days      int        `json:"days"`
	First     time.Time  `json:"first"`
	Last      time.Time  `json:"last"`
	Cases     int64      `json:"cases"`
	Deaths    int64      `json:"deaths"`
	Recovered int64      `json:"recovered"`
	NewCases  DailyStats `json:"newCases"`
	NewDeaths DailyStats `json:"newDeaths"`
}

// Summarize computes totals from the latest record and statistics of the
// daily increases. Counts are cumulative, so increases are differences
// between consecutive days.
func Summarize(records []Record) Summary {
	if len(records) == 0 {
		return Summary{}
	}
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	first, last := sorted[0], sorted[len(sorted)-1]
	return Summary{
		Days:      len(sorted),
		First:     first.Date,
		Last:      last.Date,
		Cases:     last.Cases,
		Deaths:    last.Deaths,
		Recovered: last.Recovered,
		NewCases:  daily(sorted, func(r Record) int64 { return r.Cases }),
		NewDeaths: daily(sorted, func(r Record) int64 { return r.Deaths }),
	}
}

func daily(sorted []Record, field func(Record) int64) DailyStats {
	if len(sorted) < 2 {
		return DailyStats{}
	}
	deltas := make(stats.Float64Data, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		deltas = append(deltas, float64(field(sorted[i])-field(sorted[i-1])))
	}
	// deltas is never empty here, so the stats errors cannot occur.
	mean, _ := deltas.Mean()
	median, _ := deltas.Median()
	peak, _ := deltas.Max()
	return DailyStats{
		Mean:   mean,
		Median: median,
		Max:    peak,
		Last:   int64(deltas[len(deltas)-1]),
	}
}
