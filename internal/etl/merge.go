package etl

import "time"

// Merge inner-joins the aggregate records (date, recovered) with the
// regional records (date, cases, deaths) on date.
//
// Output follows the aggregate order. Each date appears at most once; if a
// source repeats a date, its last row for that date is used.
func Merge(aggregate, regional []Record) []Record {
	if len(aggregate) == 0 || len(regional) == 0 {
		return nil
	}

	byDate := make(map[time.Time]Record, len(regional))
	for _, r := range regional {
		byDate[r.Date] = r
	}
	recovered := make(map[time.Time]int64, len(aggregate))
	for _, a := range aggregate {
		recovered[a.Date] = a.Recovered
	}

	out := make([]Record, 0, min(len(aggregate), len(regional)))
	emitted := make(map[time.Time]bool, len(aggregate))
	for _, a := range aggregate {
		if emitted[a.Date] {
			continue
		}
		r, ok := byDate[a.Date]
		if !ok {
			continue
		}
		emitted[a.Date] = true
		out = append(out, Record{
			Date:      a.Date,
			Cases:     r.Cases,
			Deaths:    r.Deaths,
			Recovered: recovered[a.Date],
		})
	}
	return out
}
