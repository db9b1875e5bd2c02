package etl

import (
	"strconv"
	"strings"
)

// Region is the only region kept from the aggregate dataset.
const Region = "US"

// Canonical field names after renaming.
const (
	fieldDate      = "date"
	fieldCases     = "cases"
	fieldDeaths    = "deaths"
	fieldRecovered = "recovered"
)

func aggregateChain() []Transformer {
	return []Transformer{
		&FilterTransform{Field: "Country/Region", Op: "eq", Value: Region},
		&SelectTransform{Fields: []string{"Date", "Recovered"}},
		&RenameTransform{Mapping: map[string]string{"Date": fieldDate, "Recovered": fieldRecovered}},
	}
}

func regionalChain() []Transformer {
	return []Transformer{
		&SelectTransform{Fields: []string{fieldDate, fieldCases, fieldDeaths}},
	}
}

// NormalizeAggregate keeps the US rows of the aggregate dataset and
// returns records carrying date and recovered.
func NormalizeAggregate(rs RowSet) ([]Record, error) {
	return normalize(rs, aggregateChain(), fieldRecovered)
}

// NormalizeRegional returns records carrying date, cases and deaths for
// every row of the regional dataset.
func NormalizeRegional(rs RowSet) ([]Record, error) {
	return normalize(rs, regionalChain(), fieldCases, fieldDeaths)
}

// normalize applies chain to every row and parses the result. Each kept
// row must carry all of the required count fields.
func normalize(rs RowSet, chain []Transformer, required ...string) ([]Record, error) {
	out := make([]Record, 0, len(rs))
	for _, raw := range rs {
		if raw == nil {
			return nil, invalidDataset("cannot find a field mapping record")
		}
		row, keep := ApplyTransformers(raw, chain)
		if !keep {
			continue
		}
		for _, name := range required {
			if _, ok := row[name]; !ok {
				return nil, invalidDataset("missing field %q", name)
			}
		}
		rec, err := parseRecord(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// parseRecord converts the canonical fields present in row.
func parseRecord(row RawRow) (Record, error) {
	var rec Record
	d, err := ParseDate(row[fieldDate])
	if err != nil {
		return Record{}, &InvalidDatasetError{Reason: err.Error()}
	}
	rec.Date = d

	counts := []struct {
		name string
		dst  *int64
	}{
		{fieldCases, &rec.Cases},
		{fieldDeaths, &rec.Deaths},
		{fieldRecovered, &rec.Recovered},
	}
	for _, c := range counts {
		v, ok := row[c.name]
		if !ok {
			continue
		}
		n, err := parseCount(v)
		if err != nil {
			return Record{}, &InvalidDatasetError{Reason: err.Error()}
		}
		*c.dst = n
	}
	return rec, nil
}

func parseCount(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, &strconv.NumError{Func: "parseCount", Num: s, Err: strconv.ErrRange}
	}
	return n, nil
}
