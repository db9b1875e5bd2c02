package etl_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casetrack/internal/etl"
	_ "casetrack/internal/etl/sources"
)

func fixture(name string) string {
	return filepath.Join("testdata", name)
}

func readFixtures(t *testing.T, names ...string) []etl.RowSet {
	t.Helper()
	files := make([]string, len(names))
	for i, n := range names {
		files[i] = fixture(n)
	}
	sets, err := etl.FromFiles(files...).RowSets(context.Background())
	require.NoError(t, err)
	return sets
}

func TestTransform_NoDatasets(t *testing.T) {
	_, err := etl.Transform(nil)

	var missing *etl.MissingDatasetError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []etl.Role{etl.RoleRegional, etl.RoleAggregate}, missing.Roles)
}

func TestTransform_OneDataset(t *testing.T) {
	sets := readFixtures(t, "nyt_data_good.csv")

	_, err := etl.Transform(sets)

	var missing *etl.MissingDatasetError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []etl.Role{etl.RoleAggregate}, missing.Roles)
	assert.Equal(t, "datasets were not received for aggregate", err.Error())
}

func TestTransform_OnlyAggregate(t *testing.T) {
	sets := readFixtures(t, "jh_data_good.csv")

	_, err := etl.Transform(sets)

	var missing *etl.MissingDatasetError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []etl.Role{etl.RoleRegional}, missing.Roles)
	assert.Equal(t, "datasets were not received for regional", err.Error())
}

func TestTransform_MissingColumn(t *testing.T) {
	sets := readFixtures(t, "nyt_data_missing_column.csv")

	_, err := etl.Transform(sets)

	var invalid *etl.InvalidDatasetError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "required columns are missing", invalid.Reason)
}

func TestTransform_NotAFieldMapping(t *testing.T) {
	_, err := etl.Transform([]etl.RowSet{{nil}})

	var invalid *etl.InvalidDatasetError
	require.ErrorAs(t, err, &invalid)
}

func TestClassify_SkipsEmptySets(t *testing.T) {
	sets := readFixtures(t, "jh_data_good.csv", "nyt_data_good.csv")
	sets = append([]etl.RowSet{nil, {}}, sets...)

	c, err := etl.Classify(sets)
	require.NoError(t, err)
	assert.Len(t, c.Aggregate, 28)
	assert.Len(t, c.Regional, 13)
}

func TestClassify_OrderIrrelevant(t *testing.T) {
	sets := readFixtures(t, "nyt_data_good.csv", "jh_data_good.csv")

	c, err := etl.Classify(sets)
	require.NoError(t, err)
	assert.Contains(t, c.Aggregate[0], "Country/Region")
	assert.Contains(t, c.Regional[0], "cases")
}

func TestClassify_SameRoleTwice(t *testing.T) {
	sets := readFixtures(t, "nyt_data_good.csv", "nyt_data_good.csv", "jh_data_good.csv")

	_, err := etl.Classify(sets)

	var invalid *etl.InvalidDatasetError
	require.ErrorAs(t, err, &invalid)
}

func TestClassify_FormatErrorBeforeMissing(t *testing.T) {
	sets := []etl.RowSet{
		{{"date": "2020-01-22", "cases": "1", "deaths": "0"}},
		{{"unexpected": "x"}},
	}

	_, err := etl.Classify(sets)

	var invalid *etl.InvalidDatasetError
	assert.True(t, errors.As(err, &invalid), "got %v", err)
}

func TestClassifyFields(t *testing.T) {
	tests := []struct {
		name   string
		fields []string
		want   etl.Role
		ok     bool
	}{
		{"regional", []string{"date", "cases", "deaths"}, etl.RoleRegional, true},
		{"regional with extras", []string{"fips", "deaths", "cases", "date"}, etl.RoleRegional, true},
		{"aggregate", []string{"Date", "Country/Region", "Province/State", "Lat", "Long", "Confirmed", "Recovered", "Deaths"}, etl.RoleAggregate, true},
		{"aggregate missing Lat", []string{"Date", "Country/Region", "Province/State", "Long", "Confirmed", "Recovered", "Deaths"}, "", false},
		{"case sensitive", []string{"Date", "Cases", "Deaths"}, "", false},
		{"empty", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := etl.ClassifyFields(tt.fields)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
