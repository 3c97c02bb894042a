package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

var errNotIntegral = errors.New("year is not a whole number")

// Observation is one row of a tabular dataset: a spatial unit in a given year.
type Observation struct {
	Year  int
	Area  float64
	Extra map[string]float64
}

// Schema names the columns read from a tabular file. Extra columns are
// optional; they are loaded when present and ignored otherwise.
type Schema struct {
	YearColumn string
	AreaColumn string
	Extra      []string
}

// Table is an immutable set of observations read from one file.
type Table struct {
	Source     string
	YearColumn string
	AreaColumn string
	Extra      []string
	Rows       []Observation
}

// LoadCSV reads a comma separated file with a header row.
func LoadCSV(path string, schema Schema) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	return ReadCSV(file, path, schema)
}

// ReadCSV parses tabular observations from r. Rows with a blank year or a
// blank or NaN area are skipped; any other unreadable value fails the read.
func ReadCSV(r io.Reader, source string, schema Schema) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ColumnError{Source: source, Column: schema.YearColumn}
		}
		return nil, fmt.Errorf("read header of %s: %w", source, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	yearIdx, ok := index[schema.YearColumn]
	if !ok {
		return nil, &ColumnError{Source: source, Column: schema.YearColumn}
	}
	areaIdx, ok := index[schema.AreaColumn]
	if !ok {
		return nil, &ColumnError{Source: source, Column: schema.AreaColumn}
	}

	extraIdx := make(map[string]int)
	var extra []string
	for _, name := range schema.Extra {
		if i, ok := index[name]; ok {
			extraIdx[name] = i
			extra = append(extra, name)
		}
	}

	table := &Table{
		Source:     source,
		YearColumn: schema.YearColumn,
		AreaColumn: schema.AreaColumn,
		Extra:      extra,
	}

	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", source, err)
		}

		yearRaw := cell(record, yearIdx)
		areaRaw := cell(record, areaIdx)
		if yearRaw == "" {
			continue
		}

		year, err := parseYear(yearRaw)
		if err != nil {
			return nil, &ParseError{Source: source, Line: line, Column: schema.YearColumn, Value: yearRaw, Err: err}
		}
		// A missing area keeps the year in the series with nothing added.
		var area float64
		if areaRaw != "" {
			area, err = strconv.ParseFloat(areaRaw, 64)
			if err != nil {
				return nil, &ParseError{Source: source, Line: line, Column: schema.AreaColumn, Value: areaRaw, Err: err}
			}
			if math.IsNaN(area) {
				area = 0
			}
		}

		obs := Observation{Year: year, Area: area}
		for name, i := range extraIdx {
			raw := cell(record, i)
			if raw == "" {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, &ParseError{Source: source, Line: line, Column: name, Value: raw, Err: err}
			}
			if obs.Extra == nil {
				obs.Extra = make(map[string]float64, len(extraIdx))
			}
			obs.Extra[name] = v
		}

		table.Rows = append(table.Rows, obs)
	}

	return table, nil
}

func cell(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// parseYear accepts "2005" as well as the "2005.0" pandas writes for float columns.
func parseYear(raw string) (int, error) {
	if year, err := strconv.Atoi(raw); err == nil {
		return year, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, errNotIntegral
	}
	return int(f), nil
}
