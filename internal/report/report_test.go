package report

import (
	"bytes"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/xuri/excelize/v2"

	"palmdash/internal/dataset"
	"palmdash/internal/spatial"
)

func sampleData() Data {
	return Data{
		Deforestation: []dataset.YearTotal{{Year: 2001, Value: 3}, {Year: 2002, Value: 5}},
		Expansion:     []dataset.YearTotal{{Year: 2001, Value: 0.75}, {Year: 2003, Value: 1}, {Year: 2005, Value: 2}},
		RoadDistance:  []dataset.YearTotal{{Year: 2001, Value: 200}, {Year: 2002, Value: 200}},
		PalmDistance:  []dataset.YearTotal{{Year: 2001, Value: 300}},
		Layers: []*spatial.Layer{{
			Name:       "deforestation",
			CRS:        spatial.Geographic{},
			Dropped:    1,
			NullShapes: 2,
			Features: []spatial.Feature{{
				ID:   0,
				Year: 2001,
				Geometry: orb.MultiPolygon{{{
					{-74.75, -8.55}, {-74.75, -8.54}, {-74.74, -8.54}, {-74.74, -8.55}, {-74.75, -8.55},
				}}},
			}},
		}},
		Generated: time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestJoinYears(t *testing.T) {
	d := sampleData()
	rows := joinYears(d.Deforestation, d.Expansion)

	var years []int
	for _, r := range rows {
		years = append(years, r.Year)
	}
	if want := []int{2001, 2002, 2003, 2005}; !reflect.DeepEqual(years, want) {
		t.Fatalf("expected years %v, got %v", want, years)
	}
	if !rows[0].HasLoss || !rows[0].HasPalm || rows[1].HasPalm || rows[2].HasLoss {
		t.Fatalf("unexpected presence flags %+v", rows)
	}
}

func TestCorrelation(t *testing.T) {
	up := []dataset.YearTotal{{Year: 1, Value: 1}, {Year: 2, Value: 2}, {Year: 3, Value: 3}}
	down := []dataset.YearTotal{{Year: 1, Value: 6}, {Year: 2, Value: 4}, {Year: 3, Value: 2}}

	if r := correlation(up, up); math.Abs(r-1) > 1e-12 {
		t.Fatalf("expected 1, got %v", r)
	}
	if r := correlation(up, down); math.Abs(r+1) > 1e-12 {
		t.Fatalf("expected -1, got %v", r)
	}
	xs := []dataset.YearTotal{{Year: 1, Value: 1}, {Year: 2, Value: 2}, {Year: 3, Value: 3}, {Year: 4, Value: 4}}
	ys := []dataset.YearTotal{{Year: 1, Value: 2}, {Year: 2, Value: 1}, {Year: 3, Value: 4}, {Year: 4, Value: 3}}
	if r := correlation(xs, ys); math.Abs(r-0.6) > 1e-12 {
		t.Fatalf("expected 0.6, got %v", r)
	}
	flat := []dataset.YearTotal{{Year: 1, Value: 5}, {Year: 2, Value: 5}, {Year: 3, Value: 5}}
	if r := correlation(up, flat); !math.IsNaN(r) {
		t.Fatalf("expected NaN for a constant series, got %v", r)
	}
	d := sampleData()
	if r := correlation(d.Deforestation, d.Expansion); !math.IsNaN(r) {
		t.Fatalf("expected NaN with one shared year, got %v", r)
	}
}

func TestFormatNumber(t *testing.T) {
	cases := map[float64]string{
		0.75:      "0.75",
		1500:      "1.5K",
		2_500_000: "2.50M",
	}
	for in, want := range cases {
		if got := formatNumber(in); got != want {
			t.Errorf("formatNumber(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, sampleData()); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	want := []string{SummarySheet, TimeSeriesSheet, DistancesSheet, LayersSheet}
	if got := f.GetSheetList(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected sheets %v, got %v", want, got)
	}

	cells := []struct {
		sheet, cell, want string
	}{
		{SummarySheet, "A2", "Non-oil palm deforestation"},
		{SummarySheet, "E2", "8"},
		{SummarySheet, "F2", "2002"},
		{SummarySheet, "B5", "n/a"},
		{TimeSeriesSheet, "A2", "2001"},
		{TimeSeriesSheet, "B2", "3"},
		{TimeSeriesSheet, "C2", "0.75"},
		{TimeSeriesSheet, "C3", ""},
		{TimeSeriesSheet, "A5", "2005"},
		{DistancesSheet, "B2", "200"},
		{DistancesSheet, "C3", ""},
		{LayersSheet, "A2", "deforestation"},
		{LayersSheet, "C2", "1"},
		{LayersSheet, "B3", "no year"},
		{LayersSheet, "C3", "1"},
		{LayersSheet, "B4", "null shape"},
		{LayersSheet, "C4", "2"},
	}
	for _, c := range cells {
		got, err := f.GetCellValue(c.sheet, c.cell)
		if err != nil {
			t.Fatalf("%s!%s: %v", c.sheet, c.cell, err)
		}
		if got != c.want {
			t.Errorf("%s!%s = %q, want %q", c.sheet, c.cell, got, c.want)
		}
	}
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, sampleData()); err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"**Non-oil palm deforestation**: 8.00 km² over 2001-2002, peak 5.00 km² in 2002",
		"| 2003 | - | 1.00 |",
		"| 2002 | 200.00 | - |",
		"| deforestation | no year | 1 | - |",
		"| deforestation | null shape | 2 | - |",
		"*Generated 15 October 2026*",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
}
