package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"palmdash/internal/dataset"
)

// Sheet names of the exported workbook.
const (
	SummarySheet    = "Summary"
	TimeSeriesSheet = "Time_Series"
	DistancesSheet  = "Distances"
	LayersSheet     = "Layers"
)

// WriteWorkbook writes the yearly series, distances and layer statistics as
// an .xlsx workbook.
func WriteWorkbook(w io.Writer, data Data) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{TimeSeriesSheet, DistancesSheet, LayersSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	writeSummary(f, data)
	writeTimeSeries(f, data)
	writeDistances(f, data)
	writeLayers(f, data)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeHeaders(f *excelize.File, sheet string, headers []string, width float64) {
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheet, cell, header)
		f.SetColWidth(sheet, col, col, width)
	}
}

func writeSummary(f *excelize.File, data Data) {
	writeHeaders(f, SummarySheet, []string{"Series", "First Year", "Last Year", "Years",
		"Total Area (km²)", "Peak Year", "Peak Area (km²)", "Mean Growth (%)"}, 20)

	series := []struct {
		name   string
		totals []dataset.YearTotal
	}{
		{"Non-oil palm deforestation", data.Deforestation},
		{"Oil palm expansion", data.Expansion},
	}
	for i, s := range series {
		row := i + 2
		sum := dataset.Summarize(s.totals)
		f.SetCellValue(SummarySheet, fmt.Sprintf("A%d", row), s.name)
		f.SetCellValue(SummarySheet, fmt.Sprintf("B%d", row), sum.FirstYear)
		f.SetCellValue(SummarySheet, fmt.Sprintf("C%d", row), sum.LastYear)
		f.SetCellValue(SummarySheet, fmt.Sprintf("D%d", row), sum.Years)
		f.SetCellValue(SummarySheet, fmt.Sprintf("E%d", row), sum.Total)
		f.SetCellValue(SummarySheet, fmt.Sprintf("F%d", row), sum.PeakYear)
		f.SetCellValue(SummarySheet, fmt.Sprintf("G%d", row), sum.PeakValue)
		f.SetCellValue(SummarySheet, fmt.Sprintf("H%d", row), fmt.Sprintf("%.1f%%", sum.MeanGrowth))
	}

	f.SetCellValue(SummarySheet, "A5", "Correlation (same-year)")
	f.SetCellValue(SummarySheet, "B5", formatCorrelation(correlation(data.Deforestation, data.Expansion)))
	if !data.Generated.IsZero() {
		f.SetCellValue(SummarySheet, "A6", "Generated")
		f.SetCellValue(SummarySheet, "B6", data.Generated.Format("2 January 2006"))
	}
}

func writeTimeSeries(f *excelize.File, data Data) {
	writeHeaders(f, TimeSeriesSheet, []string{"Year",
		"Non-oil palm deforestation (km²)", "Oil palm expansion (km²)"}, 30)

	for i, r := range joinYears(data.Deforestation, data.Expansion) {
		row := i + 2
		f.SetCellValue(TimeSeriesSheet, fmt.Sprintf("A%d", row), r.Year)
		if r.HasLoss {
			f.SetCellValue(TimeSeriesSheet, fmt.Sprintf("B%d", row), r.Deforestation)
		}
		if r.HasPalm {
			f.SetCellValue(TimeSeriesSheet, fmt.Sprintf("C%d", row), r.Expansion)
		}
	}
}

func writeDistances(f *excelize.File, data Data) {
	writeHeaders(f, DistancesSheet, []string{"Year",
		"Mean distance to road (m)", "Mean distance to palm (m)"}, 28)

	for i, r := range joinYears(data.RoadDistance, data.PalmDistance) {
		row := i + 2
		f.SetCellValue(DistancesSheet, fmt.Sprintf("A%d", row), r.Year)
		if r.HasLoss {
			f.SetCellValue(DistancesSheet, fmt.Sprintf("B%d", row), r.Deforestation)
		}
		if r.HasPalm {
			f.SetCellValue(DistancesSheet, fmt.Sprintf("C%d", row), r.Expansion)
		}
	}
}

func writeLayers(f *excelize.File, data Data) {
	writeHeaders(f, LayersSheet, []string{"Layer", "Year", "Features", "Area (km²)"}, 18)

	row := 2
	for _, layer := range data.Layers {
		for _, s := range layer.YearStats() {
			f.SetCellValue(LayersSheet, fmt.Sprintf("A%d", row), layer.Name)
			f.SetCellValue(LayersSheet, fmt.Sprintf("B%d", row), s.Year)
			f.SetCellValue(LayersSheet, fmt.Sprintf("C%d", row), s.Features)
			f.SetCellValue(LayersSheet, fmt.Sprintf("D%d", row), s.AreaKm2)
			row++
		}
		for _, skipped := range []struct {
			label string
			count int
		}{
			{"no year", layer.Dropped},
			{"null shape", layer.NullShapes},
		} {
			if skipped.count == 0 {
				continue
			}
			f.SetCellValue(LayersSheet, fmt.Sprintf("A%d", row), layer.Name)
			f.SetCellValue(LayersSheet, fmt.Sprintf("B%d", row), skipped.label)
			f.SetCellValue(LayersSheet, fmt.Sprintf("C%d", row), skipped.count)
			row++
		}
	}
}
