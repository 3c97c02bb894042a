package report

import (
	"fmt"
	"io"
	"strings"

	"palmdash/internal/dataset"
)

// WriteMarkdown writes a markdown summary of the same numbers as the
// workbook.
func WriteMarkdown(w io.Writer, data Data) error {
	var b strings.Builder

	b.WriteString("# Oil palm expansion and non-oil palm deforestation\n")
	b.WriteString("## Study area, Central Peruvian Amazon\n\n")

	b.WriteString("### Summary\n\n")
	writeSeriesSummary(&b, "Non-oil palm deforestation", data.Deforestation)
	writeSeriesSummary(&b, "Oil palm expansion", data.Expansion)
	fmt.Fprintf(&b, "- **Same-year correlation**: %s\n",
		formatCorrelation(correlation(data.Deforestation, data.Expansion)))

	b.WriteString("\n### Area per year (km²)\n\n")
	b.WriteString("| Year | Non-oil palm deforestation | Oil palm expansion |\n")
	b.WriteString("|------|----------------------------|--------------------|\n")
	for _, r := range joinYears(data.Deforestation, data.Expansion) {
		fmt.Fprintf(&b, "| %d | %s | %s |\n", r.Year, cellText(r.Deforestation, r.HasLoss), cellText(r.Expansion, r.HasPalm))
	}

	if len(data.RoadDistance) > 0 || len(data.PalmDistance) > 0 {
		b.WriteString("\n### Mean distance of deforestation (m)\n\n")
		b.WriteString("| Year | To road | To palm |\n")
		b.WriteString("|------|---------|---------|\n")
		for _, r := range joinYears(data.RoadDistance, data.PalmDistance) {
			fmt.Fprintf(&b, "| %d | %s | %s |\n", r.Year, cellText(r.Deforestation, r.HasLoss), cellText(r.Expansion, r.HasPalm))
		}
	}

	if len(data.Layers) > 0 {
		b.WriteString("\n### Mapped polygons\n\n")
		b.WriteString("| Layer | Year | Features | Area (km²) |\n")
		b.WriteString("|-------|------|----------|------------|\n")
		for _, layer := range data.Layers {
			for _, s := range layer.YearStats() {
				fmt.Fprintf(&b, "| %s | %d | %d | %s |\n", layer.Name, s.Year, s.Features, formatNumber(s.AreaKm2))
			}
			if layer.Dropped > 0 {
				fmt.Fprintf(&b, "| %s | no year | %d | - |\n", layer.Name, layer.Dropped)
			}
			if layer.NullShapes > 0 {
				fmt.Fprintf(&b, "| %s | null shape | %d | - |\n", layer.Name, layer.NullShapes)
			}
		}
	}

	if !data.Generated.IsZero() {
		fmt.Fprintf(&b, "\n---\n*Generated %s*\n", data.Generated.Format("2 January 2006"))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeSeriesSummary(b *strings.Builder, name string, totals []dataset.YearTotal) {
	if len(totals) == 0 {
		fmt.Fprintf(b, "- **%s**: no data\n", name)
		return
	}
	s := dataset.Summarize(totals)
	fmt.Fprintf(b, "- **%s**: %s km² over %d-%d, peak %s km² in %d, mean growth %.1f%%\n",
		name, formatNumber(s.Total), s.FirstYear, s.LastYear, formatNumber(s.PeakValue), s.PeakYear, s.MeanGrowth)
}

func cellText(v float64, ok bool) string {
	if !ok {
		return "-"
	}
	return formatNumber(v)
}
