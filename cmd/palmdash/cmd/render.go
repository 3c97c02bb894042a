package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"palmdash/internal/chart"
	"palmdash/internal/pipeline"
	"palmdash/internal/report"
)

var (
	renderOut    string
	renderFormat string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Write the three charts and a markdown summary",
	Long: `Render the deforestation map, the expansion map and the time series to
files in the output directory, together with summary.md.

Examples:
  palmdash render --out charts
  palmdash render --out charts --format png`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !chart.SupportedFormat(renderFormat) {
			return fmt.Errorf("%q: %w", renderFormat, chart.ErrUnknownFormat)
		}
		if err := os.MkdirAll(renderOut, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", renderOut, err)
		}

		dash, err := newDashboard(prometheus.NewRegistry())
		if err != nil {
			return err
		}

		for _, name := range pipeline.Names {
			c, err := dash.Chart(name)
			if err != nil {
				return err
			}
			path := filepath.Join(renderOut, name+"."+renderFormat)
			if err := writeFile(path, func(f *os.File) error { return c.Render(f, renderFormat) }); err != nil {
				return err
			}
			fmt.Printf("%s\n", path)
		}

		data, err := dash.Report()
		if err != nil {
			return err
		}
		path := filepath.Join(renderOut, "summary.md")
		if err := writeFile(path, func(f *os.File) error { return report.WriteMarkdown(f, data) }); err != nil {
			return err
		}
		fmt.Printf("%s\n", path)
		return nil
	},
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", ".", "output directory")
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "svg", "chart format: svg, png or pdf")
}
