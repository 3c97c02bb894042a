package cmd

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"palmdash/internal/report"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the dashboard numbers to an .xlsx workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		dash, err := newDashboard(prometheus.NewRegistry())
		if err != nil {
			return err
		}
		data, err := dash.Report()
		if err != nil {
			return err
		}
		if err := writeFile(exportOut, func(f *os.File) error { return report.WriteWorkbook(f, data) }); err != nil {
			return err
		}
		fmt.Printf("%s (%d years of deforestation, %d years of expansion)\n",
			exportOut, len(data.Deforestation), len(data.Expansion))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "palmdash.xlsx", "output workbook")
}
