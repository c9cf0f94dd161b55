package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/consultai/internal/insights"
)

var insightsForecast bool

var insightsCmd = &cobra.Command{
	Use:   "insights <kpi-file>",
	Short: "Analyze a KPI export (CSV or XLSX) and print the results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrap(err, "insights: read file")
		}

		frame, err := insights.LoadUpload(filepath.Base(args[0]), data)
		if err != nil {
			return err
		}

		result, err := buildAnalyzer().Analyze(frame, insights.Options{IncludeForecast: insightsForecast})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return eris.Wrap(err, "insights: encode result")
		}

		cmd.Println(insights.Summary(result))
		return nil
	},
}

func init() {
	insightsCmd.Flags().BoolVar(&insightsForecast, "forecast", true, "include a revenue forecast")
	rootCmd.AddCommand(insightsCmd)
}
