package main

import (
	"github.com/spf13/cobra"

	"github.com/lifelens/lifelens-cli/internal/engine"
	"github.com/lifelens/lifelens-cli/internal/forecast"
)

var (
	forecastInput    string
	forecastScenario string
	forecastHorizon  int
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Project metrics and risks forward if nothing changes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		in, err := loadInput(cmd.InOrStdin(), forecastInput, forecastScenario)
		if err != nil {
			return err
		}

		drivers := engine.DeriveDrivers(in)
		f, err := buildForecaster(initGenerator()).Simulate(cmd.Context(), forecast.Request{
			TodayMetrics:  forecast.TodayMetrics(drivers),
			HorizonMonths: forecastHorizon,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), f)
	},
}

func init() {
	forecastCmd.Flags().StringVar(&forecastInput, "input", "", "path to a RawHealthInput JSON file (- for stdin)")
	forecastCmd.Flags().StringVar(&forecastScenario, "scenario", "", "name of a built-in scenario")
	forecastCmd.Flags().IntVar(&forecastHorizon, "horizon", forecast.DefaultHorizonMonths, "horizon in months (1-480)")
	rootCmd.AddCommand(forecastCmd)
}
