package main

import (
	"github.com/spf13/cobra"

	"crowdflow/services"
)

func newCreateCmd(c *cli) *cobra.Command {
	var (
		req            services.PredictionRequest
		alignWeekStart bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Train on recent history and store next week's forecast",
		Long: `Train on the weeks of client counts before --start-date (default today) and
store an hourly forecast for the following week. A forecast for the same
window can only be created once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.forecastService(cmd.Context())
			if err != nil {
				return err
			}
			req.AnchorOnToday = !alignWeekStart
			forecast, err := svc.CreateNextWeekPrediction(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeData(c.stdout, forecast)
		},
	}

	cmd.Flags().StringVar(&req.StartDate, "start-date", "", "reference date (YYYY-MM-DD), defaults to today")
	cmd.Flags().IntVar(&req.NumberOfWeeks, "weeks", 0, "weeks of history to train on (1-52), defaults to FORECAST_DEFAULT_WEEKS")
	cmd.Flags().BoolVar(&alignWeekStart, "align-week-start", true, "start the forecast on the next Monday")
	return cmd
}
