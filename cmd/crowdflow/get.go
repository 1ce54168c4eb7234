package main

import (
	"time"

	"github.com/spf13/cobra"

	"crowdflow/models"
)

// tableRow is a prediction point with a readable timestamp.
type tableRow struct {
	Timestamp            time.Time `json:"timestamp"`
	DayOfWeek            int       `json:"day_of_week"`
	HourOfDay            int       `json:"hour_of_day"`
	IsWeekend            int       `json:"is_weekend"`
	PredictedClientCount float64   `json:"predicted_client_count"`
}

func toTable(points []models.PredictionPoint) []tableRow {
	rows := make([]tableRow, len(points))
	for i, p := range points {
		rows[i] = tableRow{
			Timestamp:            p.Timestamp.UTC(),
			DayOfWeek:            p.DayOfWeek,
			HourOfDay:            p.HourOfDay,
			IsWeekend:            p.IsWeekend,
			PredictedClientCount: p.PredictedClientCount,
		}
	}
	return rows
}

func newGetCmd(c *cli) *cobra.Command {
	var (
		startDate string
		endDate   string
		raw       bool
	)

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show the stored forecast for a window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.forecastService(cmd.Context())
			if err != nil {
				return err
			}
			if raw {
				points, err := svc.GetCrowdForecastTable(cmd.Context(), startDate, endDate)
				if err != nil {
					return err
				}
				return writeData(c.stdout, toTable(points))
			}
			forecast, err := svc.GetCrowdForecast(cmd.Context(), startDate, endDate)
			if err != nil {
				return err
			}
			return writeData(c.stdout, forecast)
		},
	}

	cmd.Flags().StringVar(&startDate, "start-date", "", "first forecast day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end-date", "", "last forecast day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the hourly prediction table instead of the stored record")
	_ = cmd.MarkFlagRequired("start-date")
	_ = cmd.MarkFlagRequired("end-date")
	return cmd
}
