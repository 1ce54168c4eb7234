package main

import (
	"github.com/spf13/cobra"

	"crowdflow/models"
	"crowdflow/repository"
	"crowdflow/services"
)

func newWeatherCmd(c *cli) *cobra.Command {
	var (
		forecastType string
		startDate    string
		endDate      string
	)

	cmd := &cobra.Command{
		Use:   "weather",
		Short: "List stored weather observations for a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, err := models.ParseWeatherForecastType(forecastType)
			if err != nil {
				return &services.Error{Kind: services.KindValidation, Message: err.Error()}
			}
			start, err := services.ValidateDate("start_date", startDate)
			if err != nil {
				return err
			}
			end, err := services.ValidateDate("end_date", endDate)
			if err != nil {
				return err
			}
			if end.Before(start) {
				return &services.Error{Kind: services.KindValidation, Message: "end_date must not be before start_date"}
			}

			pool, err := c.connect(cmd.Context())
			if err != nil {
				return err
			}
			repo := repository.NewSampleRepository(pool, c.cfg.Forecast.SampleLimit)
			// end date is inclusive
			observations, err := repo.GetWeather(cmd.Context(), kind, start, end.AddDate(0, 0, 1).Add(-1))
			if err != nil {
				return err
			}
			if observations == nil {
				observations = []models.WeatherObservation{}
			}
			return writeData(c.stdout, observations)
		},
	}

	cmd.Flags().StringVar(&forecastType, "type", string(models.WeatherHourly), "forecast type (HOURLY or FIVE_DAYS_THREE_HOUR)")
	cmd.Flags().StringVar(&startDate, "start-date", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end-date", "", "last day (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("start-date")
	_ = cmd.MarkFlagRequired("end-date")
	return cmd
}
