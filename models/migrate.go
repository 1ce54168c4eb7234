package models

import "gorm.io/gorm"

// AutoMigrate creates or updates every table the forecast pipeline reads or writes.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&ClientSample{}, &WeatherObservation{}, &CrowdForecast{})
}
