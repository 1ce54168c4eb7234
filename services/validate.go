package services

import (
	"fmt"
	"regexp"
	"time"
)

const (
	DateLayout = "2006-01-02"
	MaxWeeks   = 52
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidateDate parses a YYYY-MM-DD parameter as midnight UTC.
func ValidateDate(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, validationError(fmt.Sprintf("Parameter %s cannot be empty", name))
	}
	if datePattern.MatchString(value) {
		if d, err := time.Parse(DateLayout, value); err == nil {
			return d, nil
		}
	}
	return time.Time{}, validationError(fmt.Sprintf("Incorrect date format for parameter %s, expected format is YYYY-MM-DD", name))
}

func validateWeeks(weeks int) error {
	if weeks < 1 || weeks > MaxWeeks {
		return validationError(fmt.Sprintf("Parameter number_of_weeks must be between 1 and %d, got %d", MaxWeeks, weeks))
	}
	return nil
}
