package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDate(t *testing.T) {
	d, err := ValidateDate("start_date", "2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)

	for _, bad := range []string{"2023-02-29", "2024-1-05", "20240105", "2024-01-05T00:00:00Z", " 2024-01-05", "tomorrow"} {
		t.Run(bad, func(t *testing.T) {
			_, err := ValidateDate("start_date", bad)
			require.Error(t, err)
			assert.Equal(t, KindValidation, KindOf(err))
			assert.Equal(t, "Incorrect date format for parameter start_date, expected format is YYYY-MM-DD", err.Error())
		})
	}
}

func TestValidateDateEmpty(t *testing.T) {
	_, err := ValidateDate("end_date", "")
	require.Error(t, err)
	assert.Equal(t, "Parameter end_date cannot be empty", MessageOf(err))
}

func TestValidateWeeks(t *testing.T) {
	assert.NoError(t, validateWeeks(1))
	assert.NoError(t, validateWeeks(52))
	assert.Error(t, validateWeeks(0))
	assert.Error(t, validateWeeks(53))
}
