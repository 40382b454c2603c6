package utils

import (
	"time"
)

func FormatDate(date time.Time) string {
	return date.Format("2006-01-02")
}

func ValidateDate(date string) bool {
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

// NextWeek is the default start date for a new subscription when the caller
// does not supply one.
func NextWeek() time.Time {
	return time.Now().AddDate(0, 0, 7)
}
