package utils

import (
	"strings"
	"time"

	"github.com/otd-mx/ordenes-api/models"
)

// Text layouts accepted for date cells that were typed in by hand.
// Numeric layouts are all day first.
var DateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02-01-06",
}

// Now is swapped in tests
var Now = time.Now

// Today returns the current calendar day in local time
func Today() models.Date {
	return models.DateOf(Now())
}

// ParseDateText tries each of DateLayouts in turn
func ParseDateText(value string) (models.Date, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return models.Date{}, false
	}
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return models.DateOf(t), true
		}
	}
	return models.Date{}, false
}

// FormatDate renders an optional date, empty when absent
func FormatDate(d *models.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}
