package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the fixed number of decimal places every stored amount carries.
const MoneyPlaces = 2

// GenerateUUIDWithSuffix generates a UUID with a given module name as a prefix, e.g. acc_<uuid>.
func GenerateUUIDWithSuffix(module string) string {
	id := uuid.New()
	return fmt.Sprintf("%s_%s", module, id.String())
}

// Actor identifies the administrator performing an operation, for audit attribution.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// HasMoneyPrecision reports whether amount has at most two decimal places.
func HasMoneyPrecision(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(MoneyPlaces))
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts whole calendar days from from to to. Negative spans count as zero.
func DaysBetween(from, to time.Time) int {
	days := int(DateOf(to).Sub(DateOf(from)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
