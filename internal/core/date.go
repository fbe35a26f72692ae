package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// dateLayout is the wire format for calendar dates (YYYY-MM-DD).
const dateLayout = "2006-01-02"

// Date is a calendar day. All report boundaries compare by calendar day
// only: the time of day is stripped, so two transactions on the same day at
// different times always fall on the same side of a boundary.
type Date struct {
	time.Time
}

// NewDate builds a Date for the given year, month and day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its UTC calendar day.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

// Today returns the current UTC calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t.UTC()}, nil
}

// PrevDay returns the calendar day immediately before d. The opening
// balance of any period is the balance as of PrevDay of its first day.
func (d Date) PrevDay() Date {
	return Date{Time: d.AddDate(0, 0, -1)}
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ValidateAmount checks that a monetary amount is positive and carries at
// most two decimal places. Amounts are persisted as integer minor units, so
// finer precision would be silently lost.
func ValidateAmount(a decimal.Decimal) error {
	if !a.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be greater than 0"}
	}
	if !a.Equal(a.Round(2)) {
		return &ValidationError{Field: "amount", Reason: "must have at most 2 decimal places"}
	}
	return nil
}

// AmountToMinorUnits converts a validated amount to integer minor units.
func AmountToMinorUnits(a decimal.Decimal) int64 {
	return a.Shift(2).IntPart()
}

// AmountFromMinorUnits converts integer minor units back to a decimal amount.
func AmountFromMinorUnits(n int64) decimal.Decimal {
	return decimal.New(n, -2)
}
