package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const yearMonthLayout = "2006-01"

// YearMonth is a payroll competency period such as 2026-09
type YearMonth struct {
	Year  int
	Month time.Month
}

// NewYearMonth validates and builds a YearMonth
func NewYearMonth(year int, month time.Month) (YearMonth, error) {
	if year < 1900 || year > 9999 {
		return YearMonth{}, fmt.Errorf("invalid year %d", year)
	}
	if month < time.January || month > time.December {
		return YearMonth{}, fmt.Errorf("invalid month %d", month)
	}
	return YearMonth{Year: year, Month: month}, nil
}

// YearMonthOf returns the competency containing t
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// ParseYearMonth parses the YYYY-MM form
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse(yearMonthLayout, s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid competency %q, expected YYYY-MM", s)
	}
	return YearMonthOf(t), nil
}

// IsZero reports whether the value is unset
func (ym YearMonth) IsZero() bool {
	return ym.Year == 0 && ym.Month == 0
}

// String returns the YYYY-MM form
func (ym YearMonth) String() string {
	if ym.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// FirstDay returns the first day of the month in UTC
func (ym YearMonth) FirstDay() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

// MarshalJSON implements json.Marshaler
func (ym YearMonth) MarshalJSON() ([]byte, error) {
	return json.Marshal(ym.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (ym *YearMonth) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*ym = YearMonth{}
		return nil
	}
	parsed, err := ParseYearMonth(s)
	if err != nil {
		return err
	}
	*ym = parsed
	return nil
}

// Value implements driver.Valuer
func (ym YearMonth) Value() (driver.Value, error) {
	return ym.String(), nil
}

// Scan implements sql.Scanner
func (ym *YearMonth) Scan(value any) error {
	var s string
	switch v := value.(type) {
	case nil:
		*ym = YearMonth{}
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into YearMonth", value)
	}
	parsed, err := ParseYearMonth(s)
	if err != nil {
		return err
	}
	*ym = parsed
	return nil
}
