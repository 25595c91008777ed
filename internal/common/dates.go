package common

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// DisplayDateLayout is the dd/MM/yyyy layout used in list responses and exports.
	DisplayDateLayout = "02/01/2006"
	// ISODateLayout is the yyyy-MM-dd layout used by date inputs and the database.
	ISODateLayout = "2006-01-02"
)

var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

var dateLayouts = []string{
	ISODateLayout,
	"02/01/2006",
	"02-01-2006",
	"2/1/2006",
	"2-1-2006",
	"2006/01/02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDate accepts an Excel serial day number, yyyy-MM-dd, dd/MM/yyyy,
// dd-MM-yyyy and a few ISO timestamp variants. Anything else yields nil.
func ParseDate(v any) *time.Time {
	switch d := v.(type) {
	case nil:
		return nil
	case time.Time:
		if d.IsZero() {
			return nil
		}
		t := truncateDay(d)
		return &t
	case *time.Time:
		if d == nil {
			return nil
		}
		return ParseDate(*d)
	case float64:
		return fromExcelSerial(d)
	case int:
		return fromExcelSerial(float64(d))
	case int64:
		return fromExcelSerial(float64(d))
	case string:
		return parseDateString(d)
	default:
		return nil
	}
}

func parseDateString(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = truncateDay(t)
			return &t
		}
	}
	// Spreadsheet cells sometimes carry the serial as text.
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return fromExcelSerial(n)
	}
	return nil
}

// fromExcelSerial converts days since 1899-12-30. Values below one are not
// dates.
func fromExcelSerial(days float64) *time.Time {
	if math.IsNaN(days) || math.IsInf(days, 0) || days < 1 || days > 2958465 {
		return nil
	}
	t := excelEpoch.AddDate(0, 0, int(math.Floor(days)))
	return &t
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDisplayDate renders t as dd/MM/yyyy, or "" for nil.
func FormatDisplayDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(DisplayDateLayout)
}

// FormatISODate renders t as yyyy-MM-dd, or "" for nil.
func FormatISODate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(ISODateLayout)
}

// OptionalDisplayDate is FormatDisplayDate returning nil instead of "".
func OptionalDisplayDate(t *time.Time) *string {
	return StringPtr(FormatDisplayDate(t))
}

// OptionalISODate is FormatISODate returning nil instead of "".
func OptionalISODate(t *time.Time) *string {
	return StringPtr(FormatISODate(t))
}
