package importer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Spreadsheet serial day-count for 1970-01-01.
const serialEpochOffset = 25569

// Purely numeric strings are only treated as date serials inside this range;
// outside it they are rejected so stray numbers (grid hour values, row
// counters) never turn into calendar dates.
const (
	minPlausibleSerial = 20000
	maxPlausibleSerial = 80000
)

var (
	isoDateRe   = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	slashDateRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	numericRe   = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	clockRe     = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?\s*([AaPp][Mm])?$`)
	compactRe   = regexp.MustCompile(`^(\d{3,4})$`)
)

var fallbackDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"02.01.2006",
}

// ParseDate converts one heterogeneous date cell into a local-time point.
//
// Numeric cells are spreadsheet serial day-counts. Numeric strings follow the
// serial rule only inside the plausible range and are otherwise rejected
// outright rather than falling through to generic parsing. ISO and slash
// forms construct local dates explicitly; genuinely ambiguous slash dates
// (both components <= 12) default to the US month/day convention.
func ParseDate(v Value, loc *time.Location) (time.Time, error) {
	if v.HasTime {
		return v.Time, nil
	}

	raw := strings.TrimSpace(v.Text)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date value")
	}

	if numericRe.MatchString(raw) {
		serial, err := strconv.ParseFloat(raw, 64)
		if err != nil || serial < minPlausibleSerial || serial > maxPlausibleSerial {
			return time.Time{}, fmt.Errorf("numeric value %q is not a plausible date serial", raw)
		}
		return serialToTime(serial, loc), nil
	}

	if m := isoDateRe.FindStringSubmatch(raw); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return makeLocalDate(year, month, day, loc)
	}

	if m := slashDateRe.FindStringSubmatch(raw); m != nil {
		first, _ := strconv.Atoi(m[1])
		second, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])

		month, day := first, second
		if first > 12 {
			// First component cannot be a month, so this is day/month/year.
			month, day = second, first
		}
		return makeLocalDate(year, month, day, loc)
	}

	for _, layout := range fallbackDateLayouts {
		if parsed, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return parsed, nil
		}
	}

	return time.Time{}, fmt.Errorf("unsupported date format %q", raw)
}

func serialToTime(serial float64, loc *time.Location) time.Time {
	ms := int64(math.Round((serial - serialEpochOffset) * 86400000))
	utc := time.UnixMilli(ms).UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), utc.Hour(), utc.Minute(), 0, 0, loc)
}

func makeLocalDate(year, month, day int, loc *time.Location) (time.Time, error) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("date components out of range: %04d-%02d-%02d", year, month, day)
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc), nil
}

// ParseTimeOfDay reads a clock value ("9:30", "14:30:15", "2:30 PM", "0930")
// and combines it onto the given day's local calendar date, zeroing seconds.
func ParseTimeOfDay(day time.Time, v Value) (time.Time, error) {
	raw := strings.TrimSpace(v.Text)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}

	var hour, minute int
	if m := clockRe.FindStringSubmatch(raw); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		switch strings.ToUpper(m[4]) {
		case "PM":
			if hour != 12 {
				hour += 12
			}
		case "AM":
			if hour == 12 {
				hour = 0
			}
		}
	} else if m := compactRe.FindStringSubmatch(raw); m != nil {
		compact, _ := strconv.Atoi(m[1])
		hour = compact / 100
		minute = compact % 100
	} else {
		return time.Time{}, fmt.Errorf("unsupported time format %q", raw)
	}

	if hour > 23 || minute > 59 {
		return time.Time{}, fmt.Errorf("time components out of range in %q", raw)
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location()), nil
}

// DurationMinutes is the whole-minute difference between two local
// timestamps. Validity (positive, granularity) is a caller concern.
func DurationMinutes(start, end time.Time) int {
	return int(end.Sub(start).Milliseconds() / 60000)
}
