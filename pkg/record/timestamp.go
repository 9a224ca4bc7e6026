package record

import (
	"fmt"
	"time"
)

// TimeLayout is the file-system safe ISO-8601 layout used for the "time" field.
const TimeLayout = "20060102T150405Z"

var timeLayouts = []string{
	TimeLayout,
	"2006-01-02T15-04-05",
	"2006-01-02T15-04-05Z",
	time.RFC3339,
}

// FormatTime renders t in TimeLayout, in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Now returns the current time in TimeLayout.
func Now() string {
	return FormatTime(time.Now())
}

// ParseTime accepts TimeLayout, the dashed variant (2024-01-01T12-00-00) and RFC 3339.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

// ParsedTime parses the version's time field.
func (v Version) ParsedTime() (time.Time, error) {
	return ParseTime(v.Time)
}
