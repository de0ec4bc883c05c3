package utils

import (
	"strings"
	"time"
)

// ParseDate parses a date string from an accounting export. It accepts
// ISO YYYY-MM-DD, US M/D/YYYY and MM/DD/YYYY, and M-D-YYYY. A 2-digit
// year is expanded with a pivot: >50 becomes 19xx, <=50 becomes 20xx.
// Returns false if nothing matches; the caller decides fatal vs skip.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	var layouts []string
	switch {
	case strings.Contains(s, "/"):
		layouts = []string{"1/2/2006", "1/2/06"}
	case strings.Contains(s, "-"):
		// A 4-digit leading segment is ISO; otherwise it is the US
		// dash form, possibly with a 2-digit year.
		if i := strings.Index(s, "-"); i == 4 {
			layouts = []string{"2006-01-02"}
		} else {
			layouts = []string{"1-2-2006", "1-2-06"}
		}
	default:
		return time.Time{}, false
	}

	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if twoDigitYear(layout) {
			t = expandCentury(t, s)
		}
		return t, true
	}
	return time.Time{}, false
}

func twoDigitYear(layout string) bool {
	return strings.HasSuffix(layout, "06") && !strings.HasSuffix(layout, "2006")
}

// expandCentury applies the >50/<=50 pivot. time.Parse already expands
// "06" as 19xx for 69-99 and 20xx for 00-68, so only the 51-68 band
// needs re-mapping onto the last century.
func expandCentury(t time.Time, raw string) time.Time {
	sep := "/"
	if strings.Contains(raw, "-") {
		sep = "-"
	}
	parts := strings.Split(raw, sep)
	if len(parts) != 3 || len(parts[2]) != 2 {
		return t
	}
	yy := int(parts[2][0]-'0')*10 + int(parts[2][1]-'0')
	want := 2000 + yy
	if yy > 50 {
		want = 1900 + yy
	}
	if t.Year() != want {
		t = time.Date(want, t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
	return t
}
