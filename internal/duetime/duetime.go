// Package duetime turns a reminder time typed by a user into an absolute
// due time. It accepts either a relative phrase such as "in 2 hours" or an
// absolute "YYYY-MM-DD HH:MM" literal.
package duetime

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layout is the only accepted absolute format.
const Layout = "2006-01-02 15:04"

var reRelative = regexp.MustCompile(`(?i)^\s*in\s+(\d+)\s*(hour\w*|hr\w*|min\w*)`)

// ParseError reports text that is neither a relative phrase nor an absolute time.
type ParseError struct {
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot read %q as a time: %v", e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Resolve returns the absolute time described by text.
// Relative phrases count from now; absolute literals are read in loc with no
// further conversion. Past times are not rejected.
func Resolve(text string, now time.Time, loc *time.Location) (time.Time, error) {
	if m := reRelative.FindStringSubmatch(text); m != nil {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return time.Time{}, &ParseError{Text: text, Err: err}
		}
		unit := time.Minute
		if u := strings.ToLower(m[2]); strings.HasPrefix(u, "h") {
			unit = time.Hour
		}
		if n > int64(1<<63-1)/int64(unit) {
			return time.Time{}, &ParseError{Text: text, Err: errors.New("offset too large")}
		}
		return now.Add(time.Duration(n) * unit), nil
	}

	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(Layout, strings.TrimSpace(text), loc)
	if err != nil {
		return time.Time{}, &ParseError{Text: text, Err: err}
	}
	return t, nil
}
