// Package pattern extracts capture dates from camera-style filenames such as
// IMG_2020-05-01_120000.jpg or VID_2019-12-31_235959-1.mp4.
package pattern

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
)

var datedName = regexp.MustCompile(`^(?:(IMG|VID)_)?([12][09][0129][0-9])-([01][0-9])-([0123][0-9])_[0-9]{6}`)

// Date is the capture date embedded in a filename.
type Date struct {
	Year   int
	Month  int
	Day    int
	Prefix string // IMG, VID or empty
}

// YearDir renders the year partition, e.g. "2020".
func (d Date) YearDir() string {
	return fmt.Sprintf("%04d", d.Year)
}

// DayDir renders the day partition, e.g. "2020-05-01".
func (d Date) DayDir() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Matcher recognizes dated filenames.
type Matcher struct {
	re *regexp.Regexp
}

// NewMatcher returns a Matcher for the camera naming convention.
func NewMatcher() *Matcher {
	return &Matcher{re: datedName}
}

// Match reports the date embedded in filename. Only the base name without its
// extension is considered. Text after the time component is allowed.
func (m *Matcher) Match(filename string) (Date, bool) {
	base := filepath.Base(filename)
	stem := base[:len(base)-len(filepath.Ext(base))]
	groups := m.re.FindStringSubmatch(stem)
	if groups == nil {
		return Date{}, false
	}
	year, _ := strconv.Atoi(groups[2])
	month, _ := strconv.Atoi(groups[3])
	day, _ := strconv.Atoi(groups[4])
	return Date{Year: year, Month: month, Day: day, Prefix: groups[1]}, true
}
