// Package timeparse infers meeting time ranges from Korean free text.
package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layout is the local date-time format produced by the parsers.
const Layout = "2006-01-02T15:04:05"

var (
	// "8/29 13시~17시", "8.29 13시 ~ 17시"
	monthDayHours = regexp.MustCompile(`(\d{1,2})[./-](\d{1,2}).*?(\d{1,2})\s*시\s*~\s*(\d{1,2})\s*시`)
	// "10시부터 11시까지", "13시~17시"
	hoursOnly = regexp.MustCompile(`(\d{1,2})\s*시\s*(?:~|부터)\s*(\d{1,2})\s*시`)

	timeMarkers = regexp.MustCompile(`(시|부터|까지|~|:)`)
	koreanDate  = regexp.MustCompile(`(?:(\d{4})\s*년\s*)?(\d{1,2})\s*월\s*(\d{1,2})\s*일`)
	numericDate = regexp.MustCompile(`(?:(\d{4})[./-])?(\d{1,2})[./-](\d{1,2})`)
)

var relativeDays = []struct {
	word   string
	offset int
}{
	{"어제", -1},
	{"오늘", 0},
	{"내일", 1},
}

// Parser implements ports.TimeRangeParser in a fixed location.
type Parser struct {
	loc *time.Location
	now func() time.Time
}

// Option configures a Parser.
type Option func(*Parser)

// WithLocation sets the time zone dates are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(p *Parser) { p.loc = loc }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// New creates a Parser. The default location is Asia/Seoul, falling back to
// a fixed +09:00 zone when the tz database is unavailable.
func New(opts ...Option) *Parser {
	p := &Parser{loc: KST(), now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// KST returns the Korea Standard Time location.
func KST() *time.Location {
	if loc, err := time.LoadLocation("Asia/Seoul"); err == nil {
		return loc
	}
	return time.FixedZone("KST", 9*60*60)
}

// ParseRange finds an hour range such as "8/29 13시~17시". Without an
// explicit month/day the date comes from a relative day word or defaults
// to today.
func (p *Parser) ParseRange(text string) (string, string, bool) {
	today := p.today()

	if m := monthDayHours.FindStringSubmatch(text); m != nil {
		month, day, h1, h2 := atoi(m[1]), atoi(m[2]), atoi(m[3]), atoi(m[4])
		return p.hourRange(today.Year(), month, day, h1, h2)
	}

	m := hoursOnly.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	y, mo, d := today.Date()
	if dy, dm, dd, ok := p.dateIn(text, today); ok {
		y, mo, d = dy, time.Month(dm), dd
	}
	return p.hourRange(y, int(mo), d, atoi(m[1]), atoi(m[2]))
}

// ParseDateOnly expands a bare date into the full day 00:00:00-23:59:59.
// Text carrying any time expression is left to ParseRange.
func (p *Parser) ParseDateOnly(text string) (string, string, bool) {
	if timeMarkers.MatchString(text) {
		return "", "", false
	}
	y, m, d, ok := p.dateIn(text, p.today())
	if !ok {
		return "", "", false
	}
	start, valid := p.date(y, m, d, 0, 0, 0)
	if !valid {
		return "", "", false
	}
	end := start.Add(24*time.Hour - time.Second)
	return start.Format(Layout), end.Format(Layout), true
}

func (p *Parser) dateIn(text string, today time.Time) (int, int, int, bool) {
	for _, re := range []*regexp.Regexp{koreanDate, numericDate} {
		if m := re.FindStringSubmatch(text); m != nil {
			year := today.Year()
			if m[1] != "" {
				year = atoi(m[1])
			}
			return year, atoi(m[2]), atoi(m[3]), true
		}
	}
	for _, rd := range relativeDays {
		if strings.Contains(text, rd.word) {
			day := today.AddDate(0, 0, rd.offset)
			return day.Year(), int(day.Month()), day.Day(), true
		}
	}
	return 0, 0, 0, false
}

func (p *Parser) hourRange(y, month, day, h1, h2 int) (string, string, bool) {
	if h1 > 23 || h2 > 24 || h2 <= h1 {
		return "", "", false
	}
	start, ok := p.date(y, month, day, h1, 0, 0)
	if !ok {
		return "", "", false
	}
	end := start.Add(time.Duration(h2-h1) * time.Hour)
	if h2 == 24 {
		end = end.Add(-time.Second)
	}
	return start.Format(Layout), end.Format(Layout), true
}

// date rejects values time.Date would silently normalize, like 2/30.
func (p *Parser) date(y, month, day, h, mi, sec int) (time.Time, bool) {
	t := time.Date(y, time.Month(month), day, h, mi, sec, 0, p.loc)
	if t.Year() != y || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func (p *Parser) today() time.Time {
	return p.now().In(p.loc)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
