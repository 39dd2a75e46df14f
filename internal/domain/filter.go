package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FilterMode selects how query parameters are turned into a Filter
type FilterMode string

const (
	// FilterModeStrict bounds month filters to the calendar month and ANDs search with it.
	FilterModeStrict FilterMode = "strict"
	// FilterModeLegacy keeps the historical semantics: open-ended lower bound
	// anchored in the current year, and search replacing the month filter.
	FilterModeLegacy FilterMode = "legacy"
)

func ParseFilterMode(s string) (FilterMode, error) {
	switch FilterMode(strings.ToLower(strings.TrimSpace(s))) {
	case FilterModeStrict:
		return FilterModeStrict, nil
	case FilterModeLegacy:
		return FilterModeLegacy, nil
	default:
		return "", fmt.Errorf("unknown filter mode %q", s)
	}
}

// FilterParams are the raw query parameters shared by listing and reports
type FilterParams struct {
	Month  string
	Year   string
	Search string
}

// Filter is a predicate over transactions. Stores translate it into their
// own query language; Matches is the reference semantics.
type Filter struct {
	// MatchNone short-circuits everything else.
	MatchNone bool

	// From is inclusive, To is exclusive.
	From *time.Time
	To   *time.Time

	// MonthOfYear matches a calendar month in any year (0 disables).
	MonthOfYear time.Month
	Location    *time.Location

	// SearchPattern is matched case-insensitively against title,
	// description and the decimal text of price.
	SearchPattern string
	search        *regexp.Regexp

	Sold *bool
}

// Loc returns the location month predicates are evaluated in
func (f Filter) Loc() *time.Location {
	if f.Location == nil {
		return time.UTC
	}
	return f.Location
}

// WithSold returns a copy restricted to sold or unsold transactions
func (f Filter) WithSold(sold bool) Filter {
	f.Sold = &sold
	return f
}

// WithSearch returns a copy matching pattern. An invalid pattern is
// treated as a literal substring.
func (f Filter) WithSearch(pattern string) Filter {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		pattern = regexp.QuoteMeta(pattern)
		re = regexp.MustCompile("(?i)" + pattern)
	}
	f.SearchPattern = pattern
	f.search = re
	return f
}

// Matches reports whether tx satisfies the filter
func (f Filter) Matches(tx *Transaction) bool {
	if f.MatchNone {
		return false
	}
	if f.From != nil && tx.DateOfSale.Before(*f.From) {
		return false
	}
	if f.To != nil && !tx.DateOfSale.Before(*f.To) {
		return false
	}
	if f.MonthOfYear != 0 && tx.DateOfSale.In(f.Loc()).Month() != f.MonthOfYear {
		return false
	}
	if f.Sold != nil && tx.IsSold != *f.Sold {
		return false
	}
	if f.SearchPattern != "" {
		re := f.search
		if re == nil {
			re = f.WithSearch(f.SearchPattern).search
		}
		if !re.MatchString(tx.ProductTitle) &&
			!re.MatchString(tx.ProductDescription) &&
			!re.MatchString(FormatPrice(tx.Price)) {
			return false
		}
	}
	return true
}

// Key is a stable identifier of the filter, used for caching
func (f Filter) Key() string {
	if f.MatchNone {
		return "none"
	}
	var b strings.Builder
	if f.From != nil {
		fmt.Fprintf(&b, "from=%d;", f.From.UnixMilli())
	}
	if f.To != nil {
		fmt.Fprintf(&b, "to=%d;", f.To.UnixMilli())
	}
	if f.MonthOfYear != 0 {
		fmt.Fprintf(&b, "moy=%d@%s;", f.MonthOfYear, f.Loc())
	}
	if f.Sold != nil {
		fmt.Fprintf(&b, "sold=%t;", *f.Sold)
	}
	if f.SearchPattern != "" {
		fmt.Fprintf(&b, "q=%s;", f.SearchPattern)
	}
	if b.Len() == 0 {
		return "all"
	}
	return b.String()
}

// MonthToken is a parsed month parameter. Day is 1 for tokens that name a
// month only; Year is 0 when the token carries no year.
type MonthToken struct {
	Month time.Month
	Day   int
	Year  int
}

var monthNames = map[string]time.Month{}

func init() {
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		monthNames[name] = m
		monthNames[name[:3]] = m
	}
	monthNames["sept"] = time.September
}

// ParseMonth accepts "March", "mar", "3", "2022-03", "2022-03-15" and
// "March 2022". ok is false for anything else.
func ParseMonth(token string) (MonthToken, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return MonthToken{}, false
	}

	if m, ok := monthNames[strings.ToLower(token)]; ok {
		return MonthToken{Month: m, Day: 1}, true
	}

	if n, err := strconv.Atoi(token); err == nil {
		if n >= 1 && n <= 12 {
			return MonthToken{Month: time.Month(n), Day: 1}, true
		}
		return MonthToken{}, false
	}

	if t, err := time.Parse("2006-01-02", token); err == nil {
		return MonthToken{Month: t.Month(), Day: t.Day(), Year: t.Year()}, true
	}
	if t, err := time.Parse("2006-01", token); err == nil {
		return MonthToken{Month: t.Month(), Day: 1, Year: t.Year()}, true
	}

	if fields := strings.Fields(token); len(fields) == 2 {
		m, ok := monthNames[strings.ToLower(fields[0])]
		y, err := strconv.Atoi(fields[1])
		if ok && err == nil && y >= 1 && y <= 9999 {
			return MonthToken{Month: m, Day: 1, Year: y}, true
		}
	}

	return MonthToken{}, false
}

// LegacyAnchor is the lower bound of the legacy filter: the token's
// month and day at local midnight, with the year forced to now's year.
func LegacyAnchor(tok MonthToken, now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(now.In(loc).Year(), tok.Month, tok.Day, 0, 0, 0, 0, loc)
}

// BuildListFilter builds the filter of the transaction listing
func BuildListFilter(p FilterParams, mode FilterMode, now time.Time, loc *time.Location) Filter {
	if mode == FilterModeLegacy {
		f := Filter{Location: loc}
		if p.Month != "" {
			f = legacyMonthFilter(p.Month, now, loc)
		}
		if p.Search != "" {
			// search replaces the month filter
			f = Filter{Location: loc}.WithSearch(p.Search)
		}
		return f
	}

	f := strictDateFilter(p, loc)
	if p.Search != "" && !f.MatchNone {
		f = f.WithSearch(p.Search)
	}
	return f
}

// BuildReportFilter builds the filter shared by statistics and charts.
// Search does not apply to reports.
func BuildReportFilter(p FilterParams, mode FilterMode, now time.Time, loc *time.Location) Filter {
	if mode == FilterModeLegacy {
		if p.Month == "" {
			return Filter{Location: loc, MatchNone: true}
		}
		return legacyMonthFilter(p.Month, now, loc)
	}
	return strictDateFilter(p, loc)
}

func legacyMonthFilter(month string, now time.Time, loc *time.Location) Filter {
	tok, ok := ParseMonth(month)
	if !ok {
		return Filter{Location: loc, MatchNone: true}
	}
	anchor := LegacyAnchor(tok, now, loc)
	return Filter{Location: loc, From: &anchor}
}

func strictDateFilter(p FilterParams, loc *time.Location) Filter {
	if loc == nil {
		loc = time.Local
	}
	f := Filter{Location: loc}

	year := 0
	if p.Year != "" {
		y, err := strconv.Atoi(strings.TrimSpace(p.Year))
		if err != nil || y < 1 || y > 9999 {
			f.MatchNone = true
			return f
		}
		year = y
	}

	if p.Month == "" {
		if year != 0 {
			from := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
			to := from.AddDate(1, 0, 0)
			f.From, f.To = &from, &to
		}
		return f
	}

	tok, ok := ParseMonth(p.Month)
	if !ok {
		f.MatchNone = true
		return f
	}
	if tok.Year != 0 {
		year = tok.Year
	}
	if year == 0 {
		f.MonthOfYear = tok.Month
		return f
	}

	from := time.Date(year, tok.Month, 1, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 1, 0)
	f.From, f.To = &from, &to
	return f
}
